package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scantech/team-tasks/internal/services"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Add, edit or delete task comments",
}

var commentAddCmd = &cobra.Command{
	Use:   "add TASK_ID TEXT",
	Short: "Comment on a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			user, err := env.session.RequireUser()
			if err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}
			task, err := env.store.AddComment(cmd.Context(), services.AddCommentInput{
				TaskID:   taskID,
				Text:     args[1],
				UserID:   user.ID,
				UserName: user.Name,
			})
			if err != nil {
				return err
			}
			added := task.Comments[len(task.Comments)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment %s to task %d\n", added.ID, task.ID)
			return nil
		})
	},
}

var commentEditCmd = &cobra.Command{
	Use:   "edit TASK_ID COMMENT_ID TEXT",
	Short: "Edit one of your comments",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if err := requireCommentAuthor(cmd.Context(), env, taskID, args[1]); err != nil {
				return err
			}
			if _, err := env.store.UpdateComment(cmd.Context(), taskID, args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated comment %s\n", args[1])
			return nil
		})
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete TASK_ID COMMENT_ID",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if err := requireCommentAuthor(cmd.Context(), env, taskID, args[1]); err != nil {
				return err
			}
			if _, err := env.store.DeleteComment(cmd.Context(), taskID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %s\n", args[1])
			return nil
		})
	},
}

func init() {
	commentCmd.AddCommand(commentAddCmd, commentEditCmd, commentDeleteCmd)
	tasksCmd.AddCommand(commentCmd)
}

// requireCommentAuthor loads the tasks and checks the signed-in user wrote the comment.
func requireCommentAuthor(ctx context.Context, env *clientEnv, taskID uint64, commentID string) error {
	user, err := env.session.RequireUser()
	if err != nil {
		return err
	}
	if err := env.loadTasks(ctx); err != nil {
		return err
	}
	task, err := env.store.GetTask(taskID)
	if err != nil {
		return err
	}
	idx := task.FindComment(commentID)
	if idx < 0 {
		return services.ErrCommentNotFound
	}
	if task.Comments[idx].UserID != user.ID {
		return fmt.Errorf("only the author can change this comment")
	}
	return nil
}
