package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/scantech/team-tasks/internal/dto"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/services"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with team tasks",
}

var (
	listStatus   string
	listAssignee uint64
	listMine     bool
)

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			user, err := env.session.RequireUser()
			if err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}

			tasks := env.store.Tasks()
			switch {
			case listMine:
				tasks = env.store.TasksByAssignee(user.ID)
			case listAssignee != 0:
				tasks = env.store.TasksByAssignee(listAssignee)
			}
			if listStatus != "" {
				status := models.TaskStatus(listStatus)
				if !status.Valid() {
					return services.ErrInvalidStatus
				}
				kept := tasks[:0]
				for _, t := range tasks {
					if t.Status == status {
						kept = append(kept, t)
					}
				}
				tasks = kept
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tDUE")
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Title, t.Status, t.Priority, memberName(env, t.AssigneeID), formatDate(t.DueDate))
			}
			return w.Flush()
		})
	},
}

var tasksShowCmd = &cobra.Command{
	Use:   "show TASK_ID",
	Short: "Show a task with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if _, err := env.session.RequireUser(); err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}
			task, err := env.store.GetTask(taskID)
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), env, task)
			return nil
		})
	},
}

var (
	createDescription string
	createAssignee    uint64
	createPriority    string
	createDue         string
)

var tasksCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create a task (team leader only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		due, err := parseOptionalDate(createDue)
		if err != nil {
			return err
		}
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			user, err := env.requireLeader()
			if err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}
			task, err := env.store.CreateTask(cmd.Context(), services.CreateTaskInput{
				Title:       args[0],
				Description: createDescription,
				AssigneeID:  createAssignee,
				Priority:    models.TaskPriority(createPriority),
				DueDate:     due,
				CreatorID:   user.ID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d\n", task.ID)
			return nil
		})
	},
}

var (
	editTitle       string
	editDescription string
	editPriority    string
	editDue         string
)

var tasksEditCmd = &cobra.Command{
	Use:   "edit TASK_ID",
	Short: "Edit a task's details (team leader only)",
	Long:  "Changes only the fields whose flags are given. Pass --due \"\" to clear the due date.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		var input services.UpdateTaskInput
		flags := cmd.Flags()
		if flags.Changed("title") {
			input.Title = &editTitle
		}
		if flags.Changed("description") {
			input.Description = &editDescription
		}
		if flags.Changed("priority") {
			priority := models.TaskPriority(editPriority)
			input.Priority = &priority
		}
		if flags.Changed("due") {
			due, err := parseOptionalDate(editDue)
			if err != nil {
				return err
			}
			input.DueDate = due
			input.ClearDueDate = due == nil
		}

		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if _, err := env.requireLeader(); err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}
			if _, err := env.store.UpdateTask(cmd.Context(), taskID, input); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", taskID)
			return nil
		})
	},
}

var statusComment string

var tasksStatusCmd = &cobra.Command{
	Use:   "status TASK_ID STATUS",
	Short: "Move a task to not_started, in_progress, problematic or completed",
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
			current, err := env.store.GetTask(taskID)
			if err != nil {
				return err
			}
			if current.AssigneeID != user.ID && !user.IsTeamLeader() {
				return fmt.Errorf("only the assignee or the team leader can change this task's status")
			}

			task, err := env.store.UpdateTaskStatus(cmd.Context(), services.UpdateStatusInput{
				TaskID:         taskID,
				Status:         models.TaskStatus(args[1]),
				PreviousStatus: current.Status,
				Comment:        statusComment,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", task.ID, task.Status)
			return nil
		})
	},
}

var tasksAssignCmd = &cobra.Command{
	Use:   "assign TASK_ID MEMBER_ID",
	Short: "Reassign a task (team leader only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		assigneeID, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid member id %q", args[1])
		}
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if _, err := env.requireLeader(); err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}
			task, err := env.store.UpdateTaskAssignee(cmd.Context(), taskID, assigneeID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d assigned to %s\n", task.ID, memberName(env, task.AssigneeID))
			return nil
		})
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete TASK_ID",
	Short: "Delete a task and its comments (team leader only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if _, err := env.requireLeader(); err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}
			if err := env.store.DeleteTask(cmd.Context(), taskID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", taskID)
			return nil
		})
	},
}

var tasksSuggestCmd = &cobra.Command{
	Use:   "suggest TEXT",
	Short: "Draft tasks from free text with the AI assistant (team leader only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if _, err := env.requireLeader(); err != nil {
				return err
			}
			var ai *services.AIService
			if env.cfg.OpenAIAPIKey != "" {
				ai = services.NewAIService(env.cfg.OpenAIAPIKey)
			}
			drafts, err := ai.SuggestTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "TITLE\tPRIORITY\tDUE\tDESCRIPTION")
			for _, d := range drafts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Title, d.Priority, formatDate(d.DueDate), d.Description)
			}
			return w.Flush()
		})
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&listStatus, "status", "", "only tasks with this status")
	tasksListCmd.Flags().Uint64Var(&listAssignee, "assignee", 0, "only tasks assigned to this member id")
	tasksListCmd.Flags().BoolVar(&listMine, "mine", false, "only tasks assigned to me")

	tasksCreateCmd.Flags().StringVarP(&createDescription, "description", "d", "", "task description")
	tasksCreateCmd.Flags().Uint64VarP(&createAssignee, "assignee", "a", 0, "member id to assign")
	tasksCreateCmd.Flags().StringVar(&createPriority, "priority", string(models.PriorityMedium), "low, medium or high")
	tasksCreateCmd.Flags().StringVar(&createDue, "due", "", "due date (YYYY-MM-DD)")
	tasksCreateCmd.MarkFlagRequired("assignee")

	tasksEditCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	tasksEditCmd.Flags().StringVarP(&editDescription, "description", "d", "", "new description")
	tasksEditCmd.Flags().StringVar(&editPriority, "priority", "", "low, medium or high")
	tasksEditCmd.Flags().StringVar(&editDue, "due", "", "due date (YYYY-MM-DD), empty to clear")

	tasksStatusCmd.Flags().StringVarP(&statusComment, "comment", "c", "", "what is blocking the task (problematic only)")

	tasksCmd.AddCommand(tasksListCmd, tasksShowCmd, tasksCreateCmd, tasksEditCmd,
		tasksStatusCmd, tasksAssignCmd, tasksDeleteCmd, tasksSuggestCmd)
	rootCmd.AddCommand(tasksCmd)
}

func parseTaskID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func memberName(env *clientEnv, userID uint64) string {
	if m, ok := env.store.Member(userID); ok {
		return m.Name
	}
	return fmt.Sprintf("#%d", userID)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printTask(out io.Writer, env *clientEnv, t *models.Task) {
	fmt.Fprintf(out, "#%d %s\n", t.ID, t.Title)
	fmt.Fprintf(out, "Status:   %s\n", t.Status)
	if t.Status == models.TaskStatusProblematic && t.ProblematicComment != "" {
		fmt.Fprintf(out, "Problem:  %s\n", t.ProblematicComment)
	}
	fmt.Fprintf(out, "Priority: %s\n", t.Priority)
	fmt.Fprintf(out, "Assignee: %s\n", memberName(env, t.AssigneeID))
	fmt.Fprintf(out, "Due:      %s\n", formatDate(t.DueDate))
	if t.Description != "" {
		fmt.Fprintf(out, "\n%s\n", t.Description)
	}
	if len(t.Comments) == 0 {
		return
	}
	fmt.Fprintln(out, "\nComments:")
	for _, c := range t.Comments {
		edited := ""
		if c.UpdatedAt != nil {
			edited = " (edited)"
		}
		fmt.Fprintf(out, "  [%s] %s, %s%s: %s\n", c.ID, c.UserName, c.CreatedAt.Format("2006-01-02 15:04"), edited, c.Text)
	}
}
