package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			user, err := env.session.Login(cmd.Context(), loginEmail, loginPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if err := env.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			user, err := env.session.RequireUser()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return nil
		})
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the team members tasks can be assigned to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClientEnv(cmd.Context(), func(env *clientEnv) error {
			if _, err := env.session.RequireUser(); err != nil {
				return err
			}
			if err := env.loadTasks(cmd.Context()); err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
			for _, m := range env.store.TeamMembers() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.Name, m.Email, m.Role)
			}
			return w.Flush()
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, membersCmd)
}
