package main

import (
	"fmt"

	"github.com/lalith-99/intakedesk/internal/auth"
	"github.com/spf13/cobra"
)

func (a *app) meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the session identity, creating the demo identity if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.client.Auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	var id auth.Identity
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Replace the session identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.client.Auth.Login(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	cmd.Flags().StringVar(&id.Email, "email", "", "identity email (defaults to the demo email)")
	cmd.Flags().StringVar(&id.Name, "name", "", "display name")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	var redirect string
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the session identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			to, err := a.client.Auth.Logout(cmd.Context(), redirect)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), to)
			return err
		},
	}
	cmd.Flags().StringVar(&redirect, "redirect", "", "redirect target to report")
	return cmd
}
