package main

import (
	"fmt"
	"time"

	"github.com/lalith-99/intakedesk/internal/intake"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Staff triage actions on a single intake.

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <intake-id> <status>",
		Short: "Set an intake's status and send the status notification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.client.Workflows.SetStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
}

func (a *app) bulkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk <status|assign|tag> <value> <intake-id>...",
		Short: "Apply one action to several intakes, stopping at the first failure",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := intake.BulkAction{Kind: args[0], Value: args[1]}
			n, err := a.client.Workflows.Bulk(cmd.Context(), args[2:], action)
			if err != nil {
				return fmt.Errorf("after %d of %d: %w", n, len(args[2:]), err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"updated": n})
		},
	}
}

func (a *app) tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <intake-id> <tag>",
		Short: "Add a tag to an intake",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.client.Workflows.AddTag(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
}

func (a *app) untagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untag <intake-id> <tag>",
		Short: "Remove a tag from an intake",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.client.Workflows.RemoveTag(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
}

func (a *app) assignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <intake-id> [member]",
		Short: "Assign an intake to a team member, or unassign it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var member string
			if len(args) == 2 {
				member = args[1]
			}
			in, err := a.client.Workflows.Assign(cmd.Context(), args[0], member)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
}

func (a *app) notesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <intake-id> <text>",
		Short: "Replace an intake's internal notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.client.Workflows.SetNotes(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
}

func (a *app) followUpCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "follow-up <intake-id>",
		Short: "Schedule the next follow-up, by default the firm's follow_up_days from today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var when time.Time
			if date != "" {
				var err error
				when, err = time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("%w: --date: %v", models.ErrInvalid, err)
				}
			}
			in, err := a.client.Workflows.ScheduleFollowUp(cmd.Context(), args[0], when)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "follow-up date as YYYY-MM-DD")
	return cmd
}

// Client message thread and portal.

func (a *app) messageCmd() *cobra.Command {
	var msg intake.NewMessage
	cmd := &cobra.Command{
		Use:   "message <intake-id>",
		Short: "Post to an intake's message thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.client.Workflows.PostMessage(cmd.Context(), args[0], msg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().StringVar(&msg.SenderType, "as", models.SenderStaff, "sender type, staff or client")
	cmd.Flags().StringVar(&msg.SenderName, "name", "", "sender name (client posts default to the intake's client)")
	cmd.Flags().StringVar(&msg.SenderEmail, "email", "", "sender email")
	cmd.Flags().StringVar(&msg.Content, "content", "", "message text")
	cmd.Flags().StringArrayVar(&msg.Attachments, "attach", nil, "attachment URL, repeatable")
	return cmd
}

func (a *app) threadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thread <intake-id>",
		Short: "List an intake's messages, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := a.client.Workflows.Thread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), msgs)
		},
	}
}

func (a *app) readCmd() *cobra.Command {
	var reader string
	cmd := &cobra.Command{
		Use:   "read <intake-id>",
		Short: "Mark the other party's messages on a thread as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.client.Workflows.MarkThreadRead(cmd.Context(), args[0], reader)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"marked": n})
		},
	}
	cmd.Flags().StringVar(&reader, "as", models.SenderStaff, "who is reading, staff or client")
	return cmd
}

func (a *app) portalCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "portal <intake-id>",
		Short: "Show what the client portal shows for an intake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.Workflows.PortalAccess(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "the client's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <intake-id>",
		Short: "Delete an intake with its messages, email history and stored files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.client.IsRemote() {
				a.logger.Info("stored files are left to the backend", zap.String("intake_id", args[0]))
			}
			res, err := a.client.Workflows.Purge(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
