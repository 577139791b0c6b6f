package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lalith-99/intakedesk/internal/intake"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/storage"
	"github.com/lalith-99/intakedesk/internal/upload"
	"github.com/spf13/cobra"
)

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			name := filepath.Base(args[0])
			url, err := a.client.Uploads.Upload(cmd.Context(), &upload.File{
				Name:        name,
				ContentType: storage.ContentType(name),
				Body:        f,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}
}

func (a *app) submitCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "submit <firm-slug>",
		Short: "Submit a public intake to a firm and score it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sub intake.Submission
			if err := json.Unmarshal([]byte(data), &sub); err != nil {
				return fmt.Errorf("%w: --data: %v", models.ErrInvalid, err)
			}
			in, err := a.client.Workflows.Submit(cmd.Context(), args[0], sub)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), in)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "submission as JSON")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "stats <firm-id>",
		Short: "Summarise a firm's intakes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var since time.Time
			if window > 0 {
				since = time.Now().Add(-window)
			}
			st, err := a.client.Workflows.Stats(cmd.Context(), args[0], since)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().DurationVar(&window, "since", 0, "only intakes newer than this, e.g. 720h (default all)")
	return cmd
}
