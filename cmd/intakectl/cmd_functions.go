package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/lalith-99/intakedesk/internal/functions"
	"github.com/spf13/cobra"
)

func (a *app) invokeCmd() *cobra.Command {
	var payload string
	cmd := &cobra.Command{
		Use:   "invoke <function>",
		Short: "Run a named function and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p json.RawMessage
			if payload != "" {
				p = json.RawMessage(payload)
			}
			res, err := a.client.Functions.Invoke(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, res.Data, "", "  "); err != nil {
				return fmt.Errorf("format result: %w", err)
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "", "payload as JSON")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		p   functions.ExportPayload
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export intakes as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Functions.Invoke(cmd.Context(), functions.ExportIntakes, p)
			if err != nil {
				return err
			}
			var r functions.ExportResult
			if err := res.Decode(&r); err != nil {
				return fmt.Errorf("decode export: %w", err)
			}
			if !r.OK {
				return errors.New("export failed: " + r.Error)
			}

			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), r.CSV)
				return err
			}
			if err := os.WriteFile(out, []byte(r.CSV), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d intakes to %s\n", r.Count, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.FirmID, "firm-id", "", "only this firm's intakes")
	cmd.Flags().StringVar(&out, "out", "", "write to file instead of stdout")
	return cmd
}
