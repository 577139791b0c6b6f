package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"github.com/spf13/cobra"
)

// normalizeEntity maps "intakes", "intake", "email_history" and the like
// onto the stored entity name.
func normalizeEntity(name string) (string, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(name))
	key = inflection.Singular(key)
	for _, e := range models.Entities {
		if strings.ToLower(e) == key {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q (want one of %s)", name, strings.Join(models.Entities, ", "))
}

func (a *app) collection(name string) (repository.Collection, error) {
	entity, err := normalizeEntity(name)
	if err != nil {
		return nil, err
	}
	col, ok := a.client.Collection(entity)
	if !ok {
		return nil, fmt.Errorf("no collection for %s", entity)
	}
	return col, nil
}

// parseWhere turns repeated k=v flags into a predicate. Values compare
// against the field's text form, the same as query parameters.
func parseWhere(pairs []string) (repository.Where, error) {
	where := repository.Where{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("bad --where %q, want field=value", p)
		}
		where[k] = repository.Text(v)
	}
	return where, nil
}

func (a *app) listCmd() *cobra.Command {
	var (
		wheres []string
		order  string
	)
	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List records matching every --where pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			where, err := parseWhere(wheres)
			if err != nil {
				return err
			}
			recs, err := col.Filter(cmd.Context(), where, order)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringArrayVar(&wheres, "where", nil, "field=value filter, repeatable")
	cmd.Flags().StringVar(&order, "order", "", `sort field, "-" prefix for descending`)
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			rec, err := col.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("%s %s: %w", col.Entity(), args[1], repository.ErrNotFound)
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create <entity>",
		Short: "Create a record from a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			rec, err := col.Create(cmd.Context(), json.RawMessage(data))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&data, "data", "{}", "record as JSON")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "update <entity> <id>",
		Short: "Merge a JSON object into a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			var patch repository.Patch
			if err := json.Unmarshal([]byte(data), &patch); err != nil {
				return fmt.Errorf("%w: --data: %v", models.ErrInvalid, err)
			}
			rec, err := col.Update(cmd.Context(), args[1], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "fields to change as JSON")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete a record; unknown ids are not an error",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			return col.Delete(cmd.Context(), args[1])
		},
	}
}
