package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "update <source> <id>",
		Short: "Update fields of an existing record",
		Long: `Update a record in place. The record is fetched, the given
--field values replace its fields, and the result is written back.`,
		Example: `  vantage update users u1 -f age=31`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args[0], args[1], fields)
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field as name=value (repeatable)")
	return cmd
}

func runUpdate(cmd *cobra.Command, name, idArg string, fields []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := cmdCtx.Catalog.Get(name)
	if err != nil {
		return err
	}
	changes, err := parseFields(h, fields)
	if err != nil {
		return err
	}

	// Merge over the stored record so untouched fields survive.
	ds := h.Raw()
	id, current, err := resolveID(cmd.Context(), &ds.ReadSet, idArg)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", name, idArg, err)
	}
	for _, p := range changes.Pairs() {
		current.Set(p.Name, p.Value)
	}
	native, err := encodeNative(h, current)
	if err != nil {
		return err
	}

	if err := ds.Update(cmd.Context(), id, &native); err != nil {
		return fmt.Errorf("update %s/%s: %w", name, idArg, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", id.String())
	return nil
}
