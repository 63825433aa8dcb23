package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romaninsh/vantage/pkg/dataset"
	"github.com/romaninsh/vantage/pkg/record"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get <source> <id>",
		Short: "Fetch a single record by identifier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0], args[1], raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Skip entity decoding and show the stored record")
	return cmd
}

func runGet(cmd *cobra.Command, name, idArg string, raw bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := cmdCtx.Catalog.Get(name)
	if err != nil {
		return err
	}
	ds := h.Set()
	if raw {
		ds = h.Raw()
	}

	id, rec, err := resolveID(cmd.Context(), &ds.ReadSet, idArg)
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", name, idArg, err)
	}

	entry := dataset.Entry[record.Record]{ID: id, Entity: rec}
	return renderEntries(cmd.OutOrStdout(), []dataset.Entry[record.Record]{entry}, cmdCtx.Cfg.Output)
}
