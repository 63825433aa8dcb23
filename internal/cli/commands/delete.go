package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/romaninsh/vantage/pkg/source"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source> <id>",
		Short: "Delete a record by identifier",
		Long: `Delete a record. Deleting an identifier that is already gone
succeeds, so a retried delete is safe.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0], args[1])
		},
	}
}

func runDelete(cmd *cobra.Command, name, idArg string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := cmdCtx.Catalog.Get(name)
	if err != nil {
		return err
	}
	ds := h.Raw()

	// Resolve to the stored identifier so numeric keys delete too.
	id, _, err := resolveID(cmd.Context(), &ds.ReadSet, idArg)
	if errors.Is(err, source.ErrNotFound) {
		// Already gone; deleting is idempotent. Prefer the numeric
		// form when the argument reads as one.
		id = source.StringID(idArg)
		if n, convErr := strconv.ParseInt(idArg, 10, 64); convErr == nil {
			id = source.IntID(n)
		}
	} else if err != nil {
		return fmt.Errorf("delete %s/%s: %w", name, idArg, err)
	}

	if err := ds.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", name, idArg, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id.String())
	return nil
}
