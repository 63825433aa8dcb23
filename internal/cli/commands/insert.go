package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romaninsh/vantage/pkg/dataset"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
)

// NewInsertCommand creates the insert command.
func NewInsertCommand() *cobra.Command {
	var (
		fields []string
		key    string
	)
	cmd := &cobra.Command{
		Use:   "insert <source>",
		Short: "Insert a record into a source",
		Long: `Insert a record built from repeated --field name=value flags.

With --key the insert is idempotent: repeating the command with the
same key returns the identifier of the already-stored record instead
of storing a duplicate.`,
		Example: `  vantage insert users -f name=alice -f age=30
  vantage insert users -f name=alice -f age=30 --key signup-9f2c`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(cmd, args[0], fields, key)
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field as name=value (repeatable)")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key")
	return cmd
}

func runInsert(cmd *cobra.Command, name string, fields []string, key string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := cmdCtx.Catalog.Get(name)
	if err != nil {
		return err
	}
	rec, err := parseFields(h, fields)
	if err != nil {
		return err
	}

	var opts []dataset.InsertOption
	if key != "" {
		opts = append(opts, dataset.WithKey(key))
	}

	var id source.ID
	if h.Typed() {
		id, err = h.Set().Insert(cmd.Context(), &rec, opts...)
	} else {
		// Untyped inserts still go through the type system so the
		// stored values match the backend's native shapes.
		var native record.Record
		native, err = encodeNative(h, rec)
		if err != nil {
			return err
		}
		id, err = h.Raw().Insert(cmd.Context(), &native, opts...)
	}
	if err != nil {
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), id.String())
	return nil
}
