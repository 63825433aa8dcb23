package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/romaninsh/vantage/internal/catalog"
	"github.com/romaninsh/vantage/pkg/dataset"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		raw bool
		all bool
	)
	cmd := &cobra.Command{
		Use:   "list [source]",
		Short: "List the records of a source",
		Long: `List every record of a source. Typed sources decode records through
their entity declaration; rows that fail to decode are skipped and
counted. Use --raw to see the stored records untyped.`,
		Example: `  # List one source
  vantage list users

  # List every configured source
  vantage list --all

  # Stored records, no entity decoding
  vantage list users --raw

  # As JSON
  vantage list users --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) != 0 {
					return fmt.Errorf("--all takes no source argument")
				}
				return runListAll(cmd, raw)
			}
			if len(args) != 1 {
				return fmt.Errorf("source name required (or --all)")
			}
			return runList(cmd, args[0], raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Skip entity decoding and show stored records")
	cmd.Flags().BoolVar(&all, "all", false, "List every configured source")
	return cmd
}

func listEntries(ctx context.Context, h *catalog.Handle, raw bool) ([]dataset.Entry[record.Record], int, error) {
	var skipped int
	opts := []dataset.Option{dataset.WithSkipObserver(func(_ source.ID, _ error) {
		skipped++
	})}
	ds := h.Set(opts...)
	if raw {
		ds = h.Raw(opts...)
	}
	entries, err := ds.List(ctx)
	return entries, skipped, err
}

func runList(cmd *cobra.Command, name string, raw bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := cmdCtx.Catalog.Get(name)
	if err != nil {
		return err
	}
	entries, skipped, err := listEntries(cmd.Context(), h, raw)
	if err != nil {
		return fmt.Errorf("list %s: %w", name, err)
	}
	if err := renderEntries(cmd.OutOrStdout(), entries, cmdCtx.Cfg.Output); err != nil {
		return err
	}
	if skipped > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d row(s) skipped: not decodable as %q\n", skipped, h.Name)
	}
	return nil
}

// runListAll fetches every source concurrently and renders them in
// name order.
func runListAll(cmd *cobra.Command, raw bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	names := cmdCtx.Catalog.Names()
	results := make(map[string][]dataset.Entry[record.Record], len(names))
	skips := make(map[string]int, len(names))
	var mu sync.Mutex

	eg, egctx := errgroup.WithContext(cmd.Context())
	for _, name := range names {
		h, err := cmdCtx.Catalog.Get(name)
		if err != nil {
			return err
		}
		eg.Go(func() error {
			entries, skipped, err := listEntries(egctx, h, raw)
			if err != nil {
				return fmt.Errorf("list %s: %w", h.Name, err)
			}
			mu.Lock()
			results[h.Name] = entries
			skips[h.Name] = skipped
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, name := range names {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "== %s ==\n", name)
		if err := renderEntries(w, results[name], cmdCtx.Cfg.Output); err != nil {
			return err
		}
		if skips[name] > 0 {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d row(s) skipped: not decodable as %q\n", skips[name], name)
		}
	}
	return nil
}
