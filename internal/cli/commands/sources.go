package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/romaninsh/vantage/internal/config"
)

// NewSourcesCommand creates the sources command.
func NewSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured data sources",
		Long:  `List every source declared in the configuration with its type, location and entity declaration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSources(cmd)
		},
	}
}

type sourceInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
	Typed    bool   `json:"typed"`
	Fields   int    `json:"fields"`
}

func runSources(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	infos := make([]sourceInfo, 0, len(cmdCtx.Cfg.Sources))
	for _, name := range cmdCtx.Catalog.Names() {
		h, err := cmdCtx.Catalog.Get(name)
		if err != nil {
			return err
		}
		infos = append(infos, sourceInfo{
			Name:     name,
			Type:     h.Config.Type,
			Location: locationOf(h.Config),
			Typed:    h.Typed(),
			Fields:   len(h.Config.Entity),
		})
	}

	w := cmd.OutOrStdout()
	switch cmdCtx.Cfg.Output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "csv":
		_, _ = fmt.Fprintln(w, "name,type,location,typed,fields")
		for _, s := range infos {
			_, _ = fmt.Fprintf(w, "%s,%s,%s,%t,%d\n", s.Name, s.Type, escapeCSV(s.Location), s.Typed, s.Fields)
		}
		return nil
	default:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"name", "type", "location", "entity"})
		for _, s := range infos {
			entity := "untyped"
			if s.Typed {
				entity = fmt.Sprintf("%d fields", s.Fields)
			}
			t.AppendRow(table.Row{s.Name, s.Type, s.Location, entity})
		}
		t.Render()
		return nil
	}
}

func locationOf(cfg config.SourceConfig) string {
	switch cfg.Type {
	case config.TypeREST:
		return cfg.URL
	case config.TypeSQLite:
		return strings.TrimSpace(cfg.Path + " " + cfg.Table)
	case config.TypeCSV:
		return cfg.Path
	default:
		return ""
	}
}
