package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"memewall/internal/facets"
	"memewall/internal/startup"
)

const defaultConfigHint = startup.DefaultConfigFile

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderFacetTable lists a facet collection. The group column only appears
// for grouped categories.
func renderFacetTable(c facets.Category, values []facets.Facet) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	grouped := c.Grouped()
	if grouped {
		tw.AppendHeader(table.Row{string(c), "Group", "Count"})
	} else {
		tw.AppendHeader(table.Row{string(c), "Count"})
	}

	total := 0
	for _, f := range values {
		total += f.Count
		count := strconv.Itoa(f.Count)
		if grouped {
			tw.AppendRow(table.Row{f.Value, f.Group, count})
		} else {
			tw.AppendRow(table.Row{f.Value, count})
		}
	}

	countColumn := 2
	if grouped {
		countColumn = 3
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: countColumn, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.SetCaption("%d values, %d tagged memes", len(values), total)

	return tw.Render()
}
