package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/substrate-reconciler/internal/migration"
	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (want table, json or yaml)", format)
}

// encode writes v as json or yaml. It reports false for table output.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// printHeader renders the start banner of a command.
func printHeader(w io.Writer, title string, dryRun bool, now time.Time) {
	t := newTable(w)
	t.SetTitle(title)
	t.AppendRow(table.Row{"Started", now.Format(time.DateTime)})
	mode := text.FgGreen.Sprint("live")
	if dryRun {
		mode = text.FgYellow.Sprint("dry run (no changes will be written)")
	}
	t.AppendRow(table.Row{"Mode", mode})
	t.Render()
}

func renderSummary(w io.Writer, format string, s *models.RunSummary) error {
	if ok, err := encode(w, format, s); ok {
		return err
	}
	t := newTable(w)
	t.SetTitle("Summary")
	if s.RunID != "" {
		t.AppendRow(table.Row{"Run", s.RunID})
	}
	t.AppendRows([]table.Row{
		{"Started", s.StartedAt.Format(time.DateTime)},
		{"Finished", s.FinishedAt.Format(time.DateTime)},
		{"Duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()},
		{"Dry run", strconv.FormatBool(s.DryRun)},
		{"Batches", s.Batches},
		{"Processed", s.Processed},
		{"Updated", s.Updated},
		{"Partial", s.Partial},
		{"Failed", failedCell(s.Failed)},
	})
	if len(s.ProjectsMoved) > 0 {
		t.AppendRow(table.Row{"Projects moved", len(s.ProjectsMoved)})
	}
	t.Render()

	if len(s.FailedInstances) > 0 {
		ft := newTable(w)
		ft.SetTitle("Failed instances")
		for _, id := range s.FailedInstances {
			ft.AppendRow(table.Row{id})
		}
		ft.Render()
	}
	return nil
}

func failedCell(n int) string {
	if n == 0 {
		return "0"
	}
	return text.FgRed.Sprint(n)
}

func renderIdentityMap(w io.Writer, format string, ids *models.IdentityMap) error {
	if ok, err := encode(w, format, ids.Pairs()); ok {
		return err
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Source VM", "Destination VM"})
	for i, p := range ids.Pairs() {
		t.AppendRow(table.Row{i + 1, p.SourceID, p.DestID})
	}
	t.AppendFooter(table.Row{"", "Total", ids.Len()})
	t.Render()
	return nil
}

func renderSeedResult(w io.Writer, format string, res *migration.SeedResult) error {
	if ok, err := encode(w, format, res); ok {
		return err
	}
	t := newTable(w)
	t.SetTitle("Category pre-seeding")
	t.AppendRows([]table.Row{
		{"Applications processed", res.Processed},
		{"Keys created", res.KeysCreated},
		{"Values created", res.ValuesCreated},
		{"Applications failed", failedCell(len(res.Failed))},
	})
	t.Render()
	if len(res.Failed) > 0 {
		ft := newTable(w)
		ft.SetTitle("Could not process")
		for _, id := range res.Failed {
			ft.AppendRow(table.Row{id})
		}
		ft.Render()
	}
	return nil
}
