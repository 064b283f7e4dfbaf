package testrun

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	fstrings "feditest/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// WriteJSON writes the transcript as indented JSON.
func WriteJSON(w io.Writer, t *Transcript) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to write JSON transcript: %w", err)
	}
	return nil
}

// WriteYAML writes the transcript as YAML.
func WriteYAML(w io.Writer, t *Transcript) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to write YAML transcript: %w", err)
	}
	return enc.Close()
}

// WriteSummary writes a table with one row per test and the totals.
func WriteSummary(w io.Writer, t *Transcript) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("SESSION"),
		text.FgHiCyan.Sprint("TEST"),
		text.FgHiCyan.Sprint("RESULT"),
		text.FgHiCyan.Sprint("PROBLEM"),
	})
	for _, session := range t.Sessions {
		for _, r := range session.Results {
			detail := r.SkipReason
			if r.Problem != nil {
				detail = fstrings.OneLine(r.Problem.String(), fstrings.ProblemMaxLen)
			}
			tw.AppendRow(table.Row{session.Name, r.Name, r.Outcome, detail})
		}
	}
	s := t.BuildSummary()
	tw.AppendFooter(table.Row{"", "TOTAL", s.Total, fmt.Sprintf("%d passed, %d failed, %d errored, %d skipped", s.Passed, s.Failed, s.Errored, s.Skipped)})
	tw.Render()
	return nil
}

// WriteFile writes the transcript to path with write, which is one of the
// writers above.
func WriteFile(path string, t *Transcript, write func(io.Writer, *Transcript) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
