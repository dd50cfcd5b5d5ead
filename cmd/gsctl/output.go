package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codewiresh/gsapi/internal/terminal"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or yaml)", f)
}

// print writes v as JSON or YAML, or calls text for the text format.
func (a *app) print(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	switch a.output {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// printValue prints a single named value; text output is the bare value.
func (a *app) printValue(cmd *cobra.Command, key string, v any) error {
	return a.print(cmd, map[string]any{key: v}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, v)
		return err
	})
}

// printList prints items one per line in text mode.
func (a *app) printList(cmd *cobra.Command, key string, items []string) error {
	return a.print(cmd, map[string]any{key: items}, func(w io.Writer) error {
		for _, it := range items {
			if _, err := fmt.Fprintln(w, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// printDone reports a successful command that returns nothing.
func (a *app) printDone(cmd *cobra.Command, msg string) error {
	return a.print(cmd, map[string]any{"ok": true, "message": msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}

// table prints rows in columns, cut to the terminal width when stdout is one.
func table(w io.Writer, header []string, rows [][]string) error {
	return terminal.Table(w, terminal.Width(w), header, rows)
}
