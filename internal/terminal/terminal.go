// Package terminal sizes CLI output to the attached terminal.
package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// DefaultWidth is assumed when the width cannot be queried.
const DefaultWidth = 80

// IsTerminal reports whether w is a terminal device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Width returns the column count of w, or 0 when w is not a terminal.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !IsTerminal(w) {
		return 0
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return DefaultWidth
	}
	return cols
}

// Table writes rows as left-aligned columns under an optional header. When
// maxWidth is positive, cells are cut so the table fits in it.
func Table(w io.Writer, maxWidth int, header []string, rows [][]string) error {
	cols := len(header)
	for _, row := range rows {
		cols = max(cols, len(row))
	}

	opts := []tablewriter.Option{
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Top: tw.Off, Right: tw.Off, Bottom: tw.Off},
		}),
		tablewriter.WithAlignment(tw.MakeAlign(cols, tw.AlignLeft)),
	}
	if len(header) > 0 {
		opts = append(opts, tablewriter.WithHeader(header))
	}
	if maxWidth > 0 {
		opts = append(opts,
			tablewriter.WithMaxWidth(maxWidth),
			tablewriter.WithRowAutoWrap(tw.WrapTruncate),
		)
	}

	table := tablewriter.NewWriter(w)
	table.Options(opts...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}
