package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nomis52/goexample/example"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatYAML, FormatJSON}
}

// Write encodes r to w in the named format. Colour applies to text only.
func Write(w io.Writer, r *Report, format string, colorize bool) error {
	switch format {
	case FormatText:
		return WriteTable(w, r, colorize)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteAll encodes several reports to w. JSON output is a single array,
// YAML output is a stream of documents and text output separates tables
// with a blank line.
func WriteAll(w io.Writer, reports []*Report, format string, colorize bool) error {
	if format == FormatJSON {
		if reports == nil {
			reports = []*Report{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encoding json reports: %w", err)
		}
		return nil
	}

	for i, r := range reports {
		if i > 0 {
			sep := "\n"
			if format == FormatYAML {
				sep = "---\n"
			}
			if _, err := io.WriteString(w, sep); err != nil {
				return err
			}
		}
		if err := Write(w, r, format, colorize); err != nil {
			return fmt.Errorf("writing report %s: %w", r.Suite, err)
		}
	}
	return nil
}

// WriteYAML encodes r as a YAML document.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding yaml report: %w", err)
	}
	return enc.Close()
}

// WriteJSON encodes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	return nil
}

// WriteTable renders r as a console table followed by a one line summary.
func WriteTable(w io.Writer, r *Report, colorize bool) error {
	bold := palette(colorize, color.Bold)
	if _, err := bold.Fprintf(w, "Suite: %s\n", r.Suite); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Example", "Status", "Given", "Duration", "Error"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	for _, e := range r.Examples {
		table.Append([]string{
			e.Name,
			statusLabel(e.Status, colorize),
			strings.Join(e.Given, ", "),
			fmt.Sprintf("%.1fms", e.DurationMs),
			e.Error,
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("%d examples", r.Summary.Total),
		"",
		"",
		fmt.Sprintf("%.1fms", r.Summary.DurationMs),
		"",
	})
	table.Render()

	_, err := fmt.Fprintf(w, "%d passed, %d failed, %d skipped\n",
		r.Summary.Passed, r.Summary.Failed, r.Summary.Skipped)
	return err
}

func statusLabel(s example.Status, colorize bool) string {
	switch s {
	case example.Passed:
		return palette(colorize, color.FgGreen).Sprint(s)
	case example.Failed:
		return palette(colorize, color.FgRed, color.Bold).Sprint(s)
	default:
		return palette(colorize, color.FgYellow).Sprint(s)
	}
}

func palette(colorize bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
