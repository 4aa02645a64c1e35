// Package cli provides shared plumbing for ambioctl commands: output
// formatting, spinners for long-running calls, and user-facing error
// presentation with semantic exit codes.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable renders a human-readable table.
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON renders raw JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML renders YAML.
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidateOutputFormat validates a format string, returning an error that
// lists the valid options.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// Render writes v in the requested format. The table case is delegated to
// renderTable, which each command supplies for its own resource shape.
func Render(w io.Writer, format OutputFormat, v any, renderTable func(io.Writer) error) error {
	switch format {
	case OutputFormatJSON:
		return RenderJSON(w, v)
	case OutputFormatYAML:
		return RenderYAML(w, v)
	default:
		return renderTable(w)
	}
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// RenderYAML writes v as YAML, round-tripping through JSON so that the
// output honors the same field names as the JSON format.
func RenderYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var intermediate any
	if err := json.Unmarshal(data, &intermediate); err != nil {
		return err
	}

	out, err := yaml.Marshal(intermediate)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
