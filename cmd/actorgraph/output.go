package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// render writes v to stdout in the selected format. text is used for the
// text format and receives the same writer.
func render(v any, text func(w io.Writer) error) error {
	return renderTo(os.Stdout, outputFormat, v, text)
}

func renderTo(w io.Writer, format string, v any, text func(w io.Writer) error) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
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

// optYear formats an optional year, "?" when unknown
func optYear(v *int64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatInt(*v, 10)
}

func optText(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func lifespan(birth, death *int64) string {
	if death == nil {
		return fmt.Sprintf("b. %s", optYear(birth))
	}
	return fmt.Sprintf("%s-%s", optYear(birth), optYear(death))
}
