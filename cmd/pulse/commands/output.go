package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// tableFunc renders rows for --format table.
type tableFunc func(w io.Writer)

// output writes v to the command's stdout in the selected format. A nil
// table means the command has no table view and falls back to JSON.
func output(cmd *cobra.Command, v any, table tableFunc) error {
	w := cmd.OutOrStdout()

	switch outputFormat {
	case "jsonl":
		return outputJSONL(w, v)
	case "yaml":
		return outputYAML(w, v)
	case "table":
		if table != nil {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			table(tw)
			return tw.Flush()
		}
	}
	return outputJSON(w, v)
}

func outputJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// outputJSONL writes one line per slice element, or one line for anything else.
func outputJSONL(w io.Writer, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return writeLine(w, v)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := writeLine(w, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// outputYAML goes through JSON first so field names match the json tags.
func outputYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

// truncate shortens s to n runes for table cells.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
