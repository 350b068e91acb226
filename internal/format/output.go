package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tabler is implemented by values that know how to lay themselves out as rows.
type Tabler interface {
	TableHeaders() []string
	TableRows() [][]string
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - table
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "table":
		return WriteTable(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteTable renders v as a bordered table.
//
// A `{"data": ..., "_hints": [...]}` envelope is unwrapped: the data becomes the table and
// hints are printed underneath. Values that are not a Tabler are rendered as KEY/VALUE rows
// (objects) or a single VALUE column (arrays), going through JSON so json tags apply.
func WriteTable(w io.Writer, v any) error {
	var hints []string
	if env, ok := v.(map[string]any); ok {
		if d, ok := env["data"]; ok {
			v = d
			if hs, ok := env["_hints"].([]string); ok {
				hints = hs
			}
		}
	}

	headers, rows, err := tableRows(v)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	for _, h := range hints {
		if _, err := fmt.Fprintf(w, "hint: %s\n", h); err != nil {
			return err
		}
	}
	return nil
}

func tableRows(v any) ([]string, [][]string, error) {
	if t, ok := v.(Tabler); ok {
		return t.TableHeaders(), t.TableRows(), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return nil, nil, err
	}

	switch vv := x.(type) {
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, cell(vv[k])})
		}
		return []string{"KEY", "VALUE"}, rows, nil
	case []any:
		rows := make([][]string, 0, len(vv))
		for _, e := range vv {
			rows = append(rows, []string{cell(e)})
		}
		return []string{"VALUE"}, rows, nil
	default:
		return []string{"VALUE"}, [][]string{{cell(vv)}}, nil
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
