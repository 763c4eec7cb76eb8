package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

var writer io.Writer = os.Stdout

func SetWriter(w io.Writer) {
	writer = w
}

func GetWriter() io.Writer {
	return writer
}

type Format string

const (
	JSON Format = "json"
	Text Format = "text"
)

func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(format) {
	case "json":
		return JSON, nil
	case "text":
		return Text, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: json, text)", format)
	}
}

// Options selects the format and, for lists, the columns to print.
type Options struct {
	Format  Format
	Columns []string
}

func Print(data interface{}, opts Options) error {
	switch opts.Format {
	case JSON:
		return printJSON(data)
	case Text:
		return printText(data, opts.Columns)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func printJSON(data interface{}) error {
	prettyJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(writer, string(prettyJSON))
	return err
}

func printText(data interface{}, columns []string) error {
	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch v := data.(type) {
	case map[string]interface{}:
		// Lists nested under "data" are printed as a table after the scalar fields.
		rows, hasRows := v["data"].([]map[string]interface{})
		if err := printSingleTable(w, v); err != nil {
			return err
		}
		if hasRows {
			fmt.Fprintln(w)
			return printRowTable(w, rows, columns)
		}
	case []map[string]interface{}:
		return printRowTable(w, v, columns)
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
	return nil
}

func printSingleTable(w *tabwriter.Writer, data map[string]interface{}) error {
	fmt.Fprintln(w, "KEY\tVALUE")
	fmt.Fprintln(w, "---\t-----")

	keys := make([]string, 0, len(data))
	for k, v := range data {
		if _, isRows := v.([]map[string]interface{}); isRows {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, formatValue(data[k]))
	}
	return nil
}

func printRowTable(w *tabwriter.Writer, rows []map[string]interface{}, requestedColumns []string) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data available")
		return nil
	}

	columnOrder := requestedColumns
	if len(columnOrder) == 0 {
		for k := range rows[0] {
			columnOrder = append(columnOrder, k)
		}
		sort.Strings(columnOrder)
	}

	fmt.Fprintln(w, strings.Join(columnOrder, "\t"))
	fmt.Fprintln(w, strings.Repeat("---\t", len(columnOrder)))

	for _, row := range rows {
		values := make([]string, len(columnOrder))
		for i, header := range columnOrder {
			if val, exists := row[header]; exists {
				values[i] = formatValue(val)
			} else {
				values[i] = "-"
			}
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	return nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "-"
		}
		return val
	case float64:
		if float64(int64(val)) == val {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case []string:
		return strings.Join(val, ", ")
	case map[string]interface{}, []interface{}:
		b, _ := json.Marshal(val)
		return string(b)
	case nil:
		return "-"
	default:
		return fmt.Sprintf("%v", val)
	}
}
