package commands

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// resultSet is a fully read query result.
type resultSet struct {
	cols []string
	rows [][]any
}

func readResults(rows *sql.Rows) (*resultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &resultSet{cols: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		for i, v := range values {
			// Convert []byte to string for readability
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.rows = append(rs.rows, values)
	}
	return rs, rows.Err()
}

func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	rs, err := readResults(rows)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return rs.renderJSON(w)
	case "csv":
		return rs.renderCSV(w)
	case "md", "markdown":
		rs.renderTable(w, true)
	default:
		rs.renderTable(w, false)
	}
	return nil
}

func (rs *resultSet) renderTable(w io.Writer, markdown bool) {
	if len(rs.rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(rs.cols))
	for i, col := range rs.cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, values := range rs.rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	if markdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.rows))
}

func (rs *resultSet) renderJSON(w io.Writer) error {
	objects := make([]map[string]any, 0, len(rs.rows))
	for _, values := range rs.rows {
		obj := make(map[string]any, len(rs.cols))
		for i, col := range rs.cols {
			obj[col] = values[i]
		}
		objects = append(objects, obj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objects)
}

func (rs *resultSet) renderCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.cols); err != nil {
		return err
	}
	for _, values := range rs.rows {
		record := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				record[i] = formatValue(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
