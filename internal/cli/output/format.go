package output

import (
	"fmt"
	"strings"
)

// FormatHeader returns a markdown header.
func FormatHeader(level int, title string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + title
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// BuildSummary describes a finished build.
type BuildSummary struct {
	RunID  string   `json:"run_id"`
	Month  string   `json:"month"`
	Output string   `json:"output"`
	Rows   int      `json:"rows"`
	Sinks  []string `json:"sinks"`
}
