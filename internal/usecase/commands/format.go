package commands

import (
	"strings"
	"text/tabwriter"
	"time"
)

const timestampLayout = "2006-01-02 15:04"

// formatTable alinea columnas con tabwriter; header puede ser nil.
func formatTable(header []string, rows [][]string) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	if len(header) > 0 {
		w.Write([]byte(strings.Join(header, "\t") + "\n"))
	}
	for _, row := range rows {
		w.Write([]byte(strings.Join(row, "\t") + "\n"))
	}
	w.Flush()
	return sb.String()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timestampLayout)
}
