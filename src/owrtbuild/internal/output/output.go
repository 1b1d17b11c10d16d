// Package output renders command results to stdout: JSON for scripting,
// tabwriter tables for humans.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/db"
)

// PrintJSON writes data as indented JSON to stdout
func PrintJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintTable writes tabular data to stdout
func PrintTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// PrintRuns writes build runs as a table, in the order given
func PrintRuns(runs []*db.BuildRun) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			ShortID(run.ID),
			run.Profile,
			run.Target + "/" + run.Subtarget,
			run.Version,
			string(run.Status),
			strconv.Itoa(run.ArtifactCount),
			Timestamp(run.StartedAt.Local()),
			run.Duration().Round(time.Second).String(),
		})
	}

	PrintTable(
		[]string{"ID", "PROFILE", "TARGET", "VERSION", "STATUS", "IMAGES", "STARTED", "DURATION"},
		rows)
}

// ShortID truncates a run identifier for table display
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Timestamp renders a time for table display, "unknown" for the zero value
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}

// PrintMessage writes a plain message to stdout
func PrintMessage(msg string) {
	fmt.Println(msg)
}

// PrintError writes an error message to stderr
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
