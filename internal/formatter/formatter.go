// package formatter renders predictions, request history and map pages
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/shared"
)

// Export formats accepted by [ExportHistory].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists the accepted history formats.
var Formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// FormatPrediction renders a predicted ride time the way the dashboard shows it:
// "1h23min45s , Vitesse : 18.2km/h".
func FormatPrediction(p models.Prediction, speedLabel string) string {
	return fmt.Sprintf("%dh%dmin%ds , %s : %skm/h",
		p.Hours, p.Minutes, p.Seconds, speedLabel, FormatSpeed(p.AvgSpeedKmh))
}

// FormatSpeed prints a speed with the shortest exact representation (18.2, 20).
func FormatSpeed(kmh float64) string {
	return strconv.FormatFloat(kmh, 'f', -1, 64)
}

// FormatDuration renders a request duration in milliseconds below one second.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// HistoryToCSV converts runs to CSV with columns: Sequence, ID, Action, Endpoint, URL, Outcome, Status, DurationMs, Error, CreatedAt
func HistoryToCSV(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "ID", "Action", "Endpoint", "URL", "Outcome", "Status", "DurationMs", "Error", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		record := []string{
			strconv.Itoa(run.Sequence),
			run.ID,
			run.Action,
			run.Endpoint,
			run.URL,
			run.Outcome.String(),
			strconv.Itoa(run.StatusCode),
			strconv.FormatInt(run.Duration.Milliseconds(), 10),
			run.Error,
			run.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// HistoryToMarkdown renders runs as a Markdown table preceded by an outcome summary.
func HistoryToMarkdown(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Request history\n\n")
	fmt.Fprintf(&buf, "**Requests**: %d\n", len(runs))
	counts := CountOutcomes(runs)
	for _, o := range []models.Outcome{models.Succeeded, models.Empty, models.Failed, models.Refused} {
		if n := counts[o]; n > 0 {
			fmt.Fprintf(&buf, "**%s**: %d\n", o, n)
		}
	}
	buf.WriteString("\n")

	if len(runs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Action | Endpoint | Outcome | Status | Duration | Date |\n")
	buf.WriteString("|---|--------|----------|---------|--------|----------|------|\n")
	for _, run := range runs {
		fmt.Fprintf(&buf, "| %d | %s | `%s` | %s | %s | %s | %s |\n",
			run.Sequence,
			run.Action,
			run.Endpoint,
			run.Outcome,
			statusText(run.StatusCode),
			FormatDuration(run.Duration),
			run.CreatedAt.UTC().Format(time.DateTime),
		)
	}
	return buf.Bytes(), nil
}

// HistoryToText renders one line per run.
func HistoryToText(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Requests: %d\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(&buf, "%d. %s %s %s (%s, %s)",
			run.Sequence, run.CreatedAt.UTC().Format(time.DateTime), run.Action, run.Outcome,
			statusText(run.StatusCode), FormatDuration(run.Duration))
		if run.Error != "" {
			fmt.Fprintf(&buf, ": %s", run.Error)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

type runJSON struct {
	ID         string `json:"id"`
	Sequence   int    `json:"sequence"`
	Action     string `json:"action"`
	Endpoint   string `json:"endpoint"`
	URL        string `json:"url,omitempty"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// HistoryToJSON renders runs as an indented JSON array.
func HistoryToJSON(runs []*models.Run) ([]byte, error) {
	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runJSON{
			ID:         run.ID,
			Sequence:   run.Sequence,
			Action:     run.Action,
			Endpoint:   run.Endpoint,
			URL:        run.URL,
			Outcome:    run.Outcome.String(),
			StatusCode: run.StatusCode,
			DurationMs: run.Duration.Milliseconds(),
			Error:      run.Error,
			CreatedAt:  run.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// ExportHistory renders runs in format.
func ExportHistory(runs []*models.Run, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return HistoryToCSV(runs)
	case FormatMarkdown, "md":
		return HistoryToMarkdown(runs)
	case FormatText, "text":
		return HistoryToText(runs)
	case FormatJSON, "":
		return HistoryToJSON(runs)
	default:
		return nil, fmt.Errorf("%w: format %q (expected one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// WriteHistoryExport writes runs to path in format, creating parent directories.
func WriteHistoryExport(runs []*models.Run, format, path string) (string, error) {
	data, err := ExportHistory(runs, format)
	if err != nil {
		return "", err
	}
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteMapManifest writes the JSON summary of a bulk map export.
func WriteMapManifest(result *models.MapExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CountOutcomes returns how many of runs ended with each outcome.
func CountOutcomes(runs []*models.Run) map[models.Outcome]int {
	counts := make(map[models.Outcome]int)
	for _, run := range runs {
		counts[run.Outcome]++
	}
	return counts
}

func statusText(code int) string {
	if code == 0 {
		return "-"
	}
	return strconv.Itoa(code)
}
