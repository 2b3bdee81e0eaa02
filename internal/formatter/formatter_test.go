package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/shared"
	th "github.com/desertthunder/ridex/internal/testing"
)

func sampleRuns() []*models.Run {
	created := time.Date(2021, 5, 12, 8, 30, 0, 0, time.UTC)
	return []*models.Run{
		{
			ID: "run-1", Sequence: 1, Action: "update_activities", Endpoint: "/get_new_activities",
			URL: "http://localhost:8090/get_new_activities", Outcome: models.Succeeded,
			StatusCode: 200, Duration: 420 * time.Millisecond, CreatedAt: created,
		},
		{
			ID: "run-2", Sequence: 2, Action: "predict", Endpoint: "/get_prediction",
			Outcome: models.Refused, CreatedAt: created.Add(time.Minute),
		},
		{
			ID: "run-3", Sequence: 3, Action: "train_models", Endpoint: "/train_models",
			URL: "http://localhost:8090/train_models", Outcome: models.Failed, StatusCode: 500,
			Duration: 1500 * time.Millisecond, Error: "API request failed: status 500", CreatedAt: created.Add(2 * time.Minute),
		},
	}
}

func TestFormatPrediction(t *testing.T) {
	tests := []struct {
		name  string
		input models.Prediction
		label string
		want  string
	}{
		{"decimal speed", models.Prediction{Hours: 1, Minutes: 23, Seconds: 45, AvgSpeedKmh: 18.2}, "Vitesse", "1h23min45s , Vitesse : 18.2km/h"},
		{"integral speed", models.Prediction{Hours: 0, Minutes: 5, Seconds: 0, AvgSpeedKmh: 20}, "Vitesse", "0h5min0s , Vitesse : 20km/h"},
		{"english label", models.Prediction{Hours: 2, Minutes: 0, Seconds: 9, AvgSpeedKmh: 27.35}, "Speed", "2h0min9s , Speed : 27.35km/h"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatPrediction(tc.input, tc.label); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0ms"},
		{420 * time.Millisecond, "420ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
	}
	for _, tc := range tests {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestHistoryExporters(t *testing.T) {
	runs := sampleRuns()

	t.Run("CSV", func(t *testing.T) {
		data, err := HistoryToCSV(runs)
		if err != nil {
			t.Fatalf("HistoryToCSV failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "Sequence,ID,Action,Endpoint,URL,Outcome,Status,DurationMs,Error,CreatedAt\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,run-1,update_activities,/get_new_activities,http://localhost:8090/get_new_activities,succeeded,200,420,,2021-05-12T08:30:00Z") {
			t.Errorf("CSV missing first run, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 4 {
			t.Errorf("expected 4 lines, got %d", lines)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := HistoryToMarkdown(runs)
		if err != nil {
			t.Fatalf("HistoryToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Request history",
			"**Requests**: 3",
			"**succeeded**: 1",
			"**refused**: 1",
			"| 3 | train_models | `/train_models` | failed | 500 | 1.5s | 2021-05-12 08:32:00 |",
			"| 2 | predict | `/get_prediction` | refused | - | 0ms |",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "**empty**") {
			t.Error("markdown should skip outcomes with no runs")
		}
	})

	t.Run("Markdown without runs", func(t *testing.T) {
		data, _ := HistoryToMarkdown(nil)
		if strings.Contains(string(data), "| # |") {
			t.Error("expected no table for an empty history")
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, err := HistoryToText(runs)
		if err != nil {
			t.Fatalf("HistoryToText failed: %v", err)
		}
		output := string(data)
		if !strings.Contains(output, "Requests: 3") {
			t.Errorf("text missing count, got: %s", output)
		}
		if !strings.Contains(output, "3. 2021-05-12 08:32:00 train_models failed (500, 1.5s): API request failed: status 500\n") {
			t.Errorf("text missing failed run, got: %s", output)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := HistoryToJSON(runs)
		if err != nil {
			t.Fatalf("HistoryToJSON failed: %v", err)
		}
		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 3 || decoded[2]["outcome"] != "failed" || decoded[0]["duration_ms"] != float64(420) {
			t.Errorf("unexpected JSON %s", data)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := ExportHistory(runs, "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("WriteHistoryExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "history.csv")
		written, err := WriteHistoryExport(runs, "CSV", path)
		if err != nil {
			t.Fatalf("WriteHistoryExport failed: %v", err)
		}
		th.AssertFileExists(t, written)
		if content := th.MustReadFile(t, written); !strings.Contains(content, "run-3") {
			t.Errorf("export missing run-3, got %s", content)
		}
	})
}

func TestMapPage(t *testing.T) {
	t.Run("embeds fragments verbatim", func(t *testing.T) {
		data, err := MapPage("Route <7>",
			MapSection{Title: "Carte", Body: `<svg id="map"></svg>`},
			MapSection{Title: "Segmentation", Body: ""},
		)
		if err != nil {
			t.Fatalf("MapPage failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, `<svg id="map"></svg>`) {
			t.Errorf("fragment was escaped: %s", output)
		}
		if !strings.Contains(output, "<title>Route &lt;7&gt;</title>") {
			t.Errorf("title was not escaped: %s", output)
		}
		if strings.Contains(output, "Segmentation") {
			t.Error("empty sections should be skipped")
		}
	})

	t.Run("WriteMapPage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "maps", "route.html")
		written, err := WriteMapPage(path, "Route 1", MapSection{Title: "Carte", Body: "<div>map</div>"})
		if err != nil {
			t.Fatalf("WriteMapPage failed: %v", err)
		}
		if !filepath.IsAbs(written) {
			t.Errorf("expected absolute path, got %s", written)
		}
		th.AssertFileExists(t, written)
	})

	t.Run("MapSummary", func(t *testing.T) {
		if got := MapSummary("carte chargée", "<svg/>"); got != "carte chargée (6 octets)" {
			t.Errorf("unexpected summary %q", got)
		}
		if got := MapSummary("carte chargée", ""); got != "" {
			t.Errorf("expected empty summary, got %q", got)
		}
	})
}

func TestWriteMapManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_manifest.json")
	result := &models.MapExportResult{
		TotalRoutes: 2, Successful: 1, Failed: 1, OutputDirectory: "maps",
		Results: []models.RouteMapResult{
			{RouteID: "1", RouteName: "Col", Success: true, Files: []string{"maps/1.html"}},
			{RouteID: "2", RouteName: "Plaine", Error: "timeout"},
		},
	}
	if err := WriteMapManifest(result, path); err != nil {
		t.Fatalf("WriteMapManifest failed: %v", err)
	}

	var decoded models.MapExportResult
	if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
		t.Fatalf("invalid manifest: %v", err)
	}
	if decoded.TotalRoutes != 2 || len(decoded.Results) != 2 || decoded.Results[1].Error != "timeout" {
		t.Errorf("unexpected manifest %+v", decoded)
	}
}

func TestCountOutcomes(t *testing.T) {
	counts := CountOutcomes(sampleRuns())

	want := map[models.Outcome]int{models.Succeeded: 1, models.Refused: 1, models.Failed: 1}
	for o, n := range want {
		if counts[o] != n {
			t.Errorf("%s: expected %d, got %d", o, n, counts[o])
		}
	}
	if counts[models.Empty] != 0 {
		t.Errorf("expected no empty runs, got %d", counts[models.Empty])
	}
	if len(CountOutcomes(nil)) != 0 {
		t.Error("expected no counts for no runs")
	}
}
