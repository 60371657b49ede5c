package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
	th "github.com/desertthunder/dclone/internal/testing"
)

func sampleProgress() *models.Progress {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Progress{
		TaskID:     "task-1",
		SourceID:   "F",
		Status:     models.StatusCompleted,
		Total:      5,
		Completed:  4,
		Percentage: 80,
		Errors:     []string{"Error copying file b.txt: permission denied", "Error cloning folder S: gone, really"},
		Result:     &models.Result{ID: "new-1", Name: "Copy of Project"},
		CreatedAt:  created,
		UpdatedAt:  created.Add(time.Minute),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleProgress())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header, summary, and two error rows, got %d", len(records))
		}

		if records[0][0] != "Kind" || records[0][9] != "Message" {
			t.Errorf("unexpected headers %v", records[0])
		}
		summary := records[1]
		if summary[0] != "summary" || summary[3] != "completed" || summary[4] != "4" || summary[5] != "5" || summary[6] != "80.00" {
			t.Errorf("unexpected summary row %v", summary)
		}
		if summary[8] != "Copy of Project" {
			t.Errorf("expected result name, got %q", summary[8])
		}
		if records[3][9] != "Error cloning folder S: gone, really" {
			t.Errorf("expected comma-containing message to round trip, got %q", records[3][9])
		}
	})

	t.Run("ExportToCSV without result", func(t *testing.T) {
		p := &models.Progress{TaskID: "t", Status: models.StatusFailed}
		data, err := ExportToCSV(p)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 2 {
			t.Errorf("expected header and summary only, got:\n%s", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleProgress())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, s := range []string{
			"# Clone report: Copy of Project",
			"**Status**: completed",
			"**Items**: 4/5 (80.0%)",
			"## Errors (2)",
			"1. Error copying file b.txt",
			"**Started**: 2025-03-01T12:00:00Z",
		} {
			if !strings.Contains(output, s) {
				t.Errorf("Markdown missing %q:\n%s", s, output)
			}
		}
	})

	t.Run("ExportToMarkdown without errors", func(t *testing.T) {
		p := sampleProgress()
		p.Errors = nil
		p.Result = nil

		data, _ := ExportToMarkdown(p)
		output := string(data)
		if strings.Contains(output, "## Errors") {
			t.Error("did not expect an errors section")
		}
		if !strings.Contains(output, "# Clone report: F") {
			t.Errorf("expected source id title:\n%s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleProgress())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, s := range []string{"Task: task-1", "Items: 4/5", "Copy: Copy of Project (new-1)", "Errors: 2"} {
			if !strings.Contains(output, s) {
				t.Errorf("text missing %q:\n%s", s, output)
			}
		}
	})

	t.Run("Export JSON", func(t *testing.T) {
		data, err := Export(sampleProgress(), FormatJSON)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var p models.Progress
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if p.TaskID != "task-1" || len(p.Errors) != 2 {
			t.Errorf("unexpected decoded record %+v", p)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name, path string
		want       Format
		wantErr    bool
	}{
		{"csv", "", FormatCSV, false},
		{"", "out/report.md", FormatMarkdown, false},
		{"markdown", "", FormatMarkdown, false},
		{"", "report.json", FormatJSON, false},
		{"", "report", FormatText, false},
		{"TXT", "", FormatText, false},
		{"xml", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"|"+tt.path, func(t *testing.T) {
			got, err := ParseFormat(tt.name, tt.path)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q, %q) = %q, %v; want %q", tt.name, tt.path, got, err, tt.want)
			}
		})
	}
}

func TestWriteReport(t *testing.T) {
	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "report.md")

		written, err := WriteReport(sampleProgress(), FormatMarkdown, path)
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# Clone report") {
			t.Errorf("unexpected content:\n%s", content)
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		written, err := WriteReport(sampleProgress(), FormatCSV, "")
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if written != "task-1_report.csv" {
			t.Errorf("unexpected default path %s", written)
		}
		th.AssertFileExists(t, written)
	})
}
