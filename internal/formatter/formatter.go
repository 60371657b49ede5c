// package formatter exports clone task reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
)

// Format names a report encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat resolves a format name, falling back to the extension of path when name is empty.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	switch strings.ToLower(name) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, name)
	}
}

// ExportToCSV converts a progress record to CSV with one summary row followed by one row per error.
//
// Columns: Kind, TaskID, SourceID, Status, Completed, Total, Percentage, ResultID, ResultName, Message
func ExportToCSV(p *models.Progress) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "TaskID", "SourceID", "Status", "Completed", "Total", "Percentage", "ResultID", "ResultName", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	resultID, resultName := "", ""
	if p.Result != nil {
		resultID, resultName = p.Result.ID, p.Result.Name
	}

	summary := []string{
		"summary",
		p.TaskID,
		p.SourceID,
		string(p.Status),
		strconv.Itoa(p.Completed),
		strconv.Itoa(p.Total),
		strconv.FormatFloat(p.Percentage, 'f', 2, 64),
		resultID,
		resultName,
		"",
	}
	if err := writer.Write(summary); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}

	for _, msg := range p.Errors {
		record := []string{"error", p.TaskID, p.SourceID, "", "", "", "", "", "", msg}
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

// ExportToMarkdown converts a progress record to a Markdown report.
func ExportToMarkdown(p *models.Progress) ([]byte, error) {
	var buf bytes.Buffer

	title := p.SourceID
	if p.Result != nil {
		title = p.Result.Name
	}
	buf.WriteString(fmt.Sprintf("# Clone report: %s\n\n", title))

	buf.WriteString(fmt.Sprintf("**Task**: `%s`\n", p.TaskID))
	buf.WriteString(fmt.Sprintf("**Source**: `%s`\n", p.SourceID))
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", p.Status))
	buf.WriteString(fmt.Sprintf("**Items**: %d/%d (%.1f%%)\n", p.Completed, p.Total, p.Percentage))
	if p.Result != nil {
		buf.WriteString(fmt.Sprintf("**Copy**: %s (`%s`)\n", p.Result.Name, p.Result.ID))
	}
	if !p.CreatedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Started**: %s\n", p.CreatedAt.Format(time.RFC3339)))
		buf.WriteString(fmt.Sprintf("**Updated**: %s\n", p.UpdatedAt.Format(time.RFC3339)))
	}

	if len(p.Errors) > 0 {
		buf.WriteString(fmt.Sprintf("\n## Errors (%d)\n\n", len(p.Errors)))
		for i, msg := range p.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, msg))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a progress record to plain text.
func ExportToText(p *models.Progress) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Task: %s\n", p.TaskID))
	buf.WriteString(fmt.Sprintf("Source: %s\n", p.SourceID))
	buf.WriteString(fmt.Sprintf("Status: %s\n", p.Status))
	buf.WriteString(fmt.Sprintf("Items: %d/%d\n", p.Completed, p.Total))
	if p.Result != nil {
		buf.WriteString(fmt.Sprintf("Copy: %s (%s)\n", p.Result.Name, p.Result.ID))
	}

	if len(p.Errors) > 0 {
		buf.WriteString(fmt.Sprintf("\nErrors: %d\n", len(p.Errors)))
		for i, msg := range p.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, msg))
		}
	}

	return buf.Bytes(), nil
}

// Export encodes p in format.
func Export(p *models.Progress, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(p)
	case FormatMarkdown:
		return ExportToMarkdown(p)
	case FormatJSON:
		return shared.MarshalJSON(p, true)
	default:
		return ExportToText(p)
	}
}

// WriteReport writes p to path in format.
//
// Defaults to {task_id}_report.{format} in the working directory.
func WriteReport(p *models.Progress, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.%s", p.TaskID, format)
	}

	data, err := Export(p, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
