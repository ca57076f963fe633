// package formatter exports transcripts to various formats (plain text, Markdown, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/scribeworks/scribe/internal/services"
)

// FormatDuration renders seconds as m:ss (or h:mm:ss past an hour).
func FormatDuration(seconds int) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// formatTimestamp renders a segment offset as mm:ss.
func formatTimestamp(seconds float64) string {
	whole := int(seconds)
	return fmt.Sprintf("%02d:%02d", whole/60, whole%60)
}

// ExportToText converts a transcript to plain text. Segmented transcripts get
// one timestamped line per segment; otherwise the raw text is used.
func ExportToText(t *services.Transcript) []byte {
	var buf bytes.Buffer

	if len(t.Segments) == 0 {
		buf.WriteString(t.Text)
		if t.Text != "" && t.Text[len(t.Text)-1] != '\n' {
			buf.WriteByte('\n')
		}
		return buf.Bytes()
	}

	for _, segment := range t.Segments {
		if segment.Speaker != "" {
			buf.WriteString(fmt.Sprintf("[%s] %s: %s\n", formatTimestamp(segment.Start), segment.Speaker, segment.Text))
		} else {
			buf.WriteString(fmt.Sprintf("[%s] %s\n", formatTimestamp(segment.Start), segment.Text))
		}
	}

	return buf.Bytes()
}

// ExportToMarkdown converts a transcript to a Markdown document.
func ExportToMarkdown(t *services.Transcript) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", t.Title))

	buf.WriteString(fmt.Sprintf("- Status: %s\n", t.Status))
	if t.Language != "" {
		buf.WriteString(fmt.Sprintf("- Language: %s\n", t.Language))
	}
	if t.DurationSecs > 0 {
		buf.WriteString(fmt.Sprintf("- Duration: %s\n", FormatDuration(t.DurationSecs)))
	}
	buf.WriteString("\n")

	if len(t.Segments) == 0 {
		buf.WriteString(t.Text)
		buf.WriteString("\n")
		return buf.Bytes()
	}

	for _, segment := range t.Segments {
		speaker := segment.Speaker
		if speaker == "" {
			speaker = "Speaker"
		}
		buf.WriteString(fmt.Sprintf("**%s** (%s): %s\n\n", speaker, formatTimestamp(segment.Start), segment.Text))
	}

	return buf.Bytes()
}

// ExportToCSV converts a transcript's segments to CSV with columns: Start, End, Speaker, Text
func ExportToCSV(t *services.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Start", "End", "Speaker", "Text"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, segment := range t.Segments {
		record := []string{
			strconv.FormatFloat(segment.Start, 'f', 2, 64),
			strconv.FormatFloat(segment.End, 'f', 2, 64),
			segment.Speaker,
			segment.Text,
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

// Export renders a transcript in the named format: "text", "markdown", or "csv".
func Export(t *services.Transcript, format string) ([]byte, error) {
	switch format {
	case "text", "txt", "":
		return ExportToText(t), nil
	case "markdown", "md":
		return ExportToMarkdown(t), nil
	case "csv":
		return ExportToCSV(t)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteExport renders a transcript and writes it to the given path.
func WriteExport(t *services.Transcript, format, path string) error {
	data, err := Export(t, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}
