// package formatter renders track results and history in table, JSON, CSV, and Markdown form
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat accepts a format name; "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Extension is the file extension used when a format is written to disk.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// TracksToCSV converts tracks to CSV with columns: #, Title, Duration, Views, Published, Channel, Video ID, URL
func TracksToCSV(tracks []models.TrackResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"#", "Title", "Duration", "Views", "Published", "Channel", "Video ID", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Title,
			track.Duration,
			track.ViewCount,
			track.PublishedTime,
			track.ChannelName,
			track.VideoID,
			track.URL(),
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

// TracksToMarkdown renders tracks as a numbered list under heading.
func TracksToMarkdown(tracks []models.TrackResult, heading string) []byte {
	var buf bytes.Buffer

	if heading != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", heading))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, track := range tracks {
		title := escapeMarkdown(track.Title)
		if u := track.URL(); u != "" {
			title = fmt.Sprintf("[%s](%s)", title, u)
		}
		buf.WriteString(fmt.Sprintf("%d. %s", i+1, title))
		if sub := track.Subtitle(); sub != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", sub))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// TracksToTable renders tracks as a rounded terminal table.
func TracksToTable(tracks []models.TrackResult) string {
	rows := make([][]string, 0, len(tracks))
	for i, track := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			truncate(track.Title, 60),
			track.Duration,
			track.ViewCount,
			track.PublishedTime,
			track.VideoID,
		})
	}

	return renderTable(
		[]string{"#", "Title", "Duration", "Views", "Published", "Video ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

// WriteTracks writes tracks to w in the given format.
func WriteTracks(w io.Writer, tracks []models.TrackResult, format Format) error {
	var data []byte
	switch format {
	case FormatJSON:
		b, err := shared.MarshalJSON(tracks, true)
		if err != nil {
			return fmt.Errorf("failed to marshal tracks: %w", err)
		}
		data = append(b, '\n')
	case FormatCSV:
		b, err := TracksToCSV(tracks)
		if err != nil {
			return err
		}
		data = b
	case FormatMarkdown:
		data = TracksToMarkdown(tracks, "Recommendations")
	default:
		if len(tracks) == 0 {
			data = []byte("no results\n")
		} else {
			data = []byte(TracksToTable(tracks) + "\n")
		}
	}

	_, err := w.Write(data)
	return err
}

// WriteTracksFile writes tracks to path, creating the parent directory.
//
// The format's extension is appended when path has none.
func WriteTracksFile(tracks []models.TrackResult, format Format, path string) (string, error) {
	if filepath.Ext(path) == "" {
		path += format.Extension()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteTracks(&buf, tracks, format); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
