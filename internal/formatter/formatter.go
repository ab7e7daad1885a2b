// Package formatter renders movie listings and details as tables, CSV, Markdown and JSON.
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

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/goccy/go-json"
)

// Format names an output format.
type Format string

const (
	Table    Format = "table"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// ParseFormat accepts the format names and the "md" alias. An empty string means [Table].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return Table, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want table, csv, markdown or json)", shared.ErrInvalidFlag, s)
	}
}

// Extension is the file extension used when writing f to disk.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case JSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Marker decorates a movie row, e.g. with like and wishlist symbols.
type Marker func(id int64) string

func rating(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

// ListingToCSV writes one row per movie with columns ID, Title, Year, Rating, Genres, Language, Poster.
func ListingToCSV(items []models.MovieSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Rating", "Genres", "Language", "Poster"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range items {
		record := []string{
			strconv.FormatInt(m.ID, 10),
			m.Title,
			string(m.Year),
			rating(m.Rating),
			strings.Join(m.Genres, "; "),
			m.Language,
			m.PosterPath,
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

// ListingToMarkdown renders a titled, numbered list.
func ListingToMarkdown(title string, items []models.MovieSummary) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(items))

	for i, m := range items {
		var extra []string
		if m.Year != "" {
			extra = append(extra, string(m.Year))
		}
		if r := rating(m.Rating); r != "" {
			extra = append(extra, "★ "+r)
		}
		if len(m.Genres) > 0 {
			extra = append(extra, strings.Join(m.Genres, ", "))
		}

		line := fmt.Sprintf("%d. **%s**", i+1, m.Title)
		if len(extra) > 0 {
			line += " (" + strings.Join(extra, " · ") + ")"
		}
		buf.WriteString(line + "\n")
		if overview := strings.TrimSpace(m.Overview); overview != "" {
			fmt.Fprintf(&buf, "   %s\n", overview)
		}
	}
	return buf.Bytes()
}

// ListingToJSON renders the movies as an indented JSON array.
func ListingToJSON(items []models.MovieSummary) ([]byte, error) {
	if items == nil {
		items = []models.MovieSummary{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", err)
	}
	return append(data, '\n'), nil
}

// ListingToTable renders a bordered terminal table. When marker is set its output fills a leading column.
func ListingToTable(items []models.MovieSummary, marker Marker) string {
	headers := []string{"ID", "Title", "Year", "Rating", "Genres"}
	if marker != nil {
		headers = append([]string{""}, headers...)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)

	for _, m := range items {
		row := []string{strconv.FormatInt(m.ID, 10), truncate(m.Title, 40), string(m.Year), rating(m.Rating), truncate(strings.Join(m.Genres, ", "), 30)}
		if marker != nil {
			row = append([]string{marker(m.ID)}, row...)
		}
		t.Row(row...)
	}
	return t.Render()
}

// DetailsToText renders the details view as plain text.
func DetailsToText(d *models.MovieDetails) string {
	var b strings.Builder

	b.WriteString(d.Title + "\n")
	if d.Tagline != "" {
		fmt.Fprintf(&b, "%q\n", d.Tagline)
	}
	b.WriteString("\n")

	fields := [][2]string{
		{"Rating", rating(d.Rating)},
		{"Released", d.ReleaseDate},
		{"Runtime", d.FormatRuntime()},
		{"Language", strings.ToUpper(d.Language)},
		{"Status", d.Status},
		{"Genres", strings.Join(d.Genres, ", ")},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%-9s %s\n", f[0]+":", f[1])
	}

	if len(d.ProductionCompanies) > 0 {
		names := make([]string, len(d.ProductionCompanies))
		for i, c := range d.ProductionCompanies {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "%-9s %s\n", "Studios:", strings.Join(names, ", "))
	}

	if overview := strings.TrimSpace(d.Overview); overview != "" {
		b.WriteString("\n" + overview + "\n")
	}
	return b.String()
}

// Render writes items to w in format f.
func Render(w io.Writer, f Format, title string, items []models.MovieSummary, marker Marker) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case CSV:
		data, err = ListingToCSV(items)
	case Markdown:
		data = ListingToMarkdown(title, items)
	case JSON:
		data, err = ListingToJSON(items)
	default:
		data = []byte(ListingToTable(items, marker) + "\n")
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteExport writes items to path in format f, creating parent directories. It returns the path written.
func WriteExport(items []models.MovieSummary, f Format, title, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: export path", shared.ErrMissingArgument)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := Render(file, f, title, items, nil); err != nil {
		return "", err
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
