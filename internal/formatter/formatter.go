// package formatter renders projects and their outputs as Markdown, CSV or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatText     Format = "txt"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatMarkdown, FormatCSV, FormatText}

// ParseFormat accepts "md", "markdown", "csv", "txt" and "text". Empty means Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Filename returns a file name for p in format f, derived from the title.
func (f Format) Filename(p *models.Project) string {
	return slug(p.Title, p.ID) + "." + string(f)
}

// Export renders p in format f.
func Export(p *models.Project, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(p)
	case FormatText:
		return ExportToText(p)
	case FormatMarkdown:
		return ExportToMarkdown(p)
	}
	return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, f)
}

// ExportToMarkdown renders the project title, analysis and each output's effective content.
func ExportToMarkdown(p *models.Project) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Title)
	fmt.Fprintf(&buf, "**Status**: %s\n", p.Status)
	fmt.Fprintf(&buf, "**Created**: %s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "**Outputs**: %d\n\n", len(p.Outputs))

	a := p.Analysis()
	if len(a.Topics) > 0 || len(a.Takeaways) > 0 {
		buf.WriteString("## Analysis\n\n")
		if len(a.Topics) > 0 {
			fmt.Fprintf(&buf, "**Topics**: %s\n\n", strings.Join(a.Topics, ", "))
		}
		if a.NarrativeArc != "" {
			fmt.Fprintf(&buf, "%s\n\n", a.NarrativeArc)
		}
		for _, t := range a.Takeaways {
			fmt.Fprintf(&buf, "- %s\n", t)
		}
		if len(a.Takeaways) > 0 {
			buf.WriteString("\n")
		}
	}

	for _, o := range p.Outputs {
		fmt.Fprintf(&buf, "## %s\n\n", o.Platform.Label())
		if o.Failed() {
			fmt.Fprintf(&buf, "_Generation failed: %s_\n\n", o.ErrorMessage())
			continue
		}
		buf.WriteString(renderContent(o))
		buf.WriteString("\n\n")
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExportToCSV writes one row per output with columns: Platform, Label, State, Content, Error, Updated
func ExportToCSV(p *models.Project) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Platform", "Label", "State", "Content", "Error", "Updated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range p.Outputs {
		record := []string{
			string(o.Platform),
			o.Platform.Label(),
			OutputState(o),
			o.EffectiveContent(),
			o.ErrorMessage(),
			o.UpdatedAt.Format(time.RFC3339),
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

// ExportToText renders the project in plain text, one section per output.
func ExportToText(p *models.Project) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Project: %s\n", p.Title)
	fmt.Fprintf(&buf, "Status: %s\n", p.Status)
	fmt.Fprintf(&buf, "Outputs: %d\n", len(p.Outputs))

	for _, o := range p.Outputs {
		fmt.Fprintf(&buf, "\n=== %s ===\n", o.Platform.Label())
		if o.Failed() {
			fmt.Fprintf(&buf, "Generation failed: %s\n", o.ErrorMessage())
			continue
		}
		buf.WriteString(renderContent(o))
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// OutputState is "failed", "edited" or "generated".
func OutputState(o *models.Output) string {
	switch {
	case o.Failed():
		return "failed"
	case o.EditedContent != nil:
		return "edited"
	}
	return "generated"
}

// renderContent shows short-video scripts as readable text and everything else as-is.
func renderContent(o *models.Output) string {
	content := o.EffectiveContent()
	if o.Platform != models.PlatformShortVideo {
		return strings.TrimSpace(content)
	}

	script, err := models.ParseShortVideoScript(content)
	if err != nil {
		return strings.TrimSpace(content)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", script.Title)
	fmt.Fprintf(&b, "Hook: %s\n", script.Hook)
	for i, seg := range script.Script {
		fmt.Fprintf(&b, "%d. [%gs] %s", i+1, seg.Duration, seg.Text)
		if seg.VisualNote != "" {
			fmt.Fprintf(&b, " (%s)", seg.VisualNote)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "CTA: %s\n", script.CTA)
	fmt.Fprintf(&b, "Duration: %gs\n", script.TotalDuration)
	fmt.Fprintf(&b, "Description: %s\n", script.Description)
	if len(script.Hashtags) > 0 {
		fmt.Fprintf(&b, "Hashtags: %s", strings.Join(script.Hashtags, " "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// WriteExport writes p in format f to path, defaulting to [Format.Filename] in the working directory.
func WriteExport(p *models.Project, f Format, path string) (string, error) {
	if path == "" {
		path = f.Filename(p)
	}

	data, err := Export(p, f)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// ManifestEntry records one project of a bulk export.
type ManifestEntry struct {
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	File      string `json:"file,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Format     Format          `json:"format"`
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Entries    []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func slug(title, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return fallback
	}
	return s
}
