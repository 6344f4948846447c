package reporting

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

//go:embed templates/report.html.tmpl
var reportTemplateContent string

//go:embed static/report.js
var reportJSContent []byte

// ScreenshotDirName is the asset subdirectory every screenshot reference is
// relative to, so the whole artifact directory relocates as a unit.
const ScreenshotDirName = "screenshots"

// HTMLSink renders the self-contained interactive document: one section per
// row, free text escaped against markup injection, screenshots as relative
// links, client-side status filtering with no server process required.
type HTMLSink struct {
	tmpl *template.Template
}

// NewHTMLSink parses the embedded report template.
func NewHTMLSink() (*HTMLSink, error) {
	tmpl, err := template.New("report").Parse(reportTemplateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &HTMLSink{tmpl: tmpl}, nil
}

// Write renders the document into outputDir as index.html plus its static
// assets, and ensures the screenshots directory exists alongside them.
func (s *HTMLSink) Write(outputDir string, data *ReportData) error {
	if err := os.MkdirAll(filepath.Join(outputDir, "static"), 0755); err != nil {
		return fmt.Errorf("failed to create static directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(outputDir, ScreenshotDirName), 0755); err != nil {
		return fmt.Errorf("failed to create screenshots directory: %w", err)
	}

	jsPath := filepath.Join(outputDir, "static", "report.js")
	if err := os.WriteFile(jsPath, reportJSContent, 0644); err != nil {
		return fmt.Errorf("failed to write report script: %w", err)
	}

	htmlPath := filepath.Join(outputDir, "index.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", htmlPath, err)
	}
	defer f.Close()

	if err := s.tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
