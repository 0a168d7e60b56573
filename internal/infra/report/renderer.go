// Package report renders analysis results as JSON, Markdown or HTML.
package report

import (
	"embed"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/osteele/liquid"

	"channel-insight-service/internal/domain"
)

//go:embed templates/*.liquid
var templateFS embed.FS

const (
	tplAnalysisMarkdown   = "analysis.md.liquid"
	tplAnalysisHTML       = "analysis.html.liquid"
	tplComparisonMarkdown = "comparison.md.liquid"
	tplComparisonHTML     = "comparison.html.liquid"
)

// Renderer implements domain.ReportRenderer. Templates are parsed once at
// construction; Renderer is safe for concurrent use.
type Renderer struct {
	templates map[string]*liquid.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	r := &Renderer{templates: map[string]*liquid.Template{}}
	for _, name := range []string{tplAnalysisMarkdown, tplAnalysisHTML, tplComparisonMarkdown, tplComparisonHTML} {
		src, err := templateFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}
		tpl, err := engine.ParseString(string(src))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tpl
	}

	return r, nil
}

func registerFilters(engine *liquid.Engine) {
	// Markdown table cells: {{ title | mdcell }}
	engine.RegisterFilter("mdcell", func(s string) string {
		s = strings.ReplaceAll(s, "|", "\\|")
		return strings.Join(strings.Fields(s), " ")
	})
}

// RenderAnalysis renders a channel analysis.
func (r *Renderer) RenderAnalysis(a *domain.ChannelAnalysis, format domain.ReportFormat) ([]byte, error) {
	if a == nil || a.Snapshot == nil {
		return nil, fmt.Errorf("render analysis: %w", domain.ErrInvalidSnapshot)
	}

	switch format {
	case domain.FormatJSON:
		return json.MarshalIndent(a, "", "  ")
	case domain.FormatMarkdown:
		return r.render(tplAnalysisMarkdown, analysisView(a))
	case domain.FormatHTML:
		return r.render(tplAnalysisHTML, analysisView(a))
	default:
		return nil, unsupported(format)
	}
}

// RenderComparison renders a comparison report.
func (r *Renderer) RenderComparison(c *domain.ComparisonReport, format domain.ReportFormat) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("render comparison: %w", domain.ErrInvalidSnapshot)
	}

	switch format {
	case domain.FormatJSON:
		return json.MarshalIndent(c, "", "  ")
	case domain.FormatMarkdown:
		return r.render(tplComparisonMarkdown, comparisonView(c))
	case domain.FormatHTML:
		return r.render(tplComparisonHTML, comparisonView(c))
	default:
		return nil, unsupported(format)
	}
}

func (r *Renderer) render(name string, bindings map[string]any) ([]byte, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not loaded", name)
	}
	out, err := tpl.Render(bindings)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return out, nil
}

func unsupported(format domain.ReportFormat) error {
	return fmt.Errorf("%w: %q", domain.ErrInvalidFormat, format)
}

// ContentType returns the MIME type for a rendered format.
func ContentType(format domain.ReportFormat) string {
	switch format {
	case domain.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case domain.FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}
