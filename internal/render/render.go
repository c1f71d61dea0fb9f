// Package render writes a composed bracket scene as an HTML page or a standalone SVG.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/layout"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	strokeEmphasized = "#c41e3a"
	strokeMuted      = "#999"
)

var funcs = template.FuncMap{
	"coord":  coord,
	"score":  score,
	"stroke": stroke,
	"strokeWidth": func(c layout.Connector) string {
		if c.Emphasized {
			return "2"
		}
		return "1.3"
	},
	"winner": func(m bracket.Match, side int) bool {
		return m.Winner() == bracket.Side(side)
	},
	"tableNumber": func(n *int) string {
		if n == nil {
			return "-"
		}
		return strconv.Itoa(*n)
	},
}

var templates = template.Must(template.New("render").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))

// HTML writes the full bracket page.
func HTML(w io.Writer, v View) error {
	if err := templates.ExecuteTemplate(w, "page.html.tmpl", v); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// SVG writes the boxes and connectors as a standalone SVG document.
func SVG(w io.Writer, v View) error {
	if err := templates.ExecuteTemplate(w, "bracket.svg.tmpl", v); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func score(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func stroke(c layout.Connector) string {
	if c.Emphasized {
		return strokeEmphasized
	}
	return strokeMuted
}
