package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/internal/search"
	"github.com/qualitylink/qldash/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	index    *template.Template
	provider *template.Template
}

type basePage struct {
	Theme  string
	Themes []string
}

type indexPage struct {
	basePage
	Search   search.State
	MinChars int
}

type providerPage struct {
	basePage
	View  dashboard.View
	Error string
}

var templateFuncs = template.FuncMap{
	"humanSize":     humanSize,
	"statusMessage": dashboard.StatusMessage,
}

func loadPages() (*pages, error) {
	parse := func(page string) (*template.Template, error) {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		return t, nil
	}

	index, err := parse("index.html")
	if err != nil {
		return nil, err
	}
	provider, err := parse("provider.html")
	if err != nil {
		return nil, err
	}
	return &pages{index: index, provider: provider}, nil
}

func (s *Server) basePage(c *fiber.Ctx) basePage {
	return basePage{
		Theme:  s.currentTheme(c),
		Themes: services.Themes,
	}
}

func (s *Server) render(c *fiber.Ctx, status int, t *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	c.Status(status).Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
