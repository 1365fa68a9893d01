package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"friendhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home", "video", "upload", "auth", "profile", "error"}

// Renderer 每个页面一份模板，共用 layout
type Renderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/cards.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render 先渲染到缓冲区，出错时不会写出半个页面
func (r *Renderer) Render(c *gin.Context, status int, page string, data any) {
	tmpl, ok := r.templates[page]
	if !ok {
		logger.Error("Unknown page template", zap.String("page", page))
		c.String(500, "服务器内部错误")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error("Render page failed", zap.String("page", page), zap.Error(err))
		c.String(500, "服务器内部错误")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
