package httphandler

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/labstack/echo/v4"
)

const templatesDir = "templates"

// TemplateRenderer implements echo.Renderer for HTML template rendering.
type TemplateRenderer struct {
	templates *template.Template
	mu        sync.RWMutex
	logger    *slog.Logger
	devMode   bool
	fs        fs.FS
}

// TemplateRendererConfig holds configuration for the template renderer.
type TemplateRendererConfig struct {
	// FS holds the templates under a "templates" directory.
	FS fs.FS
	// Logger is the structured logger.
	Logger *slog.Logger
	// DevMode reparses the templates on each render.
	DevMode bool
}

// NewTemplateRenderer creates a new template renderer.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		logger:  cfg.Logger,
		devMode: cfg.DevMode,
		fs:      cfg.FS,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if err := r.loadTemplates(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TemplateRenderer) loadTemplates() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tmpl := template.New("").Funcs(TemplateFuncs())

	err := fs.WalkDir(r.fs, templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}

		content, readErr := fs.ReadFile(r.fs, path)
		if readErr != nil {
			return readErr
		}

		name := path[len(templatesDir)+1:]
		if _, parseErr := tmpl.New(name).Parse(string(content)); parseErr != nil {
			r.logger.Error("failed to parse template",
				slog.String("path", path),
				slog.String("error", parseErr.Error()))
			return parseErr
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	r.templates = tmpl
	return nil
}

// Render implements echo.Renderer.
func (r *TemplateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	if r.devMode {
		if err := r.loadTemplates(); err != nil {
			return err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}
