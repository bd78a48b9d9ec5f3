// Package views holds the embedded account templates and builds the django
// (pongo2) view engine used by fiber. Templates read the JSON form of the
// view data, e.g. model.redirectUri and blog.title.
package views

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	"github.com/gofiber/template/django/v3"
)

//go:embed themes errors partials
var FS embed.FS

type Options struct {
	// Dir overrides the embedded templates with a directory on disk
	Dir    string
	Reload bool
	Debug  bool
	// Functions are registered as template globals, e.g. account.TemplateHelpers()
	Functions map[string]any
}

// New returns the view engine over the embedded templates, or over
// opts.Dir when set.
func New(opts Options) *django.Engine {
	var fsys fs.FS = FS
	if opts.Dir != "" {
		fsys = os.DirFS(opts.Dir)
	}

	engine := django.NewFileSystem(http.FS(fsys), ".html")
	engine.Reload(opts.Reload)
	engine.Debug(opts.Debug)
	if len(opts.Functions) > 0 {
		engine.AddFuncMap(opts.Functions)
	}
	return engine
}

// Has reports whether a template exists, e.g. "themes/standard/login".
func Has(fsys fs.FS, name string) bool {
	_, err := fs.Stat(fsys, name+".html")
	return err == nil
}
