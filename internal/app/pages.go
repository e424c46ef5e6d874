package app

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/eddie-kay0462/iris/internal/view"
)

type section struct {
	Path  string
	Label string
}

// adminSections are the pages of the admin app shell. Each one is gated at
// the edge; the data behind them is gated again by the /api combinators.
var adminSections = []section{
	{Path: "/products", Label: "Products"},
	{Path: "/orders", Label: "Orders"},
	{Path: "/customers", Label: "Customers"},
	{Path: "/inventory", Label: "Inventory"},
	{Path: "/reports", Label: "Reports"},
	{Path: "/team", Label: "Team"},
	{Path: "/settings", Label: "Settings"},
}

type navData struct {
	Sections    []section
	CurrentPath string
}

type pages struct {
	logger    *slog.Logger
	templates *view.Engine
}

func (p pages) login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p.render(w, "pages/login.html", view.TemplateData{
		Title:       "Sign in",
		CurrentPath: r.URL.Path,
		RedirectTo:  localRedirect(q.Get("redirectTo")),
		Error:       q.Get("error"),
	})
}

// localRedirect returns target when it is a path on this host, else "".
// Browsers read a backslash as a slash, so "/\host" is as remote as "//host".
func localRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return target
}

func (p pages) section(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.render(w, "pages/section.html", view.TemplateData{
			Title:       title,
			CurrentPath: r.URL.Path,
			Data:        navData{Sections: adminSections, CurrentPath: r.URL.Path},
		})
	}
}

func (p pages) render(w http.ResponseWriter, name string, data view.TemplateData) {
	w.Header().Set("Cache-Control", "no-store")
	if err := p.templates.Render(w, name, data); err != nil {
		p.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
