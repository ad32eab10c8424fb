package template

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/ghaggin/storefront/internal/model"
)

//go:embed tmpl/*.html
var templateFS embed.FS

type Data struct {
	PageTitle string
	Path      string
	User      *model.Profile
	LoggedIn  bool
	Error     string
}

func Render(w http.ResponseWriter, _ *http.Request, tmpl string, td any) error {
	t, err := template.ParseFS(templateFS,
		"tmpl/"+tmpl,
		"tmpl/base.html",
	)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}

	err = t.Execute(buf, td)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}
