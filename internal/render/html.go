package render

import (
	"bytes"
	_ "embed"
	"html/template"
	"time"

	"github.com/pkg/errors"

	"github.com/ryanckelly/farmhand/internal/atomicfile"
	"github.com/ryanckelly/farmhand/internal/diary"
)

//go:embed dashboard.html.tmpl
var dashboardTmpl string

var htmlTemplate = template.Must(template.New("dashboard").
	Funcs(template.FuncMap{
		"gold":       formatNumber,
		"mulPercent": func(f float64) float64 { return f * 100 },
	}).
	Parse(dashboardTmpl))

type htmlData struct {
	Generated time.Time
	Dashboard *Dashboard
	Recent    []diary.Entry
	Momentum  Momentum
}

// WriteHTML renders the dashboard as a self-contained static page and
// atomically replaces the file at path.
func (d *Dashboard) WriteHTML(path string) error {
	recent := d.Entries
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	// Newest first for the session list.
	reversed := make([]diary.Entry, len(recent))
	for i, e := range recent {
		reversed[len(recent)-1-i] = e
	}

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, htmlData{
		Generated: time.Now(),
		Dashboard: d,
		Recent:    reversed,
		Momentum:  AnalyzeMomentum(d.Entries, 7),
	})
	if err != nil {
		return errors.Wrap(err, "render dashboard html")
	}
	return atomicfile.Write(path, buf.Bytes())
}
