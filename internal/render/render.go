package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"icsagenda/internal/agenda"
	"icsagenda/internal/model"
)

// Options controls the visual presentation of the rendered document.
// Suppressed blocks stay in the tree with a "hidden" class so a static
// document can be re-toggled locally without regenerating it; only empty
// description blocks are omitted entirely.
type Options struct {
	ShowSummary     bool
	ShowMeta        bool
	ShowDescription bool

	// Location is the display timezone for grouping and date headings.
	// Nil means the process-local timezone.
	Location *time.Location
}

const (
	headingLayout = "Monday, 2 January 2006 15:04"
	clockLayout   = "15:04"

	// unknownDate is the heading sentinel for events without a start.
	unknownDate = "Date unknown"
)

type documentView struct {
	Title  string
	Groups []groupView

	SummaryClass template.HTMLAttr
	MetaClass    template.HTMLAttr
	DescClass    template.HTMLAttr
}

type groupView struct {
	Key    string
	Events []eventView
}

type eventView struct {
	When        string
	Summary     string
	Location    string
	TimeRange   string
	Description string
}

var docTemplate = template.Must(template.New("agenda").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, "Times New Roman", serif; margin: 2rem auto; max-width: 46rem; color: #1a1a1a; }
h1 { font-size: 1.8rem; border-bottom: 2px solid #1a1a1a; padding-bottom: .4rem; }
section.month > h2 { font-size: 1.3rem; margin-top: 1.6rem; border-bottom: 1px solid #999; }
article.event { margin: .9rem 0 .9rem .6rem; }
article.event h3.when { font-size: 1rem; margin: 0; }
article.event p { margin: .15rem 0 .15rem 1rem; }
p.summary { font-weight: bold; }
p.meta { font-style: italic; color: #444; }
p.meta .range { margin-left: .6rem; }
p.description { white-space: pre-line; }
.hidden { display: none; }
@media print { body { margin: 0; max-width: none; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- range .Groups}}
<section class="month">
<h2>{{.Key}}</h2>
{{- range .Events}}
<article class="event">
<h3 class="when">{{.When}}</h3>
<p {{$.SummaryClass}}>{{.Summary}}</p>
<p {{$.MetaClass}}><span class="location">{{.Location}}</span><span class="range">{{.TimeRange}}</span></p>
{{- if .Description}}
<p {{$.DescClass}}>{{.Description}}</p>
{{- end}}
</article>
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

// Render produces the complete, self-contained HTML agenda document for an
// already-sorted event sequence. All feed- and user-supplied text passes
// through html/template's contextual escaping, so the five metacharacters
// & < > " ' never reach the output raw.
//
// The output is a pure function of its inputs: identical events and
// options render to byte-identical documents.
func Render(title string, events []model.Event, opts Options) (string, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	groups := agenda.GroupByMonth(events, loc)

	doc := documentView{
		Title:        title,
		Groups:       make([]groupView, 0, len(groups)),
		SummaryClass: blockClass("summary", opts.ShowSummary),
		MetaClass:    blockClass("meta", opts.ShowMeta),
		DescClass:    blockClass("description", opts.ShowDescription),
	}

	for _, g := range groups {
		gv := groupView{Key: g.Key, Events: make([]eventView, 0, len(g.Events))}
		for _, ev := range g.Events {
			gv.Events = append(gv.Events, eventView{
				When:        formatHeading(ev.Start, loc),
				Summary:     ev.Summary,
				Location:    ev.Location,
				TimeRange:   formatRange(ev.Start, ev.End, loc),
				Description: ev.Description,
			})
		}
		doc.Groups = append(doc.Groups, gv)
	}

	var out strings.Builder
	if err := docTemplate.Execute(&out, doc); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return out.String(), nil
}

// blockClass builds the class attribute for a toggleable block. The class
// names are fixed template skeleton, never user input.
func blockClass(name string, visible bool) template.HTMLAttr {
	if visible {
		return template.HTMLAttr(`class="` + name + `"`)
	}
	return template.HTMLAttr(`class="` + name + ` hidden"`)
}

func formatHeading(start *time.Time, loc *time.Location) string {
	if start == nil {
		return unknownDate
	}
	return start.In(loc).Format(headingLayout)
}

// formatRange renders "start – end" (en-dash) when both instants are
// present, a single side when only one is, and "" when neither is.
func formatRange(start, end *time.Time, loc *time.Location) string {
	switch {
	case start != nil && end != nil:
		return start.In(loc).Format(clockLayout) + " – " + end.In(loc).Format(clockLayout)
	case start != nil:
		return start.In(loc).Format(clockLayout)
	case end != nil:
		return end.In(loc).Format(clockLayout)
	default:
		return ""
	}
}
