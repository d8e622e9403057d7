package report

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// markerPattern matches the citation markers the renderer rewrites into
// footnote links.
var markerPattern = regexp.MustCompile(`\[SOURCE_ID:(\d+)\]`)

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"cite":      citeLinks,
	"prioLabel": priorityLabel,
}).Parse(reportTemplate))

// renderHTML renders the report into one self-contained HTML document.
func renderHTML(rep *model.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, rep); err != nil {
		return nil, eris.Wrap(err, "report: render html")
	}
	return buf.Bytes(), nil
}

// citeLinks escapes the insight text and rewrites every [SOURCE_ID:k] marker
// into a footnote link targeting the source list.
func citeLinks(text string) template.HTML {
	var b strings.Builder
	last := 0
	for _, m := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(template.HTMLEscapeString(text[last:m[0]]))
		id := text[m[2]:m[3]]
		fmt.Fprintf(&b, `<sup><a class="cite" href="#source-%s">[%s]</a></sup>`, id, id)
		last = m[1]
	}
	b.WriteString(template.HTMLEscapeString(text[last:]))
	return template.HTML(b.String())
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityAlpha:
		return "alpha · high"
	case model.PriorityBeta:
		return "beta · medium"
	default:
		return "gamma · watch"
	}
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Pricing Intelligence Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 60rem; padding: 0 1rem; color: #1c1e21; }
h1 { border-bottom: 2px solid #1c1e21; padding-bottom: .3rem; }
h2 { margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: .35rem .6rem; text-align: left; vertical-align: top; }
th { background: #f0f1f3; }
.meta { color: #666; font-size: .9rem; }
.banner { background: #fdeaea; border: 1px solid #c0392b; color: #c0392b; padding: .6rem 1rem; margin: 1rem 0; }
.insight { border: 1px solid #ddd; border-left: 4px solid #888; margin: .6rem 0; padding: .5rem .8rem; }
.insight.alpha { border-left-color: #c0392b; }
.insight.beta { border-left-color: #d68910; }
.insight.gamma { border-left-color: #7f8c8d; }
.badge { display: inline-block; font-size: .75rem; padding: .1rem .45rem; border-radius: .6rem; background: #eef; margin-right: .4rem; }
.badge.redundant { background: #eee; color: #888; }
.cite { text-decoration: none; }
.summary { background: #f6f7f9; padding: .8rem 1rem; }
</style>
</head>
<body>
<h1>Pricing Intelligence Report</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
{{if .RunStats.LLMFailed}}<div class="banner">Insight synthesis failed; this report carries sources and vendor analytics only.</div>{{end}}

{{if .ExecutiveSummary}}
<h2>Executive Summary</h2>
<p class="summary">{{.ExecutiveSummary}}</p>
{{end}}

<h2>Insights</h2>
{{range .InsightsByPriority}}
<h3>{{prioLabel .Priority}}</h3>
{{range .Insights}}
<div class="insight {{.Priority}}">
<span class="badge">{{.Role}}</span><span class="badge">confidence: {{.Confidence}}</span>{{if .Redundant}}<span class="badge redundant">[REDUNDANT]</span>{{end}}
<p>{{cite .Text}}</p>
</div>
{{end}}
{{else}}
<p class="meta">No insights for this run.</p>
{{end}}

<h2>Sources</h2>
<table>
<tr><th>#</th><th>Title</th><th>Kind</th><th>Posted</th></tr>
{{range .Sources}}
<tr id="source-{{.SourceID}}"><td>{{.SourceID}}</td><td><a href="{{.URL}}">{{.Title}}</a></td><td>{{.SourceKind}}</td><td>{{.PostedAt.Format "2006-01-02 15:04"}}</td></tr>
{{end}}
</table>

<h2>Vendor Rollup</h2>
{{if .VendorRollup}}
<table>
<tr><th>Vendor</th><th>Tier</th><th>Mentions</th><th>Weighted</th></tr>
{{range .VendorRollup}}
<tr><td>{{.Vendor}}</td><td>{{.Tier}}</td><td>{{printf "%.1f" .Mentions}}</td><td>{{printf "%.1f" .Weighted}}</td></tr>
{{end}}
</table>
{{else}}
<p class="meta">No vendors detected.</p>
{{end}}

<h2>Run Stats</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
{{range $source, $count := .RunStats.ItemsFetchedPerSource}}
<tr><td>items fetched: {{$source}}</td><td>{{$count}}</td></tr>
{{end}}
<tr><td>items selected</td><td>{{.RunStats.ItemsSelected}}</td></tr>
<tr><td>LLM tokens used</td><td>{{.RunStats.LLMTokensUsed}}</td></tr>
{{if .RunStats.LLMDropped}}<tr><td>insights dropped by validation</td><td>{{.RunStats.LLMDropped}}</td></tr>{{end}}
{{if .RunStats.PatternWarnings}}<tr><td>pattern compile warnings</td><td>{{.RunStats.PatternWarnings}}</td></tr>{{end}}
<tr><td>duration</td><td>{{.RunStats.DurationMS}} ms</td></tr>
</table>
{{if .RunStats.PartialFailures}}
<h3>Partial failures</h3>
<table>
<tr><th>Source</th><th>Error</th></tr>
{{range .RunStats.PartialFailures}}
<tr><td>{{.Source}}</td><td>{{.Error}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`
