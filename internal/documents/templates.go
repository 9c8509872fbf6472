package documents

import "html/template"

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; color: #333; padding: 24px; line-height: 1.6; }
h1, h2 { color: {{.Accent}}; border-bottom: 2px solid {{.Accent}}; padding-bottom: 8px; }
h3 { color: {{.Accent}}; }
.box { background: #f5f3ff; padding: 15px; border-radius: 10px; white-space: pre-wrap; }
table.meta td { padding: 2px 12px 2px 0; vertical-align: top; }
footer { margin-top: 32px; font-size: 11px; color: #777; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table class="meta">
<tr><td><b>Case</b></td><td>#{{.Case.ID}}</td></tr>
<tr><td><b>Date</b></td><td>{{.Generated.Format "2006-01-02 15:04"}}</td></tr>
{{- if .Case.AssignedOffice}}
<tr><td><b>Office</b></td><td>{{.Case.AssignedOffice}}</td></tr>
{{- end}}
</table>
{{template "body" .}}
<footer>Generated {{.Generated.Format "2006-01-02 15:04 MST"}}</footer>
</body>
</html>{{end}}`

var bodies = map[string]string{
	"dossier": `{{define "body"}}
<table class="meta">
<tr><td><b>Reported</b></td><td>{{.Case.ReportedAt.Format "2006-01-02"}}</td></tr>
<tr><td><b>Victim</b></td><td>{{.Case.Victim.Name}}</td></tr>
<tr><td><b>Identification</b></td><td>{{.Case.Victim.IDNumber}}</td></tr>
{{- with .Case.Victim.Phone}}<tr><td><b>Phone</b></td><td>{{.}}</td></tr>{{end}}
{{- with .Case.Municipality}}<tr><td><b>Municipality</b></td><td>{{.}}</td></tr>{{end}}
<tr><td><b>Violence type</b></td><td>{{.Case.ViolenceType}}</td></tr>
{{- with .Case.RightInvolved}}<tr><td><b>Right involved</b></td><td>{{.}}</td></tr>{{end}}
<tr><td><b>Urgency</b></td><td>{{.Case.Urgency}}</td></tr>
{{- with .Case.Professional}}<tr><td><b>Attended by</b></td><td>{{.}}</td></tr>{{end}}
{{- with .Case.Reporter.Name}}<tr><td><b>Reported by</b></td><td>{{.}}</td></tr>{{end}}
</table>
<h3>Account of the events</h3>
<div class="box">{{.Case.ShortDescription}}</div>
{{- with .Case.ActionsTaken}}
<h3>Actions taken</h3>
<div class="box">{{.}}</div>
{{- end}}
{{- with .Case.Observations}}
<h3>Observations</h3>
<div class="box">{{.}}</div>
{{- end}}
{{end}}`,

	"analysis": `{{define "body"}}
{{- with index .Extra "requestedBy"}}<p><b>Requested by:</b> {{.}}</p>{{end}}
{{- with index .Extra "reason"}}
<h3>Reason for the request</h3>
<div class="box">{{.}}</div>
{{- end}}
<h3>Technical considerations</h3>
<div class="box">{{index .Extra "analysis"}}</div>
{{end}}`,

	"resolution": `{{define "body"}}
<p><b>Decision:</b> {{index .Extra "decision"}}</p>
<p><b>Previous office:</b> {{index .Extra "previousOffice"}}</p>
{{- with index .Extra "newOffice"}}<p><b>New office:</b> {{.}}</p>{{end}}
{{- with index .Extra "justification"}}
<h3>Justification</h3>
<div class="box">{{.}}</div>
{{- end}}
{{end}}`,

	"denial": `{{define "body"}}
{{- with index .Extra "requestedBy"}}<p><b>Requested by:</b> {{.}}</p>{{end}}
{{- with index .Extra "reason"}}
<h3>Closure request</h3>
<div class="box">{{.}}</div>
{{- end}}
<h3>Grounds for denial</h3>
<div class="box">{{index .Extra "justification"}}</div>
{{end}}`,

	"report": `{{define "body"}}
<p><b>Report {{index .Extra "slot"}}:</b> {{index .Extra "title"}}</p>
<p><b>Submitted by:</b> {{index .Extra "office"}}</p>
<div class="box">{{.Content}}</div>
{{end}}`,
}

func parseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for kind, body := range bodies {
		t := template.Must(template.New(kind).Parse(layout))
		out[kind] = template.Must(t.Parse(body))
	}
	return out
}
