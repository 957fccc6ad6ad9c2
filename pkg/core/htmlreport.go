package core

import (
	"fmt"
	"html/template"
	"strings"
)

var htmlReportTemplate = template.Must(template.New("html report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>scanalyzer report</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.file { margin-bottom: 30px; border: 1px solid #ddd; padding: 10px; border-radius: 5px; }
.file h2 { background: #f5f5f5; margin: -10px -10px 10px; padding: 10px; font-size: 1.1em; }
.finding { margin-bottom: 15px; padding-bottom: 15px; border-bottom: 1px solid #eee; }
.error { color: #d9534f; }
.warning { color: #f0ad4e; }
.info { color: #5bc0de; }
pre { background: #f8f8f8; padding: 6px; }
</style>
</head>
<body>
<h1>scanalyzer report</h1>
<div class="summary">
<p>Total findings: {{.Total}} ({{.Errors}} errors, {{.Warnings}} warnings, {{.Infos}} infos)</p>
</div>
{{range .Files}}<div class="file">
<h2>{{.Path}}</h2>
{{range .Findings}}<div class="finding">
<p><span class="{{.Severity}}">[{{.Severity}}]</span> Line {{.Line}}, column {{.Column}}: {{.Message}}</p>
<p>Rule: <code>{{.Type}}</code> ({{.Category}})</p>
{{if .Snippet}}<pre>{{.Snippet}}</pre>
{{end}}</div>
{{end}}</div>
{{end}}</body>
</html>
`))

type htmlReportFile struct {
	Path     string
	Findings []*TemplateFields
}

type htmlReport struct {
	Total    int
	Errors   int
	Warnings int
	Infos    int
	Files    []*htmlReportFile
}

// toHTML renders a standalone HTML page with the findings grouped by file.
// Files keep the order in which they first appear.
func toHTML(fields []*TemplateFields) (string, error) {
	report := &htmlReport{Total: len(fields)}
	files := map[string]*htmlReportFile{}
	for _, f := range fields {
		switch f.Severity {
		case "error":
			report.Errors++
		case "warning":
			report.Warnings++
		default:
			report.Infos++
		}
		file, ok := files[f.Filepath]
		if !ok {
			file = &htmlReportFile{Path: f.Filepath}
			files[f.Filepath] = file
			report.Files = append(report.Files, file)
		}
		file.Findings = append(file.Findings, f)
	}

	var b strings.Builder
	if err := htmlReportTemplate.Execute(&b, report); err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}
	return b.String(), nil
}
