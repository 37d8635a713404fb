package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/microcosm-cc/bluemonday"
)

const bodyTemplates = `
{{define "vendor"}}<div style="font-family: Arial, sans-serif; font-size: 14px;">
<p>Olá, {{.Greeting}},</p>
<div style="margin-left: 35px;">
<p>Destacamos os chamados abaixo que estão <strong>fora do prazo de SLA</strong> acordado.<br>
Solicitamos prioridade na resolução.</p>
<table style="border-collapse: collapse;">
<thead><tr><th style="text-align: left;">Protocolo</th><th style="text-align: left;">Resumo</th><th style="text-align: center;">SLA</th><th style="text-align: center;">Dias Atraso</th></tr></thead>
<tbody>
{{range .Items}}<tr><td style="text-align: left;">{{.Protocol}}</td><td style="text-align: left;">{{.Summary}}</td><td style="text-align: center;">{{date .Deadline}}</td><td style="text-align: center;">{{.DaysOverdue}}</td></tr>
{{end}}</tbody>
</table>
</div>
<p>Atenciosamente,<br>Gestão de Contratos</p>
</div>{{end}}
{{define "internal"}}<div style="font-family: Arial, sans-serif; font-size: 14px;">
<p>Olá, <span>@{{.Greeting}}</span></p>
<div style="margin-left: 35px;">
<p>Os chamados abaixo constam como <strong>"Aguardando Homologação"</strong>.<br>
Por favor, valide a entrega para concluirmos o processo.</p>
<p><strong>Pendentes:</strong></p>
<table style="border-collapse: collapse;">
<tbody>
{{range .Items}}<tr><td style="text-align: left;">{{.Protocol}}</td><td style="text-align: left;">{{.Summary}}</td></tr>
{{end}}</tbody>
</table>
</div>
<p>Atenciosamente,<br>Bot de Automação</p>
</div>{{end}}`

var (
	templates = template.Must(template.New("email").Funcs(template.FuncMap{
		"date": formatDeadline,
	}).Parse(bodyTemplates))

	htmlPolicy = newHTMLPolicy()
)

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyles("font-family", "font-size", "margin-left", "text-align", "border-collapse").Globally()
	return p
}

func formatDeadline(deadline *time.Time) string {
	if deadline == nil {
		return ""
	}
	return deadline.Format("02/01/2006")
}

// RenderBody renders the HTML body of a notification and sanitizes it.
func RenderBody(n domain.Notification) (string, error) {
	name := "internal"
	if n.Category == domain.CategoryVendor {
		name = "vendor"
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, n); err != nil {
		return "", fmt.Errorf("render %s body: %w", name, err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}
