package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

var salesAlertTmpl = template.Must(template.New("sales_alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2 style="margin-bottom: 4px;">{{.Heading}}</h2>
  <p style="margin-top: 0; color: #52606d;">{{.Lede}}</p>
  <table cellpadding="6" cellspacing="0" style="border-collapse: collapse;">
    {{range .Rows}}
    <tr>
      <td style="font-weight: bold; padding-right: 16px;">{{.Label}}</td>
      <td>{{.Value}}</td>
    </tr>
    {{end}}
  </table>
  {{if .Notes}}
  <h3>Conversation notes</h3>
  <ul>
    {{range .Notes}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
</body>
</html>`))

type salesAlertRow struct {
	Label string
	Value string
}

type salesAlertData struct {
	Heading string
	Lede    string
	Rows    []salesAlertRow
	Notes   []string
}

func renderSalesAlert(data salesAlertData) (string, error) {
	var buf bytes.Buffer
	if err := salesAlertTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render sales alert: %w", err)
	}
	return buf.String(), nil
}
