package mail

import (
	"fmt"
	"html/template"
	"strings"
)

// Шаблон письма с кодом подтверждения.
var vcodeTemplate = template.Must(template.New("vcode").Parse(`<!DOCTYPE html>
<html>
<body>
  <p>Your verification code:</p>
  <p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
  <p>The code expires in {{.ExpireMinutes}} minutes. If you did not request it, ignore this message.</p>
</body>
</html>`))

// RenderVCodeBody рендерит HTML-тело письма с кодом подтверждения.
func RenderVCodeBody(code string, expireMinutes int) (string, error) {
	const op = "mail.RenderVCodeBody"

	var sb strings.Builder
	data := struct {
		Code          string
		ExpireMinutes int
	}{Code: code, ExpireMinutes: expireMinutes}

	if err := vcodeTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return sb.String(), nil
}
