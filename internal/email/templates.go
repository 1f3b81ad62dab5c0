package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var recoveryTemplate = template.Must(template.New("recovery").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #222;">
    <h2>{{.AppName}} password reset</h2>
    <p>Use the code below to reset your password. It expires in {{.Minutes}} minutes.</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
    <p>If you did not request a password reset, you can ignore this email.</p>
  </body>
</html>
`))

// RecoveryCodeMessage renders the subject and HTML body carrying a recovery code.
func RecoveryCodeMessage(appName, code string, ttl time.Duration) (subject, html string, err error) {
	var buf bytes.Buffer
	data := struct {
		AppName string
		Code    string
		Minutes int
	}{appName, code, int(ttl / time.Minute)}
	if err := recoveryTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render recovery email: %w", err)
	}
	return fmt.Sprintf("%s password reset code", appName), buf.String(), nil
}
