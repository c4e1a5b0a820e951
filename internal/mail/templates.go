package mail

import (
	"bytes"
	"html/template"
	"time"
)

var resetTmpl = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Password reset request</h2>
  <p>You are receiving this email because a password reset was requested for your account.</p>
  <a href="{{.URL}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset password</a>
  <p>Or copy this link: {{.URL}}</p>
  <p>The link expires in {{.Minutes}} minutes.</p>
</div>`))

const ResetSubject = "Password Reset"

func ResetMessage(to, url string, ttl time.Duration) (Message, error) {
	var b bytes.Buffer
	err := resetTmpl.Execute(&b, struct {
		URL     string
		Minutes int
	}{URL: url, Minutes: int(ttl.Minutes())})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: ResetSubject, HTML: b.String()}, nil
}
