package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var (
	confirmationHTML = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/confirmation_email.html.tmpl"))
	confirmationText = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/confirmation_email.txt.tmpl"))
)

const VerificationSubject = "Please Confirm your Email"

type confirmationData struct {
	SignedURL string
	ExpiresIn string
}

// VerificationEmail renders the confirmation message carrying signedURL.
func VerificationEmail(from, to Address, signedURL string, ttl time.Duration) (*Message, error) {
	data := confirmationData{SignedURL: signedURL, ExpiresIn: FormatTTL(ttl)}

	var html, text bytes.Buffer
	if err := confirmationHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("rendering html body: %w", err)
	}
	if err := confirmationText.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("rendering text body: %w", err)
	}

	return &Message{
		From:     from,
		To:       []Address{to},
		Subject:  VerificationSubject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

// FormatTTL renders a lifetime the way the email states it: "1 hour",
// "3 hours", "30 minutes".
func FormatTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d.Round(time.Second)/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
