package email

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

const (
	// ConfirmationSubject is the subject line of the sign-up confirmation email.
	ConfirmationSubject = "Confirme seu cadastro"
	// KindConfirmation tags confirmation emails at the provider.
	KindConfirmation = "confirmation"
)

var confirmationTmpl = template.Must(template.New("confirm").Parse(`<p>Olá{{if .Name}}, {{.Name}}{{end}}!</p>
<p>Recebemos seu cadastro no aplicativo da igreja. Para ativar sua conta, clique no link abaixo:</p>
<p><a href="{{.Link}}">Confirmar meu e-mail</a></p>
<p>Se você não fez este cadastro, ignore esta mensagem.</p>`))

// ConfirmationLink builds the activation URL for a token.
func ConfirmationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/auth/confirm?token=" + url.QueryEscape(token)
}

// Confirmation builds the sign-up confirmation email.
// PRE: to is a valid address; link is absolute
// POST: HTML body is escaped
func Confirmation(to, name, link string) (SendRequest, error) {
	var body bytes.Buffer
	data := struct{ Name, Link string }{Name: name, Link: link}
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return SendRequest{}, err
	}
	return SendRequest{
		To:      []string{to},
		Subject: ConfirmationSubject,
		HTML:    body.String(),
		Kind:    KindConfirmation,
	}, nil
}
