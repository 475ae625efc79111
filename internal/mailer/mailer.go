// Package mailer turns queued mail messages into SMTP messages.
package mailer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrUnknownType = errors.New("unsupported mail type")

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// envelope is domain.MailMessage as it arrives off the queue, with the data left raw until
// the type is known.
type envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type kind struct {
	subject  string
	template string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeCreateUser: {
		subject:  "MANRURA - Akun baru",
		template: "create_user.html",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailTypePointValidated: {
		subject:  "MANRURA - Poin telah divalidasi",
		template: "point_validated.html",
		data:     func() any { return &domain.PointValidatedMailData{} },
	},
}

// Compose decodes a queued message body and renders it. Errors are permanent: retrying the
// same body cannot succeed.
func Compose(from string, body []byte) (*mail.Msg, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	k, ok := kinds[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	data := k.data()
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return nil, fmt.Errorf("failed to decode %s data: %w", env.Type, err)
		}
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(env.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(k.subject)
	if err := msg.SetBodyHTMLTemplate(templates.Lookup(k.template), data); err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}
	return msg, nil
}
