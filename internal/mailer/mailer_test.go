package mailer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func body(t *testing.T, msg domain.MailMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func render(t *testing.T, from string, b []byte) string {
	t.Helper()
	msg, err := Compose(from, b)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestComposeCreateUser(t *testing.T) {
	out := render(t, "manrura@rskariadi.co.id", body(t, domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "ani.perawat@rskariadi.co.id",
		Data: domain.CreateUserMailData{
			Name:     "Perawat Ani",
			Email:    "ani.perawat@rskariadi.co.id",
			Password: "password123",
			Role:     domain.RoleWardStaff,
			WardName: "Ruang Mawar",
		},
	}))

	assert.Contains(t, out, "ani.perawat@rskariadi.co.id")
	assert.Contains(t, out, "Perawat Ani")
	assert.Contains(t, out, "Ruang Mawar")
	assert.Contains(t, out, "password123")
}

func TestComposePointValidated(t *testing.T) {
	out := render(t, "manrura@rskariadi.co.id", body(t, domain.MailMessage{
		Type: domain.MailTypePointValidated,
		To:   "ani.perawat@rskariadi.co.id",
		Data: domain.PointValidatedMailData{
			Name:         "Perawat Ani",
			WardName:     "Ruang Mawar",
			PointID:      "1.1.1",
			Score:        10,
			AssessorName: "Dr. Budi Santoso",
		},
	}))

	assert.Contains(t, out, "1.1.1")
	assert.Contains(t, out, "Dr. Budi Santoso")
}

func TestComposeRejects(t *testing.T) {
	_, err := Compose("manrura@rskariadi.co.id", []byte("{not json"))
	assert.Error(t, err)

	_, err = Compose("manrura@rskariadi.co.id", body(t, domain.MailMessage{Type: "reset_password", To: "a@b.id"}))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Compose("manrura@rskariadi.co.id", body(t, domain.MailMessage{Type: domain.MailTypeCreateUser, To: "not an address"}))
	assert.Error(t, err)
}
