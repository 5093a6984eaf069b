package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessage = Message{
	FromName:  "Ada Lovelace",
	FromEmail: "ada@example.com",
	Subject:   "Engine",
	Body:      "Shall we build something?",
	To:        "me@example.com",
}

func TestEmailJSSenderPostsTemplateParams(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	sender, err := NewEmailJSSender(EmailJSConfig{
		ServiceID:  "service_1",
		TemplateID: "template_1",
		PublicKey:  "pk_1",
		Endpoint:   srv.URL,
	}, srv.Client())
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), testMessage))
	assert.Equal(t, "service_1", got.ServiceID)
	assert.Equal(t, "template_1", got.TemplateID)
	assert.Equal(t, "pk_1", got.UserID)
	assert.Empty(t, got.AccessToken)
	assert.Equal(t, map[string]string{
		"from_name":  "Ada Lovelace",
		"from_email": "ada@example.com",
		"reply_to":   "ada@example.com",
		"subject":    "Engine",
		"message":    "Shall we build something?",
		"to_email":   "me@example.com",
	}, got.TemplateParams)
}

func TestEmailJSSenderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer srv.Close()

	sender, err := NewEmailJSSender(EmailJSConfig{
		ServiceID:  "s",
		TemplateID: "t",
		PublicKey:  "p",
		Endpoint:   srv.URL,
	}, srv.Client())
	require.NoError(t, err)

	err = sender.Send(context.Background(), testMessage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderRejected))
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "template ID is invalid")
}

func TestEmailJSSenderRequiresCredentials(t *testing.T) {
	_, err := NewEmailJSSender(EmailJSConfig{ServiceID: "s"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template_id")
	assert.Contains(t, err.Error(), "public_key")
}

func TestSMTPSender(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{})
	require.ErrorIs(t, err, errNoCredentials)

	sender, err := NewSMTPSender(SMTPConfig{Username: "site@example.com", Password: "secret"})
	require.NoError(t, err)

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	sender.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "site@example.com", from)
		return nil
	}

	msg := testMessage
	msg.Subject = "Hi\r\nBcc: victim@example.com"
	require.NoError(t, sender.Send(context.Background(), msg))

	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, []string{"me@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Reply-To: ada@example.com\r\n")
	assert.Contains(t, gotMsg, "Subject: Hi  Bcc: victim@example.com\r\n")
	headers, _, _ := strings.Cut(gotMsg, "\r\n\r\n")
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, gotMsg, "Shall we build something?")
}

func TestSMTPSenderWrapsError(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Username: "u", Password: "p"})
	require.NoError(t, err)
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 auth failed")
	}
	err = sender.Send(context.Background(), testMessage)
	assert.ErrorContains(t, err, "smtp send: 535 auth failed")
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(ProviderLog, Providers{}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)
	assert.NoError(t, s.Send(context.Background(), testMessage))

	_, err = NewSender(ProviderEmailJS, Providers{}, nil, nil)
	assert.Error(t, err)

	_, err = NewSender("carrier-pigeon", Providers{}, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}
