package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/core"
)

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf)

	svc.SendMessages(
		&core.EmailMessage{
			To:      []mail.Address{{Name: "Sheikh Ahmad", Address: "ahmad@example.com"}},
			Subject: "hello",
			BodyStr: "salam",
		},
		// no recipients
		&core.EmailMessage{Subject: "dropped", BodyStr: "salam"},
		// no content
		&core.EmailMessage{To: []mail.Address{{Address: "ali@example.com"}}, Subject: "empty"},
	)

	sent := svc.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello", sent[0].Subject)
	assert.Equal(t, "salam", sent[0].TextContent)
}

func TestConsoleService_Format(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf)
	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "ahmad@example.com"}},
		Subject:     "digest",
		TextContent: "plain",
		HTMLContent: "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: ["+conf.AppName+"] digest")
	assert.Contains(t, body, "To: <ahmad@example.com>")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "<p>html</p>")
	assert.True(t, strings.HasPrefix(body, "From: "))
}

func TestSendgridService_Prepare(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, core.NewNopLogger()).(*sendgridService)
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Ahmad", Address: "ahmad@example.com"}},
		Cc:          []mail.Address{{Address: "cc@example.com"}},
		Subject:     "digest",
		TextContent: "plain",
	})
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "["+conf.AppName+"] digest", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "ahmad@example.com", p.To[0].Address)
	require.Len(t, p.CC, 1)
	// no html part without html content
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}
