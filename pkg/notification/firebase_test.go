package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebConfig(t *testing.T) {
	cfg, err := ParseWebConfig([]byte(`{"apiKey":"k","projectId":"raven-demo","messagingSenderId":"42"}`))
	require.NoError(t, err)
	assert.Equal(t, "raven-demo", cfg.ProjectID)
	assert.Equal(t, "42", cfg.MessagingSenderID)

	_, err = ParseWebConfig([]byte(`{"apiKey":`))
	assert.Error(t, err)

	_, err = ParseWebConfig([]byte(`{"apiKey":"k"}`))
	assert.Error(t, err)
}

func TestInitializeApp_InvalidConfig(t *testing.T) {
	_, err := InitializeApp(context.Background(), []byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeMessage(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"data":{"title":"Hi","channel_id":"general"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Hi", msg.Data["title"])
	assert.Equal(t, "general", msg.Data["channel_id"])

	_, err = DecodeMessage([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = DecodeMessage([]byte(`[`))
	assert.Error(t, err)
}
