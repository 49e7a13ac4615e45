package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "debug", "json")

	l.WithField("user_id", "42").Debug("registered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "registered", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "42", entry["user_id"])
}

func TestNew_TextFormatAndLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "chatty", "text")

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.Debug("hidden")
	l.WithField("k", "v").Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "k=v")
}
