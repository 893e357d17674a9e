package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "info", "json")
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown", "document_id", "d-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "d-1", line["document_id"])
	assert.Equal(t, "exportdocs", line["service"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "DEBUG", "text")
	require.NoError(t, err)

	log.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}
