package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("component", "converter").Debug("Rejected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "converter", entry["component"])
	assert.Equal(t, "Rejected", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "text", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.WithField("files", 3).Info("Processing XML files")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Processing XML files")
	assert.Contains(t, out, "files=3")
}

func TestNewErrors(t *testing.T) {
	_, err := New("loud", "text", nil)
	assert.ErrorContains(t, err, "parse log level")

	_, err = New("info", "xml", nil)
	assert.ErrorContains(t, err, "unknown log format")
}
