package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatJSON, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", KeyProvider, "webex")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "webex", entry[KeyProvider])

	buf.Reset()
	logger, err = New(&buf, FormatText, true)
	require.NoError(t, err)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "level=DEBUG msg=visible")

	_, err = New(&buf, "xml", false)
	assert.Error(t, err)
}
