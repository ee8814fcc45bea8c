package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		expected  log.Level
		expectErr bool
	}{
		{input: "", expected: log.InfoLevel},
		{input: "debug", expected: log.DebugLevel},
		{input: " WARN ", expected: log.WarnLevel},
		{input: "error", expected: log.ErrorLevel},
		{input: "loud", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			lvl, err := ParseLevel(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, lvl)
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "warn", "modforge")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "component", "foo:bar")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "foo:bar")
}
