package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"trace", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("logfmt")
	assert.Error(t, err)
}

func TestInitText(t *testing.T) {
	var buf bytes.Buffer
	Init(FormatText, LevelInfo, &buf)

	Debug("TestRun", "debug message")
	Info("TestRun", "Running test plan %s", "sandbox")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.Contains(t, out, `msg="Running test plan sandbox"`)
	assert.Contains(t, out, "subsystem=TestRun")
}

func TestErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	Init(FormatJSON, LevelDebug, &buf)

	Error("Provisioner", errors.New("boom"), "teardown of role %s failed", "server")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Provisioner", entry["subsystem"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "teardown of role server failed", entry["msg"])
}

func TestMessageWithoutArgsIsNotFormatted(t *testing.T) {
	var buf bytes.Buffer
	Init(FormatText, LevelDebug, &buf)

	// Called through a func value so vet does not flag the intentional bare %.
	warn := Warn
	warn("TestPlan", "100% literal")

	assert.Contains(t, buf.String(), "100% literal")
}
