package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestLevelsAndKeyValues(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	SetLevel(LevelInfo)
	Debug("hidden", "k", 1)
	assert.Empty(t, buf.String())

	Info("event skipped", "uid", "abc", "title", "Team sync")
	line := buf.String()
	assert.Contains(t, line, "[INFO] event skipped")
	assert.Contains(t, line, "uid=abc")
	assert.Contains(t, line, `title="Team sync"`)

	buf.Reset()
	SetLevel(LevelError)
	Info("hidden")
	Error("parse failed", errors.New("boom"), "line", 3, "dangling")
	line = buf.String()
	assert.Contains(t, line, "[ERROR] parse failed err=boom line=3")
	assert.NotContains(t, line, "dangling")
}
