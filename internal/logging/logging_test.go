package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := New("test", &buf)
	l.SetLevel(LevelWarn)

	l.Infof("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Warnf("visible %d", 2)
	out := buf.String()
	assert.Contains(t, out, "Warn")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, "test")
}

func TestErrorAlwaysAboveWarn(t *testing.T) {
	var buf bytes.Buffer
	l := New("", &buf)
	l.SetLevel(LevelWarn)

	l.Errorf("boom: %v", "reason")
	assert.Contains(t, buf.String(), "boom: reason")
}

func TestCallerLocationInPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New("", &buf)
	l.SetLevel(LevelTrace)

	l.Tracef("where am I")
	assert.Contains(t, buf.String(), "logging_test.go:")
}

func TestOneLinePerMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New("", &buf)
	l.SetLevel(LevelDebug)

	l.Debugf("first")
	l.Infof("second")
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}
