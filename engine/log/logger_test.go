package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	t.Cleanup(func() {
		SetLevel(Notice)
		SetSink(os.Stdout)
	})

	logger := New("logtest")

	SetLevel(Warning)
	logger.Infof("hidden %d", 1)
	assert.Empty(t, buf.String())

	logger.Warningf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "[logtest]")

	buf.Reset()
	SetLevel(Debug)
	logger.Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")
}
