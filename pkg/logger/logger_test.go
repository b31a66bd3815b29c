package logx

import (
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zerolog.InfoLevel, New().GetLevel())
	assert.Equal(t, zerolog.DebugLevel, New(Config{Debug: true, Output: "discard"}).GetLevel())
}

func TestWriterFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, io.Writer(os.Stdout), writerFor("STDOUT"))
	assert.Equal(t, io.Writer(io.Discard), writerFor("discard"))
	assert.Equal(t, io.Writer(os.Stderr), writerFor(""))
}
