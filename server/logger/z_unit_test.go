package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]LogMode{"": ModeDev, "DEV": ModeDev, "prod": ModeProd, "json": ModeProd, "off": ModeSilence} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("verbose")
	assert.Error(t, err)
	assert.Equal(t, "prod", ModeProd.String())
}

func TestWriterLoggerProd(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(ModeProd, &buf)
	log.Debug("hidden")
	log.Info("predict", slog.String("profile", "ladder-classic"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "predict", m["msg"])
	assert.Equal(t, "ladder-classic", m["profile"])
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 64)
	log := slog.New(ah).With(slog.String("svc", "patternlab"))
	for range 10 {
		log.Info("tick")
	}
	ah.Close()
	assert.Equal(t, 10, bytes.Count(buf.Bytes(), []byte("msg=tick svc=patternlab")))

	log.Info("after close")
	assert.Equal(t, uint64(1), ah.Dropped())
	assert.True(t, ah.Ready())
}
