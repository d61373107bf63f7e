package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level, false)
		if err != nil {
			t.Fatalf("New(%q): %v", level, err)
		}
		if logger.GetSink() == nil {
			t.Errorf("New(%q) returned a logger without a sink", level)
		}
	}

	logger, err := New("debug", true)
	if err != nil {
		t.Fatalf("New(debug, development): %v", err)
	}
	if !logger.V(1).Enabled() {
		t.Error("debug level should enable V(1)")
	}

	logger, _ = New("info", false)
	if logger.V(1).Enabled() {
		t.Error("info level should not enable V(1)")
	}

	if _, err := New("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSyncFlushesBufferedEntries(t *testing.T) {
	var buf bytes.Buffer
	ws := &zapcore.BufferedWriteSyncer{
		WS:            zapcore.AddSync(&buf),
		Size:          64 * 1024,
		FlushInterval: time.Hour,
	}
	t.Cleanup(func() { ws.Stop() })

	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), ws, zapcore.InfoLevel)
	logger := zapr.NewLogger(zap.New(core))

	logger.Info("server stopped", "reason", "test")
	if buf.Len() != 0 {
		t.Fatalf("entry written before Sync: %s", buf.String())
	}
	if err := Sync(logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !strings.Contains(buf.String(), "server stopped") {
		t.Errorf("buffer after Sync = %q", buf.String())
	}
}

func TestSyncOtherSinks(t *testing.T) {
	if err := Sync(logr.Discard()); err != nil {
		t.Errorf("Sync(Discard) = %v", err)
	}
}
