package surfacefill

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/surfacefill/sim"
)

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger enabled at %v", level)
		}
	}
}

func TestSetLoggerReceivesStrategy(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	d := newDevice(t, sim.Config{})
	s := newPoisoned(t, d, linearImage)
	f := NewOptimalFiller(d, Config{})
	defer f.Cleanup()

	start, end := s.FillableRange()
	if err := f.FillRange(context.Background(), s, Request{Value: 1, BitWidth: 32, Offset: start, Size: end - start}); err != nil {
		t.Fatalf("FillRange: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "strategy selected") || !strings.Contains(out, "strategy="+StrategyCopyEngine) {
		t.Errorf("log output missing strategy selection:\n%s", out)
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("logger enabled after SetLogger(nil)")
	}
}
