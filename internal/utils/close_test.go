package utils

import (
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("connection reset") }

func TestDrainClose(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(`{"ok":true}`)}

	DrainClose(body)

	if !body.closed {
		t.Error("body not closed")
	}
	if rest, _ := io.ReadAll(body); len(rest) != 0 {
		t.Errorf("unread bytes left = %q", rest)
	}
}

func TestMustCloseLogsComponent(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	MustClose(failingCloser{}, "redis", logger.FromZap(zap.New(core)))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "redis" || fields["error"] != "connection reset" {
		t.Errorf("fields = %v", fields)
	}
}
