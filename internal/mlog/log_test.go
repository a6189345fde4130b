package mlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubLogger captures calls for verification, the way
// tests/utils/stubs.LoggerStub does in the teacher repo.
type stubLogger struct {
	infos []string
}

func (s *stubLogger) Info(args ...any)                  { s.infos = append(s.infos, "info") }
func (s *stubLogger) Infof(format string, args ...any)  {}
func (s *stubLogger) Infoln(args ...any)                {}
func (s *stubLogger) Error(args ...any)                 {}
func (s *stubLogger) Errorf(format string, args ...any) {}
func (s *stubLogger) Errorln(args ...any)               {}
func (s *stubLogger) Warn(args ...any)                  {}
func (s *stubLogger) Warnf(format string, args ...any)  {}
func (s *stubLogger) Warnln(args ...any)                {}
func (s *stubLogger) Debug(args ...any)                 {}
func (s *stubLogger) Debugf(format string, args ...any) {}
func (s *stubLogger) Debugln(args ...any)               {}
func (s *stubLogger) Fatal(args ...any)                 {}
func (s *stubLogger) Fatalf(format string, args ...any) {}
func (s *stubLogger) Fatalln(args ...any)               {}

//nolint:ireturn
func (s *stubLogger) WithFields(fields ...any) Logger { return s }
func (s *stubLogger) Sync() error                     { return nil }

func TestFromContext_DefaultsToNoneLogger(t *testing.T) {
	t.Parallel()

	logger := FromContext(context.Background())

	_, isNone := logger.(*NoneLogger)
	assert.True(t, isNone, "context with no logger attached should default to NoneLogger")

	// NoneLogger must be safe to call without panicking.
	logger.Info("hello")
	assert.NoError(t, logger.Sync())
}

func TestContextWithLogger_RoundTrip(t *testing.T) {
	t.Parallel()

	stub := &stubLogger{}
	ctx := ContextWithLogger(context.Background(), stub)

	got := FromContext(ctx)
	got.Info("movement accepted")

	assert.Same(t, stub, got)
	assert.Equal(t, []string{"info"}, stub.infos)
}

func TestNoneLogger_WithFieldsReturnsSelf(t *testing.T) {
	t.Parallel()

	n := &NoneLogger{}
	got := n.WithFields("key", "value")

	assert.Same(t, n, got)
}
