package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode enables debug level", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("debug level should be enabled")
		}
		_ = logger.Sync()
	})

	t.Run("production mode starts at info", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("debug level should be disabled")
		}
		if !logger.Core().Enabled(zapcore.InfoLevel) {
			t.Error("info level should be enabled")
		}
		_ = logger.Sync()
	})
}

func TestNewInteractiveLogger(t *testing.T) {
	logger, err := NewInteractiveLogger(false)
	if err != nil {
		t.Fatal(err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be hidden in interactive mode")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warnings should be shown in interactive mode")
	}

	debug, err := NewInteractiveLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !debug.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be shown with debug on")
	}
}
