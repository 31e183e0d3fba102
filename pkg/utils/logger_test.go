package utils

import (
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode enables debug level", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if ce := logger.Check(-1, "probe"); ce == nil {
			t.Error("debug logger should accept debug entries")
		}
		_ = logger.Sync()
	})

	t.Run("production mode drops debug entries", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if ce := logger.Check(-1, "probe"); ce != nil {
			t.Error("production logger should not accept debug entries")
		}
		_ = logger.Sync()
	})
}
