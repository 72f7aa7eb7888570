package utils

import (
	"errors"
	"testing"

	"fintrack/internal/apperrors"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestErrorHandler(t *testing.T) {
	hook := test.NewLocal(Logger)
	defer hook.Reset()

	if err := ErrorHandler(nil, "unused"); err != nil {
		t.Fatalf("ErrorHandler(nil) = %v", err)
	}
	if len(hook.Entries) != 0 {
		t.Fatalf("nil error was logged: %+v", hook.Entries)
	}

	cause := errors.New("connection reset")
	err := ErrorHandler(cause, "failed to record transaction")
	if !errors.Is(err, cause) {
		t.Fatalf("ErrorHandler lost its cause: %v", err)
	}
	if !apperrors.Is(err, apperrors.KindInternal) || apperrors.Message(err) != "failed to record transaction" {
		t.Fatalf("kind = %s, message = %q", apperrors.KindOf(err), apperrors.Message(err))
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel || entry.Message != "failed to record transaction" || entry.Data["error"] != "connection reset" {
		t.Fatalf("unexpected log entry %+v", entry)
	}
}
