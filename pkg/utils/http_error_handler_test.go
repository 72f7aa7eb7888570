package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/apperrors"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{apperrors.New(apperrors.KindValidation, "amount must be greater than zero"), http.StatusBadRequest, "VALIDATION", "amount must be greater than zero"},
		{apperrors.New(apperrors.KindNotFound, "group budget not found"), http.StatusNotFound, "NOT_FOUND", "group budget not found"},
		{apperrors.New(apperrors.KindForbidden, "no"), http.StatusForbidden, "FORBIDDEN", "no"},
		{apperrors.New(apperrors.KindEmailMismatch, "no"), http.StatusForbidden, "EMAIL_MISMATCH", "no"},
		{apperrors.New(apperrors.KindAlreadyMember, "dup"), http.StatusConflict, "ALREADY_MEMBER", "dup"},
		{apperrors.New(apperrors.KindInvalidState, "done"), http.StatusConflict, "INVALID_STATE", "done"},
		{apperrors.New(apperrors.KindUnknownUser, "who"), http.StatusUnprocessableEntity, "UNKNOWN_USER", "who"},
		{apperrors.Wrap(apperrors.KindUnavailable, "ledger unavailable", errors.New("dial tcp")), http.StatusServiceUnavailable, "UNAVAILABLE", "ledger unavailable"},
		{errors.New("db is on fire"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}

	hook := test.NewLocal(Logger)
	defer hook.Reset()

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			hook.Reset()
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != "error" || body.Code != tt.wantCode || body.Message != tt.wantMsg {
				t.Fatalf("body = %+v", body)
			}

			logged := hook.LastEntry() != nil && hook.LastEntry().Level == logrus.ErrorLevel
			if wantLog := tt.wantStatus >= 500; logged != wantLog {
				t.Fatalf("logged = %v, want %v", logged, wantLog)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"trace": logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
