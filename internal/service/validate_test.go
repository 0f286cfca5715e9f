package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/YongminGwon/omok-server/internal/apperror"
)

func TestNormalizeCredentials(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name        string
		username    string
		password    string
		wantUser    string
		wantField   string
		wantMessage string
	}{
		{name: "valid", username: "alice", password: "pw", wantUser: "alice"},
		{name: "trims username", username: " alice ", password: "pw", wantUser: "alice"},
		{name: "keeps password spaces", username: "alice", password: " pw ", wantUser: "alice"},
		{name: "empty username", username: "", password: "pw", wantField: "username", wantMessage: "username is required"},
		{name: "blank password", username: "alice", password: "  ", wantField: "password", wantMessage: "password is required"},
		{name: "long username", username: strings.Repeat("x", 33), password: "pw", wantField: "username", wantMessage: "username must be at most 32 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := normalizeCredentials(v, tt.username, tt.password)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("normalizeCredentials() error = %v", err)
				}
				if creds.Username != tt.wantUser || creds.Password != tt.password {
					t.Errorf("creds = %+v", creds)
				}
				return
			}

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("normalizeCredentials() error = %v, want validation error", err)
			}
			if appErr.Field != tt.wantField || appErr.Message != tt.wantMessage {
				t.Errorf("got (%q, %q), want (%q, %q)", appErr.Field, appErr.Message, tt.wantField, tt.wantMessage)
			}
		})
	}
}
