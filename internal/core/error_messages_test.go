package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
	"github.com/JonMunkholm/pfcatalog/internal/diff"
	"github.com/JonMunkholm/pfcatalog/internal/playfab"
	"github.com/JonMunkholm/pfcatalog/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"nil error returns empty", nil, "", 0},
		{"insufficient data", fmt.Errorf("import a.csv: %w", catalog.ErrInsufficientData), "CSV001", http.StatusBadRequest},
		{"validation errors", catalog.ValidationErrors{{ItemID: "x", Field: "ItemId", Rule: "required"}}, "VAL007", http.StatusUnprocessableEntity},
		{"wrapped validation errors", fmt.Errorf("push: %w", catalog.ValidationErrors{{Field: "ItemId"}}), "VAL007", http.StatusUnprocessableEntity},
		{"schema", fmt.Errorf("%w: bad", catalog.ErrSchema), "VAL008", http.StatusBadRequest},
		{"parse", fmt.Errorf("left: %w", diff.ErrParse), "DIFF001", http.StatusBadRequest},
		{"session not found", fmt.Errorf("%w: abc", ErrSessionNotFound), "DIFF002", http.StatusNotFound},
		{"unknown field", diff.ErrUnknownField, "DIFF003", http.StatusBadRequest},
		{"too many sessions", ErrTooManySessions, "DIFF005", http.StatusServiceUnavailable},
		{"item not found", store.ErrNotFound, "ITEM001", http.StatusNotFound},
		{"remote rejected", fmt.Errorf("update: %w", &playfab.APIError{HTTPStatus: 400}), "PF001", http.StatusBadGateway},
		{"not configured", playfab.ErrNotConfigured, "PF002", http.StatusServiceUnavailable},
		{"busy", ErrTooManyOperations, "IMP002", http.StatusServiceUnavailable},
		{"deadline", fmt.Errorf("commit: %w", context.DeadlineExceeded), "IMP003", http.StatusGatewayTimeout},
		{"duplicate key text", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001", http.StatusConflict},
		{"connection refused text", errors.New("dial tcp: connection refused"), "DB004", http.StatusServiceUnavailable},
		{"case insensitive", errors.New("DEADLOCK detected"), "DB007", http.StatusServiceUnavailable},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001", http.StatusTooManyRequests},
		{"unknown", errors.New("some random internal error"), "ERR000", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("MapError() status = %d, want %d", got.Status, tt.wantStatus)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(catalog.ErrInsufficientData)
	want := "The file has no catalog rows (Code: CSV001). " +
		"Export the catalog again; the file needs a header line and at least one item row"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"known", ErrSessionNotFound, true},
		{"unknown", errors.New("random internal error xyz"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	tech := fmt.Errorf("diff: %w", ErrSessionNotFound)
	ue := NewUserError(tech)
	if ue.Error() != "Diff session not found" {
		t.Errorf("Error() = %q", ue.Error())
	}
	if ue.User.Code != "DIFF002" {
		t.Errorf("Code = %q, want DIFF002", ue.User.Code)
	}
	if !errors.Is(ue, ErrSessionNotFound) {
		t.Error("UserError should unwrap to the technical error")
	}
}
