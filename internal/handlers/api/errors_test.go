package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsRequestError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "request error",
			err:         &requestError{status: http.StatusNotFound, message: "not found"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "not found",
		},
		{
			name:        "wrapped request error",
			err:         fmt.Errorf("loading: %w", &requestError{status: http.StatusBadRequest, message: "bad term"}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "bad term",
		},
		{
			name:        "plain error",
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asRequestError(tt.err)
			if got.status != tt.wantStatus || got.message != tt.wantMessage {
				t.Errorf("got %d %q, want %d %q", got.status, got.message, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}
