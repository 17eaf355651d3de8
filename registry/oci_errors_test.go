package registry

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote/errcode"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"errdef not found", fmt.Errorf("resolve: %w", errdef.ErrNotFound), ErrNotFound},
		{"404", &errcode.ErrorResponse{StatusCode: http.StatusNotFound}, ErrNotFound},
		{"401", &errcode.ErrorResponse{StatusCode: http.StatusUnauthorized}, ErrUnauthorized},
		{"403", &errcode.ErrorResponse{StatusCode: http.StatusForbidden}, ErrForbidden},
		{"500 passes through", &errcode.ErrorResponse{StatusCode: http.StatusInternalServerError}, nil},
		{"other passes through", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapError(tt.err)
			switch {
			case tt.err == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Same(t, tt.err, got)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}
