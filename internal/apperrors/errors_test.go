package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError_Is(t *testing.T) {
	err := fmt.Errorf("download: %w", &TransportError{Op: "POST", URL: "/x", Err: context.DeadlineExceeded})

	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrAuthentication))

	var te *TransportError
	if assert.True(t, errors.As(err, &te)) {
		assert.Equal(t, "POST", te.Op)
	}
}

func TestTransportError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TransportError
		want string
	}{
		{
			name: "status only",
			err:  &TransportError{Op: "GET", URL: "/a", StatusCode: 503},
			want: "GET /a: unexpected status 503",
		},
		{
			name: "wrapped error",
			err:  &TransportError{Op: "GET", URL: "/a", Err: errors.New("boom")},
			want: "GET /a: boom",
		},
		{
			name: "status and error",
			err:  &TransportError{Op: "GET", URL: "/a", StatusCode: 500, Err: errors.New("boom")},
			want: "GET /a: status 500: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
