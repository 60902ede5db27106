package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *E
		want string
	}{
		{
			name: "without cause",
			err:  New(Config, "password is required"),
			want: "config: password is required",
		},
		{
			name: "with cause",
			err:  Wrap(Transport, "POST /api/collections", io.ErrUnexpectedEOF),
			want: "transport: POST /api/collections: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindThroughWrapping(t *testing.T) {
	inner := Wrap(Transport, "dial", io.EOF)
	outer := Wrap(Authentication, "could not authenticate", inner)
	wrapped := fmt.Errorf("seed: %w", outer)

	assert.Equal(t, Authentication, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, Transport))
	assert.True(t, IsKind(wrapped, Authentication))
	assert.False(t, IsKind(wrapped, Schema))
	assert.True(t, stderrors.Is(wrapped, io.EOF))
	assert.Equal(t, Kind(""), KindOf(io.EOF))
}
