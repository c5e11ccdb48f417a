package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_WriteText(t *testing.T) {
	var got string
	a := &Adapter{supported: true, write: func(s string) error { got = s; return nil }}

	require.NoError(t, a.WriteText(context.Background(), "/srv/data"))
	assert.Equal(t, "/srv/data", got)
}

func TestAdapter_Unsupported(t *testing.T) {
	a := &Adapter{}

	assert.ErrorIs(t, a.WriteText(context.Background(), "x"), ErrUnsupported)
	_, err := a.ReadText(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestAdapter_CancelledContext(t *testing.T) {
	called := false
	a := &Adapter{supported: true, write: func(string) error { called = true; return nil }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, a.WriteText(ctx, "x"), context.Canceled)
	assert.False(t, called)
}

func TestAdapter_ReadText(t *testing.T) {
	a := &Adapter{supported: true, read: func() (string, error) { return "clip", nil }}
	got, err := a.ReadText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "clip", got)

	boom := errors.New("boom")
	a.read = func() (string, error) { return "", boom }
	_, err = a.ReadText(context.Background())
	assert.ErrorIs(t, err, boom)
}
