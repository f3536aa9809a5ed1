package hctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttempt_WithAndFrom(t *testing.T) {
	ctx := WithAttempt(context.Background(), Attempt{UploadID: "u-1", Number: 2})
	got, ok := From(ctx)
	require.True(t, ok, "From should find attempt")
	require.Equal(t, "u-1", got.UploadID)
	require.Equal(t, 2, got.Number)
}

func TestAttempt_From_Absent(t *testing.T) {
	got, ok := From(context.Background())
	require.False(t, ok)
	require.Zero(t, got)
}
