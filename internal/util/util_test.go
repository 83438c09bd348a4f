package util

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger("development"))
	assert.NotNil(t, GetLogger())
	SyncLogger()
}

func TestStartSpan_WithoutTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "Test.Span")
	defer span.End()
	assert.NotNil(t, ctx)
}
