package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/mocktracer"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/auth-backend/internal/log"
)

func TestInit_SetsGlobal(t *testing.T) {
	l, err := log.Init(false)
	require.NoError(t, err)
	assert.Same(t, l, log.L())
}

func TestWithDD_NoSpan(t *testing.T) {
	base := zap.NewNop()
	got := log.WithDD(context.Background(), base)
	assert.NotNil(t, got)
}

func TestWithDD_WithSpan(t *testing.T) {
	mt := mocktracer.Start()
	defer mt.Stop()

	sp, ctx := tracer.StartSpanFromContext(context.Background(), "test")
	defer sp.Finish()

	got := log.WithDD(ctx, zap.NewNop(), zap.String("k", "v"))
	assert.NotNil(t, got)
}
