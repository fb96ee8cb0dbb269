package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigureInstallsShutdownFunc(t *testing.T) {
	shutdown, err := Configure(context.Background(), "qibus-test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}
