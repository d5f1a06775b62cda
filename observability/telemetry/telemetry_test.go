package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitReturnsShutdownAndManualReader(t *testing.T) {
	ctx := context.Background()
	shutdown, reader, err := Init(ctx, Config{ServiceName: "novaperp-test", Environment: "test", Insecure: true})
	require.NoError(t, err)
	require.NotNil(t, reader)

	tracer := Tracer("novaperp-test")
	_, span := tracer.Start(ctx, "place_perp_order")
	span.End()

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Millisecond)
	defer cancel()
	_ = shutdown(shutdownCtx) // exporter has nothing reachable in tests; only shape is asserted
}

func TestInitRequiresServiceName(t *testing.T) {
	_, _, err := Init(context.Background(), Config{})
	require.Error(t, err)
}
