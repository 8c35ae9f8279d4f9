package httpx

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestServeReturnsWhenListenFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	srv := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}
	err = Serve(context.Background(), srv, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, &http.Server{Addr: "127.0.0.1:0"}, zaptest.NewLogger(t).Sugar())
	}()
	cancel()
	assert.NoError(t, <-done)
}
