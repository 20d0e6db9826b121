package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/solatis/factkeeper/internal/rules"
)

func TestMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine, err := rules.NewEngine(zaptest.NewLogger(t), reg)
	require.NoError(t, err)
	_, err = engine.Run(nil, nil, nil)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	m := NewMetricsServer(lis.Addr().String(), reg, zaptest.NewLogger(t))
	done := make(chan error, 1)
	go func() { done <- m.Serve(lis) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + lis.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "factkeeper_engine_runs_total")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.NoError(t, <-done)
}
