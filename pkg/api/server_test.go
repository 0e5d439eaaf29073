package api

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bytekit/internal/logger"
	"github.com/ssargent/bytekit/pkg/storage"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestStartServer_RequiresAPIKey(t *testing.T) {
	db, err := storage.Open(t.TempDir(), storage.Options{})
	require.NoError(t, err)
	defer db.Close()

	err = StartServer(context.Background(), db, ServerConfig{Port: freePort(t)}, logger.Discard())
	assert.Error(t, err)
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	db, err := storage.Open(t.TempDir(), storage.Options{})
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	config := ServerConfig{
		Port:            freePort(t),
		Bind:            "127.0.0.1",
		APIKey:          testAPIKey,
		ShutdownTimeout: time.Second,
		StatsInterval:   10 * time.Millisecond,
	}

	done := make(chan error, 1)
	go func() { done <- StartServer(ctx, db, config, logger.Discard()) }()

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartServer_PortInUse(t *testing.T) {
	db, err := storage.Open(t.TempDir(), storage.Options{})
	require.NoError(t, err)
	defer db.Close()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	config := ServerConfig{Port: l.Addr().(*net.TCPAddr).Port, Bind: "127.0.0.1", APIKey: testAPIKey}
	err = StartServer(context.Background(), db, config, logger.Discard())
	assert.Error(t, err)
}
