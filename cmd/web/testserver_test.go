package main

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/scenevalidator/internal/e2etest"
	"github.com/stretchr/testify/require"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "SCENEVALIDATOR_ADDR":
		return "localhost:0", true
	case "SCENEVALIDATOR_SQLITE_URL":
		return ":memory:", true
	default:
		return "", false
	}
}

// startTestServer starts the whole server with an in-memory database and
// returns a client for talking to it.
func startTestServer(t *testing.T) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := e2etest.StartServer(ctx, io.Discard, testLookupEnv, run)
	require.NoError(t, err)
	return server
}
