package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	yardapi "github.com/BearBump/YardBox/internal/api/yard_api"
	"github.com/BearBump/YardBox/internal/services/dwell"
	"github.com/BearBump/YardBox/internal/services/facility"
	"github.com/BearBump/YardBox/internal/storage/docstore"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *yardapi.YardAPI {
	t.Helper()
	blobs, err := docstore.NewFSBlobs(t.TempDir())
	require.NoError(t, err)
	st := docstore.New(blobs, 0)
	return yardapi.New(facility.New(st, st), dwell.NewCalculator(st, st, st, time.UTC))
}

func TestRunYardAPI_ServesSwaggerAndAPI(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := yardAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: sw,
		onListen:    func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runYardAPI(ctx, opts, newTestAPI(t))
	}()
	base := "http://" + <-addrCh

	resp, err := http.Get(base + "/swagger.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, string(body), "\"swagger\"")

	resp, err = http.Post(base+"/api/doors", "application/json", strings.NewReader(`{"number":4}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/api/state")
	require.NoError(t, err)
	var st struct {
		Doors []struct {
			Number int `json:"number"`
		} `json:"doors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	_ = resp.Body.Close()
	require.Len(t, st.Doors, 1)
	require.Equal(t, 4, st.Doors[0].Number)

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting server to stop")
	}
}

func TestRunYardAPI_SwaggerRequired(t *testing.T) {
	err := runYardAPI(context.Background(), yardAPIOpts{httpAddr: "127.0.0.1:0"}, newTestAPI(t))
	require.Error(t, err)

	err = runYardAPI(context.Background(), yardAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: filepath.Join(t.TempDir(), "missing.json"),
	}, newTestAPI(t))
	require.Error(t, err)
}

func TestMustLoadLocation(t *testing.T) {
	require.Equal(t, time.UTC, mustLoadLocation(""))
	require.Panics(t, func() { mustLoadLocation("Mars/Base") })
}
