package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mapstitch/internal/cache"
)

// tileServer serves fake tile bytes and counts upstream requests. Paths in
// fail get a 404.
func tileServer(t *testing.T, requests *atomic.Int64, fail map[string]bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if fail[r.URL.Path] {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "tile:%s", r.URL.Path)
	}))
}

func newTestFetcher(serverURL string) (*Fetcher, cache.Store) {
	store := cache.NewMemoryStore(1000)
	f := New(nil, store, serverURL+"/maps/{map_name}/{version}/tiles/", "webp", zap.NewNop())
	return f, store
}

func TestTileURL(t *testing.T) {
	f, _ := newTestFetcher("http://example.com")

	url := f.TileURL("ChernarusPlus-Top", "1.26.0", 4, 3, 12)
	assert.Equal(t, "http://example.com/maps/ChernarusPlus-Top/1.26.0/tiles/4/3/12.webp", url)
}

func TestFetchOrGetIdempotent(t *testing.T) {
	var requests atomic.Int64
	server := tileServer(t, &requests, nil)
	defer server.Close()

	f, store := newTestFetcher(server.URL)
	ctx := context.Background()

	data1, status, err := f.FetchOrGet(ctx, "M", "1.0", 2, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, StatusFetched, status)
	assert.True(t, store.Has(cache.TileKey{Map: "M", Zoom: 2, X: 1, Y: 3}))

	data2, status, err := f.FetchOrGet(ctx, "M", "1.0", 2, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, StatusHit, status)

	assert.Equal(t, data1, data2)
	assert.Equal(t, int64(1), requests.Load(), "second call must not hit the network")
}

func TestFetchOrGetFailureNotPersisted(t *testing.T) {
	var requests atomic.Int64
	server := tileServer(t, &requests, map[string]bool{
		"/maps/M/1.0/tiles/2/0/0.webp": true,
	})
	defer server.Close()

	f, store := newTestFetcher(server.URL)

	_, status, err := f.FetchOrGet(context.Background(), "M", "1.0", 2, 0, 0)
	assert.Equal(t, StatusFailed, status)

	var te *TileError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, te.X)
	assert.Equal(t, 0, te.Y)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)

	assert.False(t, store.Has(cache.TileKey{Map: "M", Zoom: 2, X: 0, Y: 0}))
}

func TestFetchOrGetTransportError(t *testing.T) {
	f, store := newTestFetcher("http://127.0.0.1:1") // nothing listens here

	_, status, err := f.FetchOrGet(context.Background(), "M", "1.0", 1, 0, 0)
	assert.Equal(t, StatusFailed, status)

	var te *TileError
	assert.ErrorAs(t, err, &te)
	assert.False(t, store.Has(cache.TileKey{Map: "M", Zoom: 1, X: 0, Y: 0}))
}

func TestFetchGridMixedOutcomes(t *testing.T) {
	var requests atomic.Int64
	server := tileServer(t, &requests, map[string]bool{
		"/maps/M/1.0/tiles/1/0/1.webp": true,
		"/maps/M/1.0/tiles/1/1/1.webp": true,
	})
	defer server.Close()

	f, store := newTestFetcher(server.URL)

	// Pre-seed one tile so the batch sees a hit as well.
	store.Set(cache.TileKey{Map: "M", Zoom: 1, X: 0, Y: 0}, []byte("seeded"))

	var events []Progress
	result, err := f.FetchGrid(context.Background(), "M", "1.0", 1, []int{0, 1}, []int{0, 1}, 1, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Hits)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)

	// One observer event per tile, Done reaching exactly Total.
	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, i+1, e.Done)
		assert.Equal(t, 4, e.Total)
	}
	assert.Equal(t, 4, events[len(events)-1].Done)

	failedCoords := map[[2]int]bool{}
	for _, te := range result.Errors {
		failedCoords[[2]int{te.X, te.Y}] = true
	}
	assert.True(t, failedCoords[[2]int{0, 1}])
	assert.True(t, failedCoords[[2]int{1, 1}])
}

func TestFetchGridWorkerPool(t *testing.T) {
	var requests atomic.Int64
	server := tileServer(t, &requests, nil)
	defer server.Close()

	f, _ := newTestFetcher(server.URL)

	var mu sync.Mutex
	var doneSeen []int
	result, err := f.FetchGrid(context.Background(), "M", "1.0", 2, []int{0, 1, 2, 3}, []int{0, 1, 2, 3}, 4, func(p Progress) {
		mu.Lock()
		doneSeen = append(doneSeen, p.Done)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Equal(t, 16, result.Total)
	assert.Equal(t, 16, result.Fetched)
	assert.Equal(t, int64(16), requests.Load())

	// Progress must stay monotonic and reach the total even with workers.
	require.Len(t, doneSeen, 16)
	for i, done := range doneSeen {
		assert.Equal(t, i+1, done)
	}
}

func TestFetchGridCancelled(t *testing.T) {
	var requests atomic.Int64
	server := tileServer(t, &requests, nil)
	defer server.Close()

	f, _ := newTestFetcher(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchGrid(ctx, "M", "1.0", 1, []int{0, 1}, []int{0, 1}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchOrGetSingleFlightPerKey(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, strings.Repeat("x", 16))
	}))
	defer server.Close()

	f, _ := newTestFetcher(server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.FetchOrGet(context.Background(), "M", "1.0", 3, 5, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), requests.Load(), "concurrent requests for one key must share a single fetch")
}
