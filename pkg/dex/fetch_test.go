package dex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDownloadsAndCaches(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/gen9randombattle.json", r.URL.Path)
		_, _ = w.Write([]byte(sampleSetsJSON))
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	f := NewSetsFetcher(client, nil)
	f.urlFormat = server.URL + "/%s.json"

	ctx := context.Background()
	data, err := f.Fetch(ctx, "gen9randombattle")
	require.NoError(t, err)
	assert.Equal(t, 2, data.Len())
	assert.Equal(t, 1, requests)

	// Second fetch is served from the cache.
	data, err = f.Fetch(ctx, "gen9randombattle")
	require.NoError(t, err)
	assert.Equal(t, 2, data.Len())
	assert.Equal(t, 1, requests)
}

func TestFetchWithoutCache(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(sampleSetsJSON))
	}))
	defer server.Close()

	f := NewSetsFetcher(nil, nil)
	f.urlFormat = server.URL + "/%s.json"

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(ctx, "gen9randombattle")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, requests, "every fetch hits upstream without a cache")
}

func TestFetchErrors(t *testing.T) {
	t.Run("empty format", func(t *testing.T) {
		f := NewSetsFetcher(nil, nil)
		_, err := f.Fetch(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		f := NewSetsFetcher(nil, nil)
		f.urlFormat = server.URL + "/%s.json"
		_, err := f.Fetch(context.Background(), "gen9randombattle")
		assert.Error(t, err)
	})

	t.Run("corrupt cache falls through to upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(sampleSetsJSON))
		}))
		defer server.Close()

		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer func() { _ = client.Close() }()
		require.NoError(t, mr.Set("tailglow:sets:gen9randombattle", "not json"))

		f := NewSetsFetcher(client, nil)
		f.urlFormat = server.URL + "/%s.json"
		data, err := f.Fetch(context.Background(), "gen9randombattle")
		require.NoError(t, err)
		assert.Equal(t, 2, data.Len())
	})
}
