package dex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSetsURL is the upstream source of random battle set data.
	DefaultSetsURL = "https://pkmn.github.io/randbats/data/%s.json"

	setsCacheKeyPrefix = "tailglow:sets:"
	setsCacheTTL       = 24 * time.Hour
)

// SetsFetcher downloads random battle set data for a format, caching the raw
// payload in Redis so restarts skip the network fetch. The Redis client is
// optional; without one every call hits the upstream.
type SetsFetcher struct {
	httpClient *http.Client
	cache      *redis.Client
	urlFormat  string
	logger     *slog.Logger
}

// NewSetsFetcher creates a fetcher. cache may be nil.
func NewSetsFetcher(cache *redis.Client, logger *slog.Logger) *SetsFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetsFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		urlFormat:  DefaultSetsURL,
		logger:     logger,
	}
}

// Fetch returns parsed set data for a battle format such as
// "gen9randombattle".
func (f *SetsFetcher) Fetch(ctx context.Context, format string) (*SetData, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return nil, fmt.Errorf("battle format is required")
	}

	if payload, ok := f.cacheGet(ctx, format); ok {
		data, err := ParseSetData(payload, f.logger)
		if err == nil {
			f.logger.Info("loaded set data from cache", "format", format, "species", data.Len())
			return data, nil
		}
		f.logger.Warn("cached set data was unreadable, refetching", "format", format, "error", err)
	}

	payload, err := f.download(ctx, format)
	if err != nil {
		return nil, err
	}

	data, err := ParseSetData(payload, f.logger)
	if err != nil {
		return nil, err
	}

	f.cacheSet(ctx, format, payload)
	f.logger.Info("fetched set data", "format", format, "species", data.Len())
	return data, nil
}

func (f *SetsFetcher) download(ctx context.Context, format string) ([]byte, error) {
	url := fmt.Sprintf(f.urlFormat, format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch set data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("set data request failed with status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read set data: %w", err)
	}
	return payload, nil
}

func (f *SetsFetcher) cacheGet(ctx context.Context, format string) ([]byte, bool) {
	if f.cache == nil {
		return nil, false
	}
	val, err := f.cache.Get(ctx, setsCacheKeyPrefix+format).Bytes()
	if err != nil {
		if err != redis.Nil {
			f.logger.Warn("set data cache read failed", "format", format, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (f *SetsFetcher) cacheSet(ctx context.Context, format string, payload []byte) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, setsCacheKeyPrefix+format, payload, setsCacheTTL).Err(); err != nil {
		f.logger.Warn("set data cache write failed", "format", format, "error", err)
	}
}
