package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	noteKeyPrefix    = "tailglow:rag:note:"
	keywordKeyPrefix = "tailglow:rag:kw:"
)

// RedisStore is a keyword-indexed note store on Redis. Each note is stored
// as JSON under its own key; a set per keyword holds the IDs of notes
// mentioning it.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a Redis-backed note store.
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, logger: logger}
}

// Add persists a note under its keywords. A note without keywords is
// rejected; it could never be retrieved.
func (s *RedisStore) Add(ctx context.Context, note Note) error {
	if len(note.Keywords) == 0 {
		return fmt.Errorf("note has no keywords")
	}
	if note.ID == "" {
		note.ID = uuid.New().String()
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	if err := s.client.Set(ctx, noteKeyPrefix+note.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store note: %w", err)
	}
	for _, kw := range note.Keywords {
		key := keywordKeyPrefix + normalizeKeyword(kw)
		if err := s.client.SAdd(ctx, key, note.ID).Err(); err != nil {
			return fmt.Errorf("failed to index note under %q: %w", kw, err)
		}
	}
	return nil
}

// Retrieve returns note texts matching any of the keywords, ordered by how
// many keywords each note matched.
func (s *RedisStore) Retrieve(ctx context.Context, keywords []string, limit int) ([]string, error) {
	if limit <= 0 || len(keywords) == 0 {
		return nil, nil
	}

	matches := make(map[string]int) // note ID -> keyword hits
	for _, kw := range keywords {
		ids, err := s.client.SMembers(ctx, keywordKeyPrefix+normalizeKeyword(kw)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read keyword index: %w", err)
		}
		for _, id := range ids {
			matches[id]++
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	type ranked struct {
		id   string
		hits int
	}
	order := make([]ranked, 0, len(matches))
	for id, hits := range matches {
		order = append(order, ranked{id: id, hits: hits})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].hits != order[j].hits {
			return order[i].hits > order[j].hits
		}
		return order[i].id < order[j].id
	})

	var texts []string
	for _, r := range order {
		if len(texts) >= limit {
			break
		}
		data, err := s.client.Get(ctx, noteKeyPrefix+r.id).Bytes()
		if err == redis.Nil {
			// Index entry outlived its note; skip it.
			s.logger.Warn("dangling note index entry", "note_id", r.id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read note: %w", err)
		}
		var note Note
		if err := json.Unmarshal(data, &note); err != nil {
			s.logger.Warn("corrupt note payload, skipping", "note_id", r.id, "error", err)
			continue
		}
		texts = append(texts, note.Text)
	}
	return texts, nil
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}
