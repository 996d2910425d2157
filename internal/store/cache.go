package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
	"github.com/hyperifyio/goresearch-verify/internal/rerr"
)

// cachedEvidence is the JSON shape stored in query_cache_entries.evidence_json
// and (mirrored) as the Redis value.
type cachedEvidence struct {
	AnswerText       string                 `json:"answer_text"`
	ConfidenceLevel  domain.ConfidenceLevel `json:"confidence_level"`
	ConfidenceReason string                 `json:"confidence_reason"`
	Evidence         []domain.Evidence      `json:"evidence"`
	ExpiresAt        time.Time              `json:"expires_at"`
}

// RedisCache fronts the persistent query_cache_entries table with a
// best-effort Redis layer (itsneelabh-gomind's RedisTaskStore SetNX/Get
// pattern, generalized from task records to QueryCacheEntry). Redis is
// optional: a nil Client falls back to PostgreSQL only.
type RedisCache struct {
	Client    *redis.Client
	KeyPrefix string
}

func (s *Store) cacheKey(queryHash string) string {
	prefix := "goresearch-verify:cache:"
	if s.redis != nil && s.redis.KeyPrefix != "" {
		prefix = s.redis.KeyPrefix
	}
	return prefix + queryHash
}

// CacheGet implements capability.CacheRepository.CacheGet: read-only,
// Redis first (fast path), falling back to and repopulating from Postgres.
// Expired entries are never returned (spec.md 3, 5).
func (s *Store) CacheGet(ctx context.Context, queryHash string) (domain.QueryCacheEntry, bool, error) {
	if s.redis != nil && s.redis.Client != nil {
		raw, err := s.redis.Client.Get(ctx, s.cacheKey(queryHash)).Bytes()
		if err == nil {
			var ce cachedEvidence
			if jsonErr := json.Unmarshal(raw, &ce); jsonErr == nil && ce.ExpiresAt.After(time.Now().UTC()) {
				return toEntry(queryHash, ce), true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			// Redis unavailable: fall through to PostgreSQL rather than fail the read.
			_ = err
		}
	}

	const q = `SELECT answer_text, confidence_level, confidence_reason, evidence_json, expires_at
	           FROM query_cache_entries WHERE query_hash = $1 AND expires_at > now()`
	row := s.pool.QueryRow(ctx, q, queryHash)
	var ce cachedEvidence
	var rawEvidence []byte
	if err := row.Scan(&ce.AnswerText, &ce.ConfidenceLevel, &ce.ConfidenceReason, &rawEvidence, &ce.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.QueryCacheEntry{}, false, nil
		}
		return domain.QueryCacheEntry{}, false, fmt.Errorf("store: cache get: %w: %w", rerr.ErrStorage, err)
	}
	if err := json.Unmarshal(rawEvidence, &ce.Evidence); err != nil {
		return domain.QueryCacheEntry{}, false, fmt.Errorf("store: unmarshal cached evidence: %w", err)
	}

	entry := toEntry(queryHash, ce)
	if s.redis != nil && s.redis.Client != nil {
		if encoded, err := json.Marshal(ce); err == nil {
			ttl := time.Until(ce.ExpiresAt)
			if ttl > 0 {
				s.redis.Client.Set(ctx, s.cacheKey(queryHash), encoded, ttl)
			}
		}
	}
	return entry, true, nil
}

// CachePut implements capability.CacheRepository.CachePut with
// put-if-absent semantics: the PostgreSQL write uses ON CONFLICT DO
// NOTHING so a later, worse ACCEPT never overwrites an earlier one
// (spec.md 5); the Redis mirror uses SetNX for the same reason.
func (s *Store) CachePut(ctx context.Context, entry domain.QueryCacheEntry) error {
	evidenceJSON, err := json.Marshal(entry.Evidence)
	if err != nil {
		return fmt.Errorf("store: marshal evidence: %w", err)
	}

	const q = `INSERT INTO query_cache_entries (query_hash, answer_text, confidence_level, confidence_reason, evidence_json, expires_at)
	           VALUES ($1, $2, $3, $4, $5, $6)
	           ON CONFLICT (query_hash) DO NOTHING`
	if _, err := s.pool.Exec(ctx, q, entry.QueryHash, entry.Snapshot.AnswerText, entry.Snapshot.ConfidenceLevel, entry.Snapshot.ConfidenceReason, evidenceJSON, entry.ExpiresAt); err != nil {
		return fmt.Errorf("store: cache put: %w: %w", rerr.ErrStorage, err)
	}

	if s.redis != nil && s.redis.Client != nil {
		ce := cachedEvidence{
			AnswerText:       entry.Snapshot.AnswerText,
			ConfidenceLevel:  entry.Snapshot.ConfidenceLevel,
			ConfidenceReason: entry.Snapshot.ConfidenceReason,
			Evidence:         entry.Evidence,
			ExpiresAt:        entry.ExpiresAt,
		}
		if encoded, err := json.Marshal(ce); err == nil {
			ttl := time.Until(entry.ExpiresAt)
			if ttl > 0 {
				s.redis.Client.SetNX(ctx, s.cacheKey(entry.QueryHash), encoded, ttl)
			}
		}
	}
	return nil
}

func toEntry(queryHash string, ce cachedEvidence) domain.QueryCacheEntry {
	return domain.QueryCacheEntry{
		QueryHash: queryHash,
		Snapshot: domain.AnswerSnapshot{
			AnswerText:       ce.AnswerText,
			ConfidenceLevel:  ce.ConfidenceLevel,
			ConfidenceReason: ce.ConfidenceReason,
		},
		Evidence:  ce.Evidence,
		ExpiresAt: ce.ExpiresAt,
	}
}
