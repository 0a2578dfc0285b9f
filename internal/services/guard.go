package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifeline/pkg/cache"

	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoundGuard admits at most one active offer round per request. The holder
// is identified by its round number so a stale round cannot free a newer
// one. A held guard lapses on its own after ttl.
type RoundGuard interface {
	Acquire(ctx context.Context, requestID primitive.ObjectID, round int, ttl time.Duration) (bool, error)
	Release(ctx context.Context, requestID primitive.ObjectID, round int) error
}

func roundGuardKey(requestID primitive.ObjectID) string {
	return "offer_round:" + requestID.Hex()
}

type redisRoundGuard struct {
	cache *cache.RedisCache
}

// NewRedisRoundGuard shares the guard across every instance through SETNX.
func NewRedisRoundGuard(redisCache *cache.RedisCache) RoundGuard {
	return &redisRoundGuard{cache: redisCache}
}

func (g *redisRoundGuard) Acquire(ctx context.Context, requestID primitive.ObjectID, round int, ttl time.Duration) (bool, error) {
	ok, err := g.cache.SetNX(ctx, roundGuardKey(requestID), round, ttl)
	if err != nil {
		return false, fmt.Errorf("failed to acquire offer round guard: %w", err)
	}
	return ok, nil
}

func (g *redisRoundGuard) Release(ctx context.Context, requestID primitive.ObjectID, round int) error {
	if _, err := g.cache.DeleteIfEquals(ctx, roundGuardKey(requestID), round); err != nil {
		return fmt.Errorf("failed to release offer round guard: %w", err)
	}
	return nil
}

type heldRound struct {
	round int
	until time.Time
}

type memoryRoundGuard struct {
	clock clockz.Clock
	mu    sync.Mutex
	held  map[primitive.ObjectID]heldRound
}

// NewMemoryRoundGuard keeps the guard in process. Single instance only.
func NewMemoryRoundGuard(clock clockz.Clock) RoundGuard {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &memoryRoundGuard{
		clock: clock,
		held:  make(map[primitive.ObjectID]heldRound),
	}
}

func (g *memoryRoundGuard) Acquire(ctx context.Context, requestID primitive.ObjectID, round int, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if h, ok := g.held[requestID]; ok && now.Before(h.until) {
		return false, nil
	}
	g.held[requestID] = heldRound{round: round, until: now.Add(ttl)}
	return true, nil
}

func (g *memoryRoundGuard) Release(ctx context.Context, requestID primitive.ObjectID, round int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok := g.held[requestID]; ok && h.round == round {
		delete(g.held, requestID)
	}
	return nil
}
