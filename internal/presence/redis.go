package presence

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

const presenceKeyTTL = 2 * time.Minute

func presenceKey(threadID uuid.UUID) string     { return "chat.presence." + threadID.String() }
func presenceChannel(threadID uuid.UUID) string { return "chat.presence.evt." + threadID.String() }

// redisTracker shares presence across service instances through a
// per-thread hash of connection refcounts plus a pub/sub channel that
// signals members to re-read the hash.
type redisTracker struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRedisTracker(log *logger.Logger) (Tracker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisTracker{
		log: log.With("component", "RedisPresenceTracker"),
		rdb: rdb,
	}, nil
}

func (t *redisTracker) Join(ctx context.Context, threadID, userID uuid.UUID) (Handle, error) {
	key := presenceKey(threadID)

	pipe := t.rdb.TxPipeline()
	pipe.HIncrBy(ctx, key, userID.String(), 1)
	pipe.Expire(ctx, key, presenceKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("presence join: %w", err)
	}

	sub := t.rdb.Subscribe(ctx, presenceChannel(threadID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("presence subscribe: %w", err)
	}

	h := &redisHandle{
		tracker:  t,
		threadID: threadID,
		userID:   userID,
		sub:      sub,
		updates:  make(chan Snapshot, 8),
		done:     make(chan struct{}),
	}

	snap, err := t.snapshot(ctx, threadID)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}
	h.count.Store(int64(len(snap.UserIDs)))

	go h.run()

	// Wake the other members up after this join.
	if err := t.rdb.Publish(ctx, presenceChannel(threadID), "sync").Err(); err != nil {
		t.log.Warn("presence publish failed", "error", err, "thread_id", threadID)
	}
	return h, nil
}

func (t *redisTracker) snapshot(ctx context.Context, threadID uuid.UUID) (Snapshot, error) {
	fields, err := t.rdb.HKeys(ctx, presenceKey(threadID)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("presence snapshot: %w", err)
	}
	snap := Snapshot{ThreadID: threadID, UserIDs: make([]uuid.UUID, 0, len(fields))}
	for _, f := range fields {
		id, pErr := uuid.Parse(f)
		if pErr != nil {
			continue
		}
		snap.UserIDs = append(snap.UserIDs, id)
	}
	return snap, nil
}

type redisHandle struct {
	tracker  *redisTracker
	threadID uuid.UUID
	userID   uuid.UUID
	sub      *goredis.PubSub
	updates  chan Snapshot
	done     chan struct{}

	count     atomic.Int64
	closeOnce sync.Once
}

func (h *redisHandle) run() {
	ch := h.sub.Channel()
	for {
		select {
		case <-h.done:
			return
		case m, ok := <-ch:
			if !ok || m == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			snap, err := h.tracker.snapshot(ctx, h.threadID)
			cancel()
			if err != nil {
				h.tracker.log.Warn("presence snapshot failed", "error", err, "thread_id", h.threadID)
				continue
			}
			h.count.Store(int64(len(snap.UserIDs)))
			select {
			case h.updates <- snap:
			default:
			}
		}
	}
}

func (h *redisHandle) Count() int { return int(h.count.Load()) }

func (h *redisHandle) Updates() <-chan Snapshot { return h.updates }

func (h *redisHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.done)
		_ = h.sub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		key := presenceKey(h.threadID)
		n, hErr := h.tracker.rdb.HIncrBy(ctx, key, h.userID.String(), -1).Result()
		if hErr != nil {
			err = fmt.Errorf("presence leave: %w", hErr)
		} else if n <= 0 {
			_ = h.tracker.rdb.HDel(ctx, key, h.userID.String()).Err()
		}
		if pErr := h.tracker.rdb.Publish(ctx, presenceChannel(h.threadID), "sync").Err(); pErr != nil {
			h.tracker.log.Warn("presence publish failed", "error", pErr, "thread_id", h.threadID)
		}
		h.count.Store(0)
		close(h.updates)
	})
	return err
}
