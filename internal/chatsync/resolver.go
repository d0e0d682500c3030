package chatsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

// urlCacheTTL stays under the one-hour life of a signed URL so a
// cached entry never outlives the URL it holds.
const urlCacheTTL = 55 * time.Minute

// ErrAttachmentMissing reports that the attachment row references a
// storage object confirmed absent. The entry is sticky: once missing,
// always missing, no retry.
var ErrAttachmentMissing = errors.New("attachment backing object missing")

type cachedURL struct {
	url       string
	expiresAt time.Time
}

// Resolver turns attachment rows into time-bounded retrieval URLs,
// caching results, collapsing concurrent lookups for the same
// attachment, and reporting confirmed-dangling rows to the cleanup
// channel at most once each.
type Resolver struct {
	log      *logger.Logger
	signer   URLSigner
	notifier CleanupNotifier

	group singleflight.Group

	mu       sync.Mutex
	cache    map[uuid.UUID]cachedURL
	missing  map[uuid.UUID]bool
	notified map[uuid.UUID]bool

	now func() time.Time
}

func NewResolver(log *logger.Logger, signer URLSigner, notifier CleanupNotifier) *Resolver {
	return &Resolver{
		log:      log.With("component", "AttachmentResolver"),
		signer:   signer,
		notifier: notifier,
		cache:    make(map[uuid.UUID]cachedURL),
		missing:  make(map[uuid.UUID]bool),
		notified: make(map[uuid.UUID]bool),
		now:      time.Now,
	}
}

// Resolve returns a retrieval URL for the attachment.
// ErrAttachmentMissing comes back for rows whose backing object is
// gone; transient signer failures return their own error and are
// retried on the next call.
func (r *Resolver) Resolve(ctx context.Context, att *types.Attachment) (string, error) {
	if att == nil {
		return "", fmt.Errorf("nil attachment")
	}

	r.mu.Lock()
	if r.missing[att.ID] {
		r.mu.Unlock()
		return "", ErrAttachmentMissing
	}
	if c, ok := r.cache[att.ID]; ok && r.now().Before(c.expiresAt) {
		r.mu.Unlock()
		return c.url, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(att.ID.String(), func() (any, error) {
		url, sErr := r.signer.SignedURL(ctx, att.StorageKey)
		if sErr != nil {
			if errors.Is(sErr, ErrObjectMissing) {
				r.markMissing(ctx, att.ID)
				return "", ErrAttachmentMissing
			}
			return "", sErr
		}
		r.mu.Lock()
		r.cache[att.ID] = cachedURL{url: url, expiresAt: r.now().Add(urlCacheTTL)}
		r.mu.Unlock()
		return url, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Warm resolves URLs for a batch ahead of render. Failures are logged
// and otherwise ignored; rendering retries through Resolve.
func (r *Resolver) Warm(ctx context.Context, atts []*types.Attachment) {
	for _, att := range atts {
		if _, err := r.Resolve(ctx, att); err != nil && !errors.Is(err, ErrAttachmentMissing) {
			r.log.Warn("url prefetch failed", "error", err, "attachment_id", att.ID)
		}
	}
}

// Invalidate drops any cached URL for the attachment, typically after
// its delete event arrives.
func (r *Resolver) Invalidate(attachmentID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, attachmentID)
}

func (r *Resolver) markMissing(ctx context.Context, attachmentID uuid.UUID) {
	r.mu.Lock()
	r.missing[attachmentID] = true
	notify := r.notifier != nil && !r.notified[attachmentID]
	if notify {
		r.notified[attachmentID] = true
	}
	r.mu.Unlock()

	if notify {
		// Fire and forget; cleanup is cosmetic and may be lost. The
		// notification outlives the request that discovered the gap.
		go r.notifier.AttachmentMissing(context.WithoutCancel(ctx), attachmentID)
	}
}
