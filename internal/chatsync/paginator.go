package chatsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

const (
	// DefaultPageSize is the page length used when the caller passes 0.
	DefaultPageSize = 50
	// MaxPageSize caps a caller-chosen page length.
	MaxPageSize = 200
)

// Paginator walks one thread's history backwards from the newest
// loaded message. At most one fetch runs at a time; LoadOlder calls
// made while a fetch is in flight return immediately without issuing
// a second query.
type Paginator struct {
	log    *logger.Logger
	source MessageSource
	store  *Store

	pageSize int

	// stale, when non-nil, is checked after each fetch; a true result
	// means the owning session has closed and the page is discarded.
	stale func() bool

	mu       sync.Mutex
	inFlight bool
	hasMore  bool

	// onURLs, when non-nil, receives the attachments of each merged
	// page so retrieval URLs can be warmed ahead of render.
	onURLs func(ctx context.Context, atts []*types.Attachment)
}

func NewPaginator(log *logger.Logger, source MessageSource, store *Store, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &Paginator{
		log:      log.With("component", "Paginator"),
		source:   source,
		store:    store,
		pageSize: pageSize,
		hasMore:  true,
	}
}

// HasMore reports whether another LoadOlder call can still produce
// messages. Each fetch asks for one row beyond the page size; when that
// look-ahead row is absent the history is exhausted and HasMore latches
// false, including when the thread length is an exact multiple of the
// page size.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// LoadOlder fetches and merges the next older page. The returned count
// is the number of messages merged; 0 with a nil error means either
// history is exhausted or another fetch was already running.
func (p *Paginator) LoadOlder(ctx context.Context) (int, error) {
	p.mu.Lock()
	if p.inFlight || !p.hasMore {
		p.mu.Unlock()
		return 0, nil
	}
	p.inFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	before := p.store.OldestCreatedAt()
	msgs, err := p.source.MessagesBefore(ctx, p.store.ThreadID(), before, p.pageSize+1)
	if err != nil {
		return 0, fmt.Errorf("load page: %w", err)
	}
	if p.stale != nil && p.stale() {
		return 0, nil
	}

	if len(msgs) <= p.pageSize {
		p.mu.Lock()
		p.hasMore = false
		p.mu.Unlock()
	} else {
		// The extra row is only the look-ahead probe; it belongs to the
		// next page. msgs is ascending, so the probe is the oldest.
		msgs = msgs[1:]
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	atts, err := p.source.AttachmentsFor(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load attachments: %w", err)
	}
	reacts, err := p.source.ReactionsFor(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load reactions: %w", err)
	}
	reads, err := p.source.ReceiptsFor(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load receipts: %w", err)
	}
	if p.stale != nil && p.stale() {
		return 0, nil
	}

	p.store.PrependPage(msgs, atts, reacts, reads)

	if p.onURLs != nil && len(atts) > 0 {
		p.onURLs(ctx, atts)
	}
	p.log.Debug("page merged",
		"thread_id", p.store.ThreadID(),
		"messages", len(msgs),
		"attachments", len(atts),
	)
	return len(msgs), nil
}
