package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error)
	// ListBefore returns up to limit messages strictly older than before
	// (all messages when before is nil), normalized to ascending
	// created_at order.
	ListBefore(dbc dbctx.Context, threadID uuid.UUID, before *time.Time, limit int) ([]*types.Message, error)
	LatestByThread(dbc dbctx.Context, threadID uuid.UUID) (*types.Message, error)
	// Delete hard-deletes a message and cascades its attachments,
	// reactions, and read receipts.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *messageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing message_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Message
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *messageRepo) ListBefore(dbc dbctx.Context, threadID uuid.UUID, before *time.Time, limit int) ([]*types.Message, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	// Ceiling is the largest page plus the pagination look-ahead row.
	if limit <= 0 {
		limit = 50
	}
	if limit > 201 {
		limit = 201
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("thread_id = ?", threadID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var out []*types.Message
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	// Normalize to ASC for clients.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) LatestByThread(dbc dbctx.Context, threadID uuid.UUID) (*types.Message, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Message
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *messageRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing message_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	txx = txx.WithContext(dbc.Ctx)
	if err := txx.Where("message_id = ?", id).Delete(&types.Attachment{}).Error; err != nil {
		return err
	}
	if err := txx.Where("message_id = ?", id).Delete(&types.Reaction{}).Error; err != nil {
		return err
	}
	if err := txx.Where("message_id = ?", id).Delete(&types.ReadReceipt{}).Error; err != nil {
		return err
	}
	return txx.Where("id = ?", id).Delete(&types.Message{}).Error
}
