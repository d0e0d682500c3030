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

type ThreadRepo interface {
	Create(dbc dbctx.Context, rows []*types.Thread) ([]*types.Thread, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Thread, error)
	// FindDirect returns the direct thread for a (coach, client) pair, or
	// nil when none exists.
	FindDirect(dbc dbctx.Context, coachID, clientID uuid.UUID) (*types.Thread, error)
	TouchLastMessageAt(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: log.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(dbc dbctx.Context, rows []*types.Thread) ([]*types.Thread, error) {
	if len(rows) == 0 {
		return []*types.Thread{}, nil
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

func (r *threadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Thread
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

func (r *threadRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Thread, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Thread
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Thread{}).
		Joins("JOIN chat_thread_member ON chat_thread_member.thread_id = chat_thread.id").
		Where("chat_thread_member.user_id = ?", userID).
		Order("chat_thread.last_message_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *threadRepo) FindDirect(dbc dbctx.Context, coachID, clientID uuid.UUID) (*types.Thread, error) {
	if coachID == uuid.Nil || clientID == uuid.Nil {
		return nil, fmt.Errorf("missing coach_id or client_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	key := types.DirectKeyFor(coachID, clientID)
	var out types.Thread
	if err := txx.WithContext(dbc.Ctx).
		Where("direct_key = ?", key).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *threadRepo) TouchLastMessageAt(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Thread{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at": at,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// Delete hard-deletes the thread with its members, messages, and all
// message children. Callers are expected to run this inside a transaction.
func (r *threadRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	txx = txx.WithContext(dbc.Ctx)
	if err := txx.Where("thread_id = ?", id).Delete(&types.Attachment{}).Error; err != nil {
		return err
	}
	if err := txx.
		Where("message_id IN (?)", txx.Session(&gorm.Session{NewDB: true}).
			Model(&types.Message{}).Select("id").Where("thread_id = ?", id)).
		Delete(&types.Reaction{}).Error; err != nil {
		return err
	}
	if err := txx.
		Where("message_id IN (?)", txx.Session(&gorm.Session{NewDB: true}).
			Model(&types.Message{}).Select("id").Where("thread_id = ?", id)).
		Delete(&types.ReadReceipt{}).Error; err != nil {
		return err
	}
	if err := txx.Where("thread_id = ?", id).Delete(&types.Message{}).Error; err != nil {
		return err
	}
	if err := txx.Where("thread_id = ?", id).Delete(&types.ThreadMember{}).Error; err != nil {
		return err
	}
	return txx.Where("id = ?", id).Delete(&types.Thread{}).Error
}
