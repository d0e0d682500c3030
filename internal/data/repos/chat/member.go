package chat

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type MemberRepo interface {
	Create(dbc dbctx.Context, rows []*types.ThreadMember) ([]*types.ThreadMember, error)
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ThreadMember, error)
	IsMember(dbc dbctx.Context, threadID, userID uuid.UUID) (bool, error)
	Delete(dbc dbctx.Context, threadID, userID uuid.UUID) error
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, log *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: log.With("repo", "MemberRepo")}
}

func (r *memberRepo) Create(dbc dbctx.Context, rows []*types.ThreadMember) ([]*types.ThreadMember, error) {
	if len(rows) == 0 {
		return []*types.ThreadMember{}, nil
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

func (r *memberRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ThreadMember, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ThreadMember
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) IsMember(dbc dbctx.Context, threadID, userID uuid.UUID) (bool, error) {
	if threadID == uuid.Nil || userID == uuid.Nil {
		return false, fmt.Errorf("missing thread_id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ThreadMember{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *memberRepo) Delete(dbc dbctx.Context, threadID, userID uuid.UUID) error {
	if threadID == uuid.Nil || userID == uuid.Nil {
		return fmt.Errorf("missing thread_id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Delete(&types.ThreadMember{}).Error
}
