package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type AttachmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Attachment) ([]*types.Attachment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Attachment, error)
	ListByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.Attachment, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type attachmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttachmentRepo(db *gorm.DB, log *logger.Logger) AttachmentRepo {
	return &attachmentRepo{db: db, log: log.With("repo", "AttachmentRepo")}
}

func (r *attachmentRepo) Create(dbc dbctx.Context, rows []*types.Attachment) ([]*types.Attachment, error) {
	if len(rows) == 0 {
		return []*types.Attachment{}, nil
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

func (r *attachmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Attachment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing attachment_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Attachment
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

func (r *attachmentRepo) ListByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.Attachment, error) {
	if len(messageIDs) == 0 {
		return []*types.Attachment{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Attachment
	if err := txx.WithContext(dbc.Ctx).
		Where("message_id IN ?", messageIDs).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attachmentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing attachment_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Attachment{}).Error
}
