package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type ReceiptRepo interface {
	// Upsert is idempotent: a second call for the same (message, user)
	// pair is a no-op and returns the existing row.
	Upsert(dbc dbctx.Context, messageID, userID uuid.UUID) (*types.ReadReceipt, error)
	ListByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.ReadReceipt, error)
}

type receiptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReceiptRepo(db *gorm.DB, log *logger.Logger) ReceiptRepo {
	return &receiptRepo{db: db, log: log.With("repo", "ReceiptRepo")}
}

func (r *receiptRepo) Upsert(dbc dbctx.Context, messageID, userID uuid.UUID) (*types.ReadReceipt, error) {
	if messageID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing message_id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	txx = txx.WithContext(dbc.Ctx)

	row := &types.ReadReceipt{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    time.Now().UTC(),
	}
	if err := txx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return nil, err
	}

	var out types.ReadReceipt
	if err := txx.Session(&gorm.Session{NewDB: true}).
		WithContext(dbc.Ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *receiptRepo) ListByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.ReadReceipt, error) {
	if len(messageIDs) == 0 {
		return []*types.ReadReceipt{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ReadReceipt
	if err := txx.WithContext(dbc.Ctx).
		Where("message_id IN ?", messageIDs).
		Order("read_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
