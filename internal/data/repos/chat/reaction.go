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

type ReactionRepo interface {
	// Toggle inserts the (message, user, emoji) reaction if absent and
	// deletes it if present. Returns the affected row either way, with
	// added reporting which happened; the removed row keeps its stored
	// identity so change-feed consumers can drop it by ID.
	Toggle(dbc dbctx.Context, messageID, userID uuid.UUID, emoji string) (r *types.Reaction, added bool, err error)
	ListByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.Reaction, error)
}

type reactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReactionRepo(db *gorm.DB, log *logger.Logger) ReactionRepo {
	return &reactionRepo{db: db, log: log.With("repo", "ReactionRepo")}
}

func (r *reactionRepo) Toggle(dbc dbctx.Context, messageID, userID uuid.UUID, emoji string) (*types.Reaction, bool, error) {
	if messageID == uuid.Nil || userID == uuid.Nil {
		return nil, false, fmt.Errorf("missing message_id or user_id")
	}
	if emoji == "" {
		return nil, false, fmt.Errorf("missing emoji")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	txx = txx.WithContext(dbc.Ctx)

	var existing types.Reaction
	err := txx.
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&existing).Error
	switch {
	case err == nil:
		if dErr := txx.Where("id = ?", existing.ID).Delete(&types.Reaction{}).Error; dErr != nil {
			return nil, false, dErr
		}
		return &existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := &types.Reaction{
			ID:        uuid.New(),
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: time.Now().UTC(),
		}
		if cErr := txx.Create(row).Error; cErr != nil {
			return nil, false, cErr
		}
		return row, true, nil
	default:
		return nil, false, err
	}
}

func (r *reactionRepo) ListByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.Reaction, error) {
	if len(messageIDs) == 0 {
		return []*types.Reaction{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Reaction
	if err := txx.WithContext(dbc.Ctx).
		Where("message_id IN ?", messageIDs).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
