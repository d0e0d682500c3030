package auth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, rows []*types.UserToken) ([]*types.UserToken, error)
	GetByAccessToken(dbc dbctx.Context, token string) (*types.UserToken, error)
	GetByRefreshToken(dbc dbctx.Context, token string) (*types.UserToken, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: log.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) Create(dbc dbctx.Context, rows []*types.UserToken) ([]*types.UserToken, error) {
	if len(rows) == 0 {
		return []*types.UserToken{}, nil
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

func (r *userTokenRepo) getByColumn(dbc dbctx.Context, column, token string) (*types.UserToken, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.UserToken
	if err := txx.WithContext(dbc.Ctx).
		Where(column+" = ?", token).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *userTokenRepo) GetByAccessToken(dbc dbctx.Context, token string) (*types.UserToken, error) {
	return r.getByColumn(dbc, "access_token", token)
}

func (r *userTokenRepo) GetByRefreshToken(dbc dbctx.Context, token string) (*types.UserToken, error) {
	return r.getByColumn(dbc, "refresh_token", token)
}

func (r *userTokenRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.UserToken{}).Error
}
