package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/data/repos"
	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/apierr"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/envutil"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/platform/requestdata"
)

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthService interface {
	Register(dbc dbctx.Context, email, name, password, role string) (*types.User, *TokenPair, error)
	Login(dbc dbctx.Context, email, password string) (*types.User, *TokenPair, error)
	Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error)
	// Validate parses and checks an access token and returns the request
	// identity it carries.
	Validate(dbc dbctx.Context, accessToken string) (*requestdata.RequestData, error)
}

type authService struct {
	db  *gorm.DB
	log *logger.Logger

	users  repos.UserRepo
	tokens repos.UserTokenRepo

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, tokenRepo repos.UserTokenRepo) (AuthService, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	return &authService{
		db:         db,
		log:        baseLog.With("service", "AuthService"),
		users:      userRepo,
		tokens:     tokenRepo,
		secret:     []byte(secret),
		accessTTL:  envutil.Duration("JWT_ACCESS_TTL", 15*time.Minute),
		refreshTTL: envutil.Duration("JWT_REFRESH_TTL", 30*24*time.Hour),
	}, nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) mintPair(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	now := time.Now().UTC()
	accessExp := now.Add(s.accessTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	accessStr, err := access.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		ID:        uuid.NewString(),
	})
	refreshStr, err := refresh.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	row := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
		ExpiresAt:    accessExp,
		CreatedAt:    now,
	}
	if _, err := s.tokens.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessStr, RefreshToken: refreshStr, ExpiresAt: accessExp}, nil
}

func (s *authService) Register(dbc dbctx.Context, email, name, password, role string) (*types.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, apierr.New(400, "BAD_EMAIL", fmt.Errorf("valid email required"))
	}
	if len(password) < 8 {
		return nil, nil, apierr.New(400, "WEAK_PASSWORD", fmt.Errorf("password must be at least 8 characters"))
	}
	if role != types.UserRoleCoach && role != types.UserRoleClient {
		return nil, nil, apierr.New(400, "BAD_ROLE", fmt.Errorf("role must be coach or client"))
	}

	if existing, err := s.users.GetByEmail(dbc, email); err != nil {
		return nil, nil, err
	} else if existing != nil {
		return nil, nil, apierr.New(409, "EMAIL_TAKEN", fmt.Errorf("email already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.Create(dbc, []*types.User{user}); err != nil {
		return nil, nil, err
	}

	pair, err := s.mintPair(dbc, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("user registered", "user_id", user.ID, "role", role)
	return user, pair, nil
}

func (s *authService) Login(dbc dbctx.Context, email, password string) (*types.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(dbc, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apierr.New(401, "BAD_CREDENTIALS", fmt.Errorf("invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apierr.New(401, "BAD_CREDENTIALS", fmt.Errorf("invalid email or password"))
	}

	pair, err := s.mintPair(dbc, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error) {
	if _, err := s.parse(refreshToken); err != nil {
		return nil, apierr.New(401, "BAD_REFRESH_TOKEN", err)
	}
	row, err := s.tokens.GetByRefreshToken(dbc, refreshToken)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.New(401, "BAD_REFRESH_TOKEN", fmt.Errorf("unknown refresh token"))
	}

	user, err := s.users.GetByID(dbc, row.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.New(401, "BAD_REFRESH_TOKEN", fmt.Errorf("token user gone"))
	}

	pair, err := s.mintPair(dbc, user)
	if err != nil {
		return nil, err
	}
	// Refresh tokens are single use.
	if err := s.tokens.DeleteByIDs(dbc, []uuid.UUID{row.ID}); err != nil {
		s.log.Warn("stale token row not deleted", "error", err, "token_id", row.ID)
	}
	return pair, nil
}

func (s *authService) Validate(dbc dbctx.Context, accessToken string) (*requestdata.RequestData, error) {
	cl, err := s.parse(accessToken)
	if err != nil {
		return nil, apierr.New(401, "BAD_ACCESS_TOKEN", err)
	}
	userID, err := uuid.Parse(cl.Subject)
	if err != nil {
		return nil, apierr.New(401, "BAD_ACCESS_TOKEN", fmt.Errorf("bad subject: %w", err))
	}
	row, err := s.tokens.GetByAccessToken(dbc, accessToken)
	if err != nil {
		return nil, err
	}
	if row == nil || row.UserID != userID {
		return nil, apierr.New(401, "BAD_ACCESS_TOKEN", fmt.Errorf("token revoked"))
	}
	return &requestdata.RequestData{
		UserID:      userID,
		Role:        cl.Role,
		TokenString: accessToken,
	}, nil
}

func (s *authService) parse(tokenStr string) (*claims, error) {
	var cl claims
	token, err := jwt.ParseWithClaims(tokenStr, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return &cl, nil
}
