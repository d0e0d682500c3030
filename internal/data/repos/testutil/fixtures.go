package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		Role:         role,
		PasswordHash: "x",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedDirectThread(tb testing.TB, ctx context.Context, tx *gorm.DB, coach, client *types.User) *types.Thread {
	tb.Helper()
	key := types.DirectKeyFor(coach.ID, client.ID)
	now := time.Now().UTC()
	th := &types.Thread{
		ID:            uuid.New(),
		Title:         client.Name,
		CoachID:       coach.ID,
		CreatedBy:     coach.ID,
		DirectKey:     &key,
		Metadata:      datatypes.JSON([]byte(`{}`)),
		LastMessageAt: now,
	}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	members := []*types.ThreadMember{
		{ID: uuid.New(), ThreadID: th.ID, UserID: coach.ID, Role: types.MemberRoleCoach},
		{ID: uuid.New(), ThreadID: th.ID, UserID: client.ID, Role: types.MemberRoleClient},
	}
	if err := tx.WithContext(ctx).Create(&members).Error; err != nil {
		tb.Fatalf("seed members: %v", err)
	}
	return th
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, threadID, senderID uuid.UUID, body string, at time.Time) *types.Message {
	tb.Helper()
	m := &types.Message{
		ID:        uuid.New(),
		ThreadID:  threadID,
		SenderID:  senderID,
		Body:      body,
		Kind:      types.MessageKindText,
		Metadata:  datatypes.JSON([]byte(`{}`)),
		CreatedAt: at,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}
