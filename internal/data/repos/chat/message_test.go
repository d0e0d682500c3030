package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/data/repos/testutil"
	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
)

func TestMessageRepoListBeforePagesAscending(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewMessageRepo(db, testutil.Logger(t))

	coach := testutil.SeedUser(t, ctx, tx, "coach-page@example.com", types.UserRoleCoach)
	client := testutil.SeedUser(t, ctx, tx, "client-page@example.com", types.UserRoleClient)
	th := testutil.SeedDirectThread(t, ctx, tx, coach, client)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	bodies := []string{"one", "two", "three", "four", "five"}
	for i, b := range bodies {
		testutil.SeedMessage(t, ctx, tx, th.ID, coach.ID, b, base.Add(time.Duration(i)*time.Minute))
	}

	// Newest page first.
	page, err := repo.ListBefore(dbc, th.ID, nil, 2)
	if err != nil {
		t.Fatalf("ListBefore: %v", err)
	}
	if len(page) != 2 || page[0].Body != "four" || page[1].Body != "five" {
		t.Fatalf("newest page = %v, want [four five]", bodiesOf(page))
	}

	// Walk backwards with the cursor.
	cursor := page[0].CreatedAt
	page, err = repo.ListBefore(dbc, th.ID, &cursor, 2)
	if err != nil {
		t.Fatalf("ListBefore (cursor): %v", err)
	}
	if len(page) != 2 || page[0].Body != "two" || page[1].Body != "three" {
		t.Fatalf("second page = %v, want [two three]", bodiesOf(page))
	}

	cursor = page[0].CreatedAt
	page, err = repo.ListBefore(dbc, th.ID, &cursor, 2)
	if err != nil {
		t.Fatalf("ListBefore (tail): %v", err)
	}
	if len(page) != 1 || page[0].Body != "one" {
		t.Fatalf("tail page = %v, want [one]", bodiesOf(page))
	}
}

func TestMessageRepoDeleteCascadesChildren(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	messages := NewMessageRepo(db, testutil.Logger(t))
	reactions := NewReactionRepo(db, testutil.Logger(t))

	coach := testutil.SeedUser(t, ctx, tx, "coach-msgdel@example.com", types.UserRoleCoach)
	client := testutil.SeedUser(t, ctx, tx, "client-msgdel@example.com", types.UserRoleClient)
	th := testutil.SeedDirectThread(t, ctx, tx, coach, client)
	msg := testutil.SeedMessage(t, ctx, tx, th.ID, coach.ID, "bye", time.Now().UTC())

	if _, _, err := reactions.Toggle(dbc, msg.ID, client.ID, "🔥"); err != nil {
		t.Fatalf("seed reaction: %v", err)
	}

	if err := messages.Delete(dbc, msg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if m, err := messages.GetByID(dbc, msg.ID); err != nil || m != nil {
		t.Fatalf("message survived delete: m=%v err=%v", m, err)
	}
	if rows, err := reactions.ListByMessageIDs(dbc, []uuid.UUID{msg.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("reactions survived delete: n=%d err=%v", len(rows), err)
	}
}

func bodiesOf(msgs []*types.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Body
	}
	return out
}
