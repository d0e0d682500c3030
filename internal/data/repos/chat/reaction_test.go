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

func TestReactionRepoToggle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewReactionRepo(db, testutil.Logger(t))

	coach := testutil.SeedUser(t, ctx, tx, "coach-react@example.com", types.UserRoleCoach)
	client := testutil.SeedUser(t, ctx, tx, "client-react@example.com", types.UserRoleClient)
	th := testutil.SeedDirectThread(t, ctx, tx, coach, client)
	msg := testutil.SeedMessage(t, ctx, tx, th.ID, coach.ID, "react here", time.Now().UTC())

	r, added, err := repo.Toggle(dbc, msg.ID, client.ID, "👍")
	if err != nil {
		t.Fatalf("Toggle (add): %v", err)
	}
	if !added || r == nil || r.Emoji != "👍" {
		t.Fatalf("Toggle (add) = (%v, %v), want an added row", r, added)
	}
	addedID := r.ID

	// Second toggle of the same triple removes it and returns the
	// stored row, identity intact.
	r, added, err = repo.Toggle(dbc, msg.ID, client.ID, "👍")
	if err != nil {
		t.Fatalf("Toggle (remove): %v", err)
	}
	if added || r == nil {
		t.Fatalf("Toggle (remove) = (%v, %v), want the removed row", r, added)
	}
	if r.ID != addedID {
		t.Fatalf("removed row ID = %s, want %s", r.ID, addedID)
	}
	if rows, err := repo.ListByMessageIDs(dbc, []uuid.UUID{msg.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("reactions after double toggle: n=%d err=%v", len(rows), err)
	}

	// Different emoji from the same user coexists with another user's.
	if _, _, err := repo.Toggle(dbc, msg.ID, client.ID, "🔥"); err != nil {
		t.Fatalf("Toggle (other emoji): %v", err)
	}
	if _, _, err := repo.Toggle(dbc, msg.ID, coach.ID, "🔥"); err != nil {
		t.Fatalf("Toggle (other user): %v", err)
	}
	rows, err := repo.ListByMessageIDs(dbc, []uuid.UUID{msg.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("reactions = %d err=%v, want 2", len(rows), err)
	}
}

func TestReceiptRepoUpsertIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewReceiptRepo(db, testutil.Logger(t))

	coach := testutil.SeedUser(t, ctx, tx, "coach-read@example.com", types.UserRoleCoach)
	client := testutil.SeedUser(t, ctx, tx, "client-read@example.com", types.UserRoleClient)
	th := testutil.SeedDirectThread(t, ctx, tx, coach, client)
	msg := testutil.SeedMessage(t, ctx, tx, th.ID, coach.ID, "seen?", time.Now().UTC())

	first, err := repo.Upsert(dbc, msg.ID, client.ID)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := repo.Upsert(dbc, msg.ID, client.ID)
	if err != nil {
		t.Fatalf("Upsert (repeat): %v", err)
	}
	if first == nil || second == nil || first.ID != second.ID {
		t.Fatalf("repeat upsert changed the row: %v vs %v", first, second)
	}
	if rows, err := repo.ListByMessageIDs(dbc, []uuid.UUID{msg.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("receipts = %d err=%v, want 1", len(rows), err)
	}
}
