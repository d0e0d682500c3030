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

func TestThreadRepoDirectLookup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewThreadRepo(db, testutil.Logger(t))

	coach := testutil.SeedUser(t, ctx, tx, "coach-direct@example.com", types.UserRoleCoach)
	client := testutil.SeedUser(t, ctx, tx, "client-direct@example.com", types.UserRoleClient)

	if th, err := repo.FindDirect(dbc, coach.ID, client.ID); err != nil || th != nil {
		t.Fatalf("FindDirect before create: th=%v err=%v", th, err)
	}

	seeded := testutil.SeedDirectThread(t, ctx, tx, coach, client)

	found, err := repo.FindDirect(dbc, coach.ID, client.ID)
	if err != nil {
		t.Fatalf("FindDirect: %v", err)
	}
	if found == nil || found.ID != seeded.ID {
		t.Fatalf("FindDirect = %v, want thread %s", found, seeded.ID)
	}

	// A second direct thread for the same pair violates the unique key.
	key := types.DirectKeyFor(coach.ID, client.ID)
	dup := &types.Thread{
		ID:        uuid.New(),
		CoachID:   coach.ID,
		CreatedBy: client.ID,
		DirectKey: &key,
	}
	if _, err := repo.Create(dbc, []*types.Thread{dup}); err == nil {
		t.Fatal("duplicate direct thread accepted")
	}
}

func TestThreadRepoListByUserOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewThreadRepo(db, testutil.Logger(t))

	coach := testutil.SeedUser(t, ctx, tx, "coach-list@example.com", types.UserRoleCoach)
	c1 := testutil.SeedUser(t, ctx, tx, "client-list-1@example.com", types.UserRoleClient)
	c2 := testutil.SeedUser(t, ctx, tx, "client-list-2@example.com", types.UserRoleClient)

	th1 := testutil.SeedDirectThread(t, ctx, tx, coach, c1)
	th2 := testutil.SeedDirectThread(t, ctx, tx, coach, c2)

	// th1 got the most recent activity, so it sorts first.
	if err := repo.TouchLastMessageAt(dbc, th1.ID, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("TouchLastMessageAt: %v", err)
	}

	rows, err := repo.ListByUser(dbc, coach.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d threads, want 2", len(rows))
	}
	if rows[0].ID != th1.ID || rows[1].ID != th2.ID {
		t.Fatalf("order = [%s %s], want [%s %s]", rows[0].ID, rows[1].ID, th1.ID, th2.ID)
	}

	// The client only sees their own thread.
	rows, err = repo.ListByUser(dbc, c1.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser (client): %v", err)
	}
	if len(rows) != 1 || rows[0].ID != th1.ID {
		t.Fatalf("client threads = %v, want just %s", rows, th1.ID)
	}
}

func TestThreadRepoDeleteCascades(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	threads := NewThreadRepo(db, testutil.Logger(t))
	attachments := NewAttachmentRepo(db, testutil.Logger(t))
	reactions := NewReactionRepo(db, testutil.Logger(t))
	receipts := NewReceiptRepo(db, testutil.Logger(t))

	coach := testutil.SeedUser(t, ctx, tx, "coach-del@example.com", types.UserRoleCoach)
	client := testutil.SeedUser(t, ctx, tx, "client-del@example.com", types.UserRoleClient)
	th := testutil.SeedDirectThread(t, ctx, tx, coach, client)
	msg := testutil.SeedMessage(t, ctx, tx, th.ID, coach.ID, "to be purged", time.Now().UTC())

	if _, err := attachments.Create(dbc, []*types.Attachment{{
		ID: uuid.New(), MessageID: msg.ID, ThreadID: th.ID, StorageKey: "attachments/x",
	}}); err != nil {
		t.Fatalf("seed attachment: %v", err)
	}
	if _, _, err := reactions.Toggle(dbc, msg.ID, client.ID, "👍"); err != nil {
		t.Fatalf("seed reaction: %v", err)
	}
	if _, err := receipts.Upsert(dbc, msg.ID, client.ID); err != nil {
		t.Fatalf("seed receipt: %v", err)
	}

	if err := threads.Delete(dbc, th.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if th2, err := threads.GetByID(dbc, th.ID); err != nil || th2 != nil {
		t.Fatalf("thread survived delete: th=%v err=%v", th2, err)
	}
	if rows, err := attachments.ListByMessageIDs(dbc, []uuid.UUID{msg.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("attachments survived delete: n=%d err=%v", len(rows), err)
	}
	if rows, err := reactions.ListByMessageIDs(dbc, []uuid.UUID{msg.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("reactions survived delete: n=%d err=%v", len(rows), err)
	}
	if rows, err := receipts.ListByMessageIDs(dbc, []uuid.UUID{msg.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("receipts survived delete: n=%d err=%v", len(rows), err)
	}
}
