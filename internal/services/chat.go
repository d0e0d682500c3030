package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/data/repos"
	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/apierr"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/platform/requestdata"
)

// ThreadSummary pairs a thread with its newest message for list views.
type ThreadSummary struct {
	Thread      *types.Thread  `json:"thread"`
	LastMessage *types.Message `json:"last_message,omitempty"`
}

type ChatService interface {
	// OpenDirectThread returns the one direct thread between the caller
	// and otherUserID, creating it on first contact. Concurrent first
	// calls from both sides converge on the same thread.
	OpenDirectThread(dbc dbctx.Context, otherUserID uuid.UUID) (*types.Thread, error)
	CreateGroupThread(dbc dbctx.Context, title string, memberIDs []uuid.UUID) (*types.Thread, error)
	ListThreads(dbc dbctx.Context, limit int) ([]*ThreadSummary, error)
	GetThread(dbc dbctx.Context, threadID uuid.UUID) (*types.Thread, []*types.ThreadMember, error)
	DeleteThread(dbc dbctx.Context, threadID uuid.UUID) error

	// ListMessages pages backwards: up to limit messages strictly older
	// than before (the newest page when before is nil), ascending.
	ListMessages(dbc dbctx.Context, threadID uuid.UUID, before *time.Time, limit int) ([]*types.Message, error)
	SendMessage(dbc dbctx.Context, threadID uuid.UUID, body, kind string, parentID *uuid.UUID) (*types.Message, error)
	DeleteMessage(dbc dbctx.Context, threadID, messageID uuid.UUID) error

	// ToggleReaction adds the caller's (emoji, message) reaction or
	// removes it when already present. added reports which happened.
	ToggleReaction(dbc dbctx.Context, threadID, messageID uuid.UUID, emoji string) (r *types.Reaction, added bool, err error)
	MarkRead(dbc dbctx.Context, threadID, messageID uuid.UUID) (*types.ReadReceipt, error)

	// Membership-scoped side-data reads for a loaded message window.
	ListAttachments(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) ([]*types.Attachment, error)
	ListReactions(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) ([]*types.Reaction, error)
	ListReceipts(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) ([]*types.ReadReceipt, error)
}

type chatService struct {
	db  *gorm.DB
	log *logger.Logger

	users       repos.UserRepo
	threads     repos.ThreadRepo
	members     repos.MemberRepo
	messages    repos.MessageRepo
	attachments repos.AttachmentRepo
	reactions   repos.ReactionRepo
	receipts    repos.ReceiptRepo

	notify ChatNotifier
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	threadRepo repos.ThreadRepo,
	memberRepo repos.MemberRepo,
	messageRepo repos.MessageRepo,
	attachmentRepo repos.AttachmentRepo,
	reactionRepo repos.ReactionRepo,
	receiptRepo repos.ReceiptRepo,
	notify ChatNotifier,
) ChatService {
	return &chatService{
		db:          db,
		log:         baseLog.With("service", "ChatService"),
		users:       userRepo,
		threads:     threadRepo,
		members:     memberRepo,
		messages:    messageRepo,
		attachments: attachmentRepo,
		reactions:   reactionRepo,
		receipts:    receiptRepo,
		notify:      notify,
	}
}

// withTx runs fn inside dbc.Tx when the caller already holds one, and
// inside a fresh transaction otherwise.
func (s *chatService) withTx(dbc dbctx.Context, fn func(txc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

func (s *chatService) caller(dbc dbctx.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(401, "UNAUTHENTICATED", fmt.Errorf("not authenticated"))
	}
	return rd, nil
}

func (s *chatService) requireMember(dbc dbctx.Context, threadID, userID uuid.UUID) error {
	ok, err := s.members.IsMember(dbc, threadID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.New(403, "NOT_A_MEMBER", fmt.Errorf("user %s is not a member of thread %s", userID, threadID))
	}
	return nil
}

func (s *chatService) OpenDirectThread(dbc dbctx.Context, otherUserID uuid.UUID) (*types.Thread, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, err
	}
	if otherUserID == uuid.Nil || otherUserID == rd.UserID {
		return nil, apierr.New(400, "BAD_PEER", fmt.Errorf("invalid peer user id"))
	}

	other, err := s.users.GetByID(dbc, otherUserID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, apierr.New(404, "USER_NOT_FOUND", fmt.Errorf("user %s not found", otherUserID))
	}

	var coachID, clientID uuid.UUID
	switch {
	case rd.Role == types.UserRoleCoach && other.Role == types.UserRoleClient:
		coachID, clientID = rd.UserID, otherUserID
	case rd.Role == types.UserRoleClient && other.Role == types.UserRoleCoach:
		coachID, clientID = otherUserID, rd.UserID
	default:
		return nil, apierr.New(400, "BAD_PAIR", fmt.Errorf("direct threads pair one coach with one client"))
	}

	if existing, fErr := s.threads.FindDirect(dbc, coachID, clientID); fErr != nil {
		return nil, fErr
	} else if existing != nil {
		return existing, nil
	}

	key := types.DirectKeyFor(coachID, clientID)
	now := time.Now().UTC()
	thread := &types.Thread{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(other.Name),
		IsGroup:       false,
		CoachID:       coachID,
		CreatedBy:     rd.UserID,
		DirectKey:     &key,
		Metadata:      datatypes.JSON([]byte(`{}`)),
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.withTx(dbc, func(txc dbctx.Context) error {
		if _, cErr := s.threads.Create(txc, []*types.Thread{thread}); cErr != nil {
			return cErr
		}
		_, mErr := s.members.Create(txc, []*types.ThreadMember{
			{ID: uuid.New(), ThreadID: thread.ID, UserID: coachID, Role: types.MemberRoleCoach, CreatedAt: now},
			{ID: uuid.New(), ThreadID: thread.ID, UserID: clientID, Role: types.MemberRoleClient, CreatedAt: now},
		})
		return mErr
	})
	if err != nil {
		// The unique index on direct_key rejects the second of two
		// racing first-contact creates; the winner's row is the thread.
		if existing, fErr := s.threads.FindDirect(dbc, coachID, clientID); fErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	s.log.Info("direct thread created", "thread_id", thread.ID, "coach_id", coachID, "client_id", clientID)
	return thread, nil
}

func (s *chatService) CreateGroupThread(dbc dbctx.Context, title string, memberIDs []uuid.UUID) (*types.Thread, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, err
	}
	if rd.Role != types.UserRoleCoach {
		return nil, apierr.New(403, "COACH_ONLY", fmt.Errorf("only coaches create group threads"))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.New(400, "MISSING_TITLE", fmt.Errorf("group thread needs a title"))
	}

	now := time.Now().UTC()
	thread := &types.Thread{
		ID:            uuid.New(),
		Title:         title,
		IsGroup:       true,
		CoachID:       rd.UserID,
		CreatedBy:     rd.UserID,
		Metadata:      datatypes.JSON([]byte(`{}`)),
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	rows := []*types.ThreadMember{
		{ID: uuid.New(), ThreadID: thread.ID, UserID: rd.UserID, Role: types.MemberRoleCoach, CreatedAt: now},
	}
	seen := map[uuid.UUID]bool{rd.UserID: true}
	for _, id := range memberIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		u, uErr := s.users.GetByID(dbc, id)
		if uErr != nil {
			return nil, uErr
		}
		if u == nil {
			return nil, apierr.New(404, "USER_NOT_FOUND", fmt.Errorf("user %s not found", id))
		}
		role := types.MemberRoleClient
		if u.Role == types.UserRoleCoach {
			role = types.MemberRoleCoach
		}
		rows = append(rows, &types.ThreadMember{ID: uuid.New(), ThreadID: thread.ID, UserID: id, Role: role, CreatedAt: now})
		seen[id] = true
	}

	err = s.withTx(dbc, func(txc dbctx.Context) error {
		if _, cErr := s.threads.Create(txc, []*types.Thread{thread}); cErr != nil {
			return cErr
		}
		_, mErr := s.members.Create(txc, rows)
		return mErr
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("group thread created", "thread_id", thread.ID, "members", len(rows))
	return thread, nil
}

func (s *chatService) ListThreads(dbc dbctx.Context, limit int) ([]*ThreadSummary, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, err
	}
	threads, err := s.threads.ListByUser(dbc, rd.UserID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*ThreadSummary, 0, len(threads))
	for _, th := range threads {
		last, lErr := s.messages.LatestByThread(dbc, th.ID)
		if lErr != nil {
			return nil, lErr
		}
		out = append(out, &ThreadSummary{Thread: th, LastMessage: last})
	}
	return out, nil
}

func (s *chatService) GetThread(dbc dbctx.Context, threadID uuid.UUID) (*types.Thread, []*types.ThreadMember, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireMember(dbc, threadID, rd.UserID); err != nil {
		return nil, nil, err
	}
	thread, err := s.threads.GetByID(dbc, threadID)
	if err != nil {
		return nil, nil, err
	}
	if thread == nil {
		return nil, nil, apierr.New(404, "THREAD_NOT_FOUND", fmt.Errorf("thread %s not found", threadID))
	}
	members, err := s.members.ListByThread(dbc, threadID)
	if err != nil {
		return nil, nil, err
	}
	return thread, members, nil
}

func (s *chatService) DeleteThread(dbc dbctx.Context, threadID uuid.UUID) error {
	rd, err := s.caller(dbc)
	if err != nil {
		return err
	}
	thread, err := s.threads.GetByID(dbc, threadID)
	if err != nil {
		return err
	}
	if thread == nil {
		return apierr.New(404, "THREAD_NOT_FOUND", fmt.Errorf("thread %s not found", threadID))
	}
	if thread.CoachID != rd.UserID {
		return apierr.New(403, "COACH_ONLY", fmt.Errorf("only the thread's coach may delete it"))
	}
	return s.withTx(dbc, func(txc dbctx.Context) error {
		return s.threads.Delete(txc, threadID)
	})
}

func (s *chatService) ListMessages(dbc dbctx.Context, threadID uuid.UUID, before *time.Time, limit int) ([]*types.Message, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(dbc, threadID, rd.UserID); err != nil {
		return nil, err
	}
	return s.messages.ListBefore(dbc, threadID, before, limit)
}

func (s *chatService) SendMessage(dbc dbctx.Context, threadID uuid.UUID, body, kind string, parentID *uuid.UUID) (*types.Message, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(dbc, threadID, rd.UserID); err != nil {
		return nil, err
	}

	switch kind {
	case "", types.MessageKindText:
		kind = types.MessageKindText
	case types.MessageKindAnnouncement:
		thread, tErr := s.threads.GetByID(dbc, threadID)
		if tErr != nil {
			return nil, tErr
		}
		if thread == nil || thread.CoachID != rd.UserID {
			return nil, apierr.New(403, "COACH_ONLY", fmt.Errorf("only the thread's coach may send announcements"))
		}
	default:
		return nil, apierr.New(400, "BAD_KIND", fmt.Errorf("unsupported message kind %q", kind))
	}

	if parentID != nil {
		parent, pErr := s.messages.GetByID(dbc, *parentID)
		if pErr != nil {
			return nil, pErr
		}
		if parent == nil || parent.ThreadID != threadID {
			return nil, apierr.New(400, "BAD_PARENT", fmt.Errorf("reply target not in thread"))
		}
		// One level deep only; replying to a reply flattens onto the root.
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	now := time.Now().UTC()
	msg := &types.Message{
		ID:        uuid.New(),
		ThreadID:  threadID,
		SenderID:  rd.UserID,
		Body:      body,
		Kind:      kind,
		ParentID:  parentID,
		Metadata:  datatypes.JSON([]byte(`{}`)),
		CreatedAt: now,
	}

	err = s.withTx(dbc, func(txc dbctx.Context) error {
		if _, cErr := s.messages.Create(txc, []*types.Message{msg}); cErr != nil {
			return cErr
		}
		return s.threads.TouchLastMessageAt(txc, threadID, now)
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.MessageCreated(dbc.Ctx, msg)
	}
	return msg, nil
}

func (s *chatService) DeleteMessage(dbc dbctx.Context, threadID, messageID uuid.UUID) error {
	rd, err := s.caller(dbc)
	if err != nil {
		return err
	}
	msg, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.ThreadID != threadID {
		return apierr.New(404, "MESSAGE_NOT_FOUND", fmt.Errorf("message %s not found in thread", messageID))
	}

	if msg.SenderID != rd.UserID {
		thread, tErr := s.threads.GetByID(dbc, threadID)
		if tErr != nil {
			return tErr
		}
		if thread == nil || thread.CoachID != rd.UserID {
			return apierr.New(403, "FORBIDDEN", fmt.Errorf("only the sender or the coach may delete a message"))
		}
	}

	err = s.withTx(dbc, func(txc dbctx.Context) error {
		return s.messages.Delete(txc, messageID)
	})
	if err != nil {
		return err
	}

	if s.notify != nil {
		s.notify.MessageDeleted(dbc.Ctx, msg)
	}
	return nil
}

func (s *chatService) ToggleReaction(dbc dbctx.Context, threadID, messageID uuid.UUID, emoji string) (*types.Reaction, bool, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireMember(dbc, threadID, rd.UserID); err != nil {
		return nil, false, err
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, false, apierr.New(400, "MISSING_EMOJI", fmt.Errorf("emoji required"))
	}
	msg, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		return nil, false, err
	}
	if msg == nil || msg.ThreadID != threadID {
		return nil, false, apierr.New(404, "MESSAGE_NOT_FOUND", fmt.Errorf("message %s not found in thread", messageID))
	}

	r, added, err := s.reactions.Toggle(dbc, messageID, rd.UserID, emoji)
	if err != nil {
		return nil, false, err
	}
	if s.notify != nil {
		if added {
			s.notify.ReactionAdded(dbc.Ctx, threadID, r)
		} else {
			// The removed row carries its stored ID so subscribers can
			// drop it from their windows.
			s.notify.ReactionRemoved(dbc.Ctx, threadID, r)
		}
	}
	if !added {
		return nil, false, nil
	}
	return r, true, nil
}

func (s *chatService) MarkRead(dbc dbctx.Context, threadID, messageID uuid.UUID) (*types.ReadReceipt, error) {
	rd, err := s.caller(dbc)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(dbc, threadID, rd.UserID); err != nil {
		return nil, err
	}
	msg, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.ThreadID != threadID {
		return nil, apierr.New(404, "MESSAGE_NOT_FOUND", fmt.Errorf("message %s not found in thread", messageID))
	}

	r, err := s.receipts.Upsert(dbc, messageID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if s.notify != nil {
		s.notify.ReceiptUpserted(dbc.Ctx, threadID, r)
	}
	return r, nil
}

func (s *chatService) ListAttachments(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) ([]*types.Attachment, error) {
	if err := s.requireViewer(dbc, threadID); err != nil {
		return nil, err
	}
	return s.attachments.ListByMessageIDs(dbc, messageIDs)
}

func (s *chatService) ListReactions(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) ([]*types.Reaction, error) {
	if err := s.requireViewer(dbc, threadID); err != nil {
		return nil, err
	}
	return s.reactions.ListByMessageIDs(dbc, messageIDs)
}

func (s *chatService) ListReceipts(dbc dbctx.Context, threadID uuid.UUID, messageIDs []uuid.UUID) ([]*types.ReadReceipt, error) {
	if err := s.requireViewer(dbc, threadID); err != nil {
		return nil, err
	}
	return s.receipts.ListByMessageIDs(dbc, messageIDs)
}

func (s *chatService) requireViewer(dbc dbctx.Context, threadID uuid.UUID) error {
	rd, err := s.caller(dbc)
	if err != nil {
		return err
	}
	return s.requireMember(dbc, threadID, rd.UserID)
}
