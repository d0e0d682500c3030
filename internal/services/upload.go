package services

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/data/repos"
	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/apierr"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/gcp"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/platform/requestdata"
)

const maxAttachmentBytes = 100 << 20

// UploadService moves attachment bytes into object storage and records
// the row. Clients never talk to the bucket directly; all traffic goes
// through here so membership is checked on every upload and download.
type UploadService interface {
	UploadAttachment(dbc dbctx.Context, threadID, messageID uuid.UUID, fileName, contentType string, size int64, content io.Reader) (*types.Attachment, error)
	// SignedURL returns a time-bounded retrieval URL for the attachment,
	// or gcp.ErrObjectMissing when the backing object is gone.
	SignedURL(dbc dbctx.Context, threadID, attachmentID uuid.UUID) (string, error)
}

type uploadService struct {
	db  *gorm.DB
	log *logger.Logger

	bucket gcp.BucketService

	members     repos.MemberRepo
	messages    repos.MessageRepo
	attachments repos.AttachmentRepo

	notify ChatNotifier
}

func NewUploadService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bucket gcp.BucketService,
	memberRepo repos.MemberRepo,
	messageRepo repos.MessageRepo,
	attachmentRepo repos.AttachmentRepo,
	notify ChatNotifier,
) UploadService {
	return &uploadService{
		db:          db,
		log:         baseLog.With("service", "UploadService"),
		bucket:      bucket,
		members:     memberRepo,
		messages:    messageRepo,
		attachments: attachmentRepo,
		notify:      notify,
	}
}

func storageKeyFor(threadID, attachmentID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("attachments/%s/%s%s", threadID, attachmentID, ext)
}

func (s *uploadService) UploadAttachment(dbc dbctx.Context, threadID, messageID uuid.UUID, fileName, contentType string, size int64, content io.Reader) (*types.Attachment, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(401, "UNAUTHENTICATED", fmt.Errorf("not authenticated"))
	}
	if content == nil {
		return nil, apierr.New(400, "MISSING_FILE", fmt.Errorf("file content required"))
	}
	if size > maxAttachmentBytes {
		return nil, apierr.New(413, "FILE_TOO_LARGE", fmt.Errorf("attachment exceeds %d bytes", maxAttachmentBytes))
	}

	ok, err := s.members.IsMember(dbc, threadID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.New(403, "NOT_A_MEMBER", fmt.Errorf("user %s is not a member of thread %s", rd.UserID, threadID))
	}

	msg, err := s.messages.GetByID(dbc, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.ThreadID != threadID {
		return nil, apierr.New(404, "MESSAGE_NOT_FOUND", fmt.Errorf("message %s not found in thread", messageID))
	}
	if msg.SenderID != rd.UserID {
		return nil, apierr.New(403, "FORBIDDEN", fmt.Errorf("only the sender may attach files"))
	}

	fileName = strings.TrimSpace(path.Base(fileName))
	if fileName == "" || fileName == "." {
		fileName = "file"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	att := &types.Attachment{
		ID:          uuid.New(),
		MessageID:   messageID,
		ThreadID:    threadID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}
	att.StorageKey = storageKeyFor(threadID, att.ID, fileName)

	if err := s.bucket.UploadFile(dbc.Ctx, att.StorageKey, content, contentType); err != nil {
		return nil, fmt.Errorf("upload to bucket: %w", err)
	}

	if _, err := s.attachments.Create(dbc, []*types.Attachment{att}); err != nil {
		// The object is already in the bucket; reap it rather than
		// leaving bytes without a row.
		if dErr := s.bucket.DeleteFile(dbc.Ctx, att.StorageKey); dErr != nil {
			s.log.Warn("orphan object cleanup failed", "error", dErr, "key", att.StorageKey)
		}
		return nil, err
	}

	if s.notify != nil {
		s.notify.AttachmentCreated(dbc.Ctx, att)
	}
	s.log.Info("attachment stored", "attachment_id", att.ID, "thread_id", threadID, "bytes", size)
	return att, nil
}

func (s *uploadService) SignedURL(dbc dbctx.Context, threadID, attachmentID uuid.UUID) (string, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return "", apierr.New(401, "UNAUTHENTICATED", fmt.Errorf("not authenticated"))
	}
	ok, err := s.members.IsMember(dbc, threadID, rd.UserID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apierr.New(403, "NOT_A_MEMBER", fmt.Errorf("user %s is not a member of thread %s", rd.UserID, threadID))
	}

	att, err := s.attachments.GetByID(dbc, attachmentID)
	if err != nil {
		return "", err
	}
	if att == nil || att.ThreadID != threadID {
		return "", apierr.New(404, "ATTACHMENT_NOT_FOUND", fmt.Errorf("attachment %s not found in thread", attachmentID))
	}
	return s.bucket.SignedURL(dbc.Ctx, att.StorageKey)
}
