package repos

import (
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/data/repos/auth"
	"github.com/strideworks/coachbridge-backend/internal/data/repos/chat"
	"github.com/strideworks/coachbridge-backend/internal/data/repos/user"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type ThreadRepo = chat.ThreadRepo
type MemberRepo = chat.MemberRepo
type MessageRepo = chat.MessageRepo
type AttachmentRepo = chat.AttachmentRepo
type ReactionRepo = chat.ReactionRepo
type ReceiptRepo = chat.ReceiptRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo { return chat.NewThreadRepo(db, log) }
func NewMemberRepo(db *gorm.DB, log *logger.Logger) MemberRepo { return chat.NewMemberRepo(db, log) }
func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return chat.NewMessageRepo(db, log)
}
func NewAttachmentRepo(db *gorm.DB, log *logger.Logger) AttachmentRepo {
	return chat.NewAttachmentRepo(db, log)
}
func NewReactionRepo(db *gorm.DB, log *logger.Logger) ReactionRepo {
	return chat.NewReactionRepo(db, log)
}
func NewReceiptRepo(db *gorm.DB, log *logger.Logger) ReceiptRepo {
	return chat.NewReceiptRepo(db, log)
}
