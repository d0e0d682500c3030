package app

import (
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/data/repos"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo

	Thread     repos.ThreadRepo
	Member     repos.MemberRepo
	Message    repos.MessageRepo
	Attachment repos.AttachmentRepo
	Reaction   repos.ReactionRepo
	Receipt    repos.ReceiptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("wiring repos")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		UserToken:  repos.NewUserTokenRepo(db, log),
		Thread:     repos.NewThreadRepo(db, log),
		Member:     repos.NewMemberRepo(db, log),
		Message:    repos.NewMessageRepo(db, log),
		Attachment: repos.NewAttachmentRepo(db, log),
		Reaction:   repos.NewReactionRepo(db, log),
		Receipt:    repos.NewReceiptRepo(db, log),
	}
}
