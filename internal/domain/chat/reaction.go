package chat

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is a (message, user, emoji) triple. The unique index means a
// user holds at most one instance of an emoji per message; toggling
// inserts or deletes the row.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_reaction,priority:1" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_reaction,priority:2" json:"user_id"`
	Emoji     string    `gorm:"column:emoji;not null;uniqueIndex:idx_chat_reaction,priority:3" json:"emoji"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Reaction) TableName() string { return "chat_reaction" }
