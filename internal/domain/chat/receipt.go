package chat

import (
	"time"

	"github.com/google/uuid"
)

// ReadReceipt records that a user has seen a message. Upserted
// idempotently, never deleted except by message cascade.
type ReadReceipt struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_receipt,priority:1" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_receipt,priority:2" json:"user_id"`

	ReadAt time.Time `gorm:"column:read_at;not null;default:now()" json:"read_at"`
}

func (ReadReceipt) TableName() string { return "chat_read_receipt" }
