package chat

import (
	"time"

	"github.com/google/uuid"
)

// Attachment references a stored file by opaque key. The backing object
// may be absent from storage; that is a handled failure mode, not an
// invariant violation.
type Attachment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	ThreadID  uuid.UUID `gorm:"type:uuid;not null;index" json:"thread_id"`

	StorageKey  string `gorm:"column:storage_key;not null" json:"storage_key"`
	FileName    string `gorm:"column:file_name;not null;default:''" json:"file_name"`
	ContentType string `gorm:"column:content_type;not null;default:''" json:"content_type"`
	SizeBytes   int64  `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Attachment) TableName() string { return "chat_attachment" }
