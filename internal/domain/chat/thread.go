package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Thread is a conversation between a coach and one client (direct) or
// many clients (group).
type Thread struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title   string    `gorm:"column:title;not null;default:''" json:"title"`
	IsGroup bool      `gorm:"column:is_group;not null;default:false;index" json:"is_group"`

	CoachID   uuid.UUID `gorm:"type:uuid;not null;index" json:"coach_id"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	// DirectKey is "<coach_id>:<client_id>" for direct threads and NULL for
	// group threads. The unique index makes direct-thread creation
	// idempotent at the database, not just behind an application pre-check.
	DirectKey *string `gorm:"column:direct_key;uniqueIndex" json:"-"`

	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`

	LastMessageAt time.Time `gorm:"column:last_message_at;not null;default:now();index" json:"last_message_at"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Thread) TableName() string { return "chat_thread" }

func DirectKeyFor(coachID, clientID uuid.UUID) string {
	return coachID.String() + ":" + clientID.String()
}
