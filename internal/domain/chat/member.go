package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	MemberRoleCoach  = "coach"
	MemberRoleClient = "client"
)

type ThreadMember struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_thread_member,priority:1" json:"thread_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_thread_member,priority:2" json:"user_id"`

	Role string `gorm:"column:role;not null" json:"role"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ThreadMember) TableName() string { return "chat_thread_member" }
