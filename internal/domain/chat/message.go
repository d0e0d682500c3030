package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MessageKindText         = "text"
	MessageKindAnnouncement = "announcement"
	MessageKindSystem       = "system"
)

// Message is immutable once created except for hard deletion, which
// cascades attachments, reactions, and read receipts.
type Message struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_chat_message_thread_created,priority:1" json:"thread_id"`
	SenderID uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`

	Body string `gorm:"column:body;type:text;not null;default:''" json:"body"`
	Kind string `gorm:"column:kind;not null;default:'text';index" json:"kind"`

	// One level of reply nesting; not a full tree.
	ParentID *uuid.UUID `gorm:"type:uuid;column:parent_id;index" json:"parent_id,omitempty"`

	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index:idx_chat_message_thread_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "chat_message" }
