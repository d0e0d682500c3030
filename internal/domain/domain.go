package domain

import (
	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/domain/auth"
	"github.com/strideworks/coachbridge-backend/internal/domain/chat"
)

// Aliases so callers can import one package as `types`.

type User = auth.User
type UserToken = auth.UserToken

type Thread = chat.Thread
type ThreadMember = chat.ThreadMember
type Message = chat.Message
type Attachment = chat.Attachment
type Reaction = chat.Reaction
type ReadReceipt = chat.ReadReceipt

const (
	UserRoleCoach  = auth.UserRoleCoach
	UserRoleClient = auth.UserRoleClient

	MemberRoleCoach  = chat.MemberRoleCoach
	MemberRoleClient = chat.MemberRoleClient

	MessageKindText         = chat.MessageKindText
	MessageKindAnnouncement = chat.MessageKindAnnouncement
	MessageKindSystem       = chat.MessageKindSystem
)

func DirectKeyFor(coachID, clientID uuid.UUID) string {
	return chat.DirectKeyFor(coachID, clientID)
}
