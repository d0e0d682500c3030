package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/http/response"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func parseLimit(c *gin.Context, def int) int {
	limit := def
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	return limit
}

func threadIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_thread_id", err)
		return uuid.Nil, false
	}
	return id, true
}

type openDirectReq struct {
	UserID uuid.UUID `json:"user_id"`
}

// POST /api/chat/direct
func (h *ChatHandler) OpenDirectThread(c *gin.Context) {
	var req openDirectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	thread, err := h.chat.OpenDirectThread(dbc, req.UserID)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "open_direct_failed")
		return
	}
	response.RespondOK(c, gin.H{"thread": thread})
}

type createGroupReq struct {
	Title     string      `json:"title"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

// POST /api/chat/groups
func (h *ChatHandler) CreateGroupThread(c *gin.Context) {
	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	thread, err := h.chat.CreateGroupThread(dbc, req.Title, req.MemberIDs)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "create_group_failed")
		return
	}
	response.RespondOK(c, gin.H{"thread": thread})
}

// GET /api/chat/threads?limit=50
func (h *ChatHandler) ListThreads(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	threads, err := h.chat.ListThreads(dbc, parseLimit(c, 50))
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "list_threads_failed")
		return
	}
	response.RespondOK(c, gin.H{"threads": threads})
}

// GET /api/chat/threads/:id
func (h *ChatHandler) GetThread(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	thread, members, err := h.chat.GetThread(dbc, threadID)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusNotFound, "thread_not_found")
		return
	}
	response.RespondOK(c, gin.H{"thread": thread, "members": members})
}

// DELETE /api/chat/threads/:id
func (h *ChatHandler) DeleteThread(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.chat.DeleteThread(dbc, threadID); err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "delete_thread_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": threadID})
}

// GET /api/chat/threads/:id/messages?limit=50&before=2026-03-01T12:00:00Z
func (h *ChatHandler) ListMessages(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	var before *time.Time
	if v := strings.TrimSpace(c.Query("before")); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_before", err)
			return
		}
		before = &t
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	msgs, err := h.chat.ListMessages(dbc, threadID, before, parseLimit(c, 50))
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "list_messages_failed")
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

type sendMessageReq struct {
	Body     string     `json:"body"`
	Kind     string     `json:"kind"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// POST /api/chat/threads/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	msg, err := h.chat.SendMessage(dbc, threadID, req.Body, req.Kind, req.ParentID)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "send_message_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": msg})
}

// DELETE /api/chat/threads/:id/messages/:messageID
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_message_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.chat.DeleteMessage(dbc, threadID, messageID); err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "delete_message_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": messageID})
}

type reactionReq struct {
	Emoji string `json:"emoji"`
}

// POST /api/chat/threads/:id/messages/:messageID/reactions
func (h *ChatHandler) ToggleReaction(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_message_id", err)
		return
	}
	var req reactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	reaction, added, err := h.chat.ToggleReaction(dbc, threadID, messageID, req.Emoji)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "toggle_reaction_failed")
		return
	}
	response.RespondOK(c, gin.H{"reaction": reaction, "added": added})
}

// POST /api/chat/threads/:id/messages/:messageID/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_message_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	receipt, err := h.chat.MarkRead(dbc, threadID, messageID)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "mark_read_failed")
		return
	}
	response.RespondOK(c, gin.H{"receipt": receipt})
}
