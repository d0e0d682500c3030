package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/http/response"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/gcp"
	"github.com/strideworks/coachbridge-backend/internal/services"
)

type UploadHandler struct {
	uploads services.UploadService
}

func NewUploadHandler(uploads services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// POST /api/chat/threads/:id/messages/:messageID/attachments (multipart)
func (h *UploadHandler) UploadAttachment(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_message_id", err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	att, err := h.uploads.UploadAttachment(dbc, threadID, messageID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "upload_failed")
		return
	}
	response.RespondOK(c, gin.H{"attachment": att})
}

// GET /api/chat/threads/:id/attachments/:attachmentID/url
func (h *UploadHandler) SignedURL(c *gin.Context) {
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	attachmentID, err := uuid.Parse(c.Param("attachmentID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_attachment_id", err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	url, err := h.uploads.SignedURL(dbc, threadID, attachmentID)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectMissing) {
			response.RespondError(c, http.StatusGone, "object_missing", err)
			return
		}
		response.RespondServiceError(c, err, http.StatusBadRequest, "sign_url_failed")
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}
