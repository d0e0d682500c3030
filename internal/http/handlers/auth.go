package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/data/repos"
	"github.com/strideworks/coachbridge-backend/internal/http/response"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/requestdata"
	"github.com/strideworks/coachbridge-backend/internal/services"
)

type AuthHandler struct {
	auth  services.AuthService
	users repos.UserRepo
}

func NewAuthHandler(auth services.AuthService, users repos.UserRepo) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	user, pair, err := h.auth.Register(dbc, req.Email, req.Name, req.Password, req.Role)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusBadRequest, "register_failed")
		return
	}
	response.RespondOK(c, gin.H{"user": user, "tokens": pair})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	user, pair, err := h.auth.Login(dbc, req.Email, req.Password)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusUnauthorized, "login_failed")
		return
	}
	response.RespondOK(c, gin.H{"user": user, "tokens": pair})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	pair, err := h.auth.Refresh(dbc, req.RefreshToken)
	if err != nil {
		response.RespondServiceError(c, err, http.StatusUnauthorized, "refresh_failed")
		return
	}
	response.RespondOK(c, gin.H{"tokens": pair})
}

// GET /api/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	user, err := h.users.GetByID(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID)
	if err != nil || user == nil {
		response.RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}
