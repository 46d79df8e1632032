package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"fleetledger/internal/http/middleware"
	"fleetledger/internal/utils"
)

// AuthHandler exchanges client credentials for a bearer token scoped to one
// account.
type AuthHandler struct {
	ClientID         string
	ClientSecretHash string
	Secret           []byte
	TTL              time.Duration
}

type tokenRequest struct {
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret" binding:"required"`
	UserID       string `json:"user_id" binding:"required"`
	// Scope is "write" (default) or "read"; read tokens cannot import.
	Scope string `json:"scope"`
}

// POST /api/auth/token
func (h AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	if h.ClientID == "" || h.ClientSecretHash == "" {
		respondError(c, http.StatusServiceUnavailable, "auth_disabled", "client credentials are not configured", nil)
		return
	}
	idOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.ClientID)), []byte(h.ClientID)) == 1
	secretErr := bcrypt.CompareHashAndPassword([]byte(h.ClientSecretHash), []byte(req.ClientSecret))
	if !idOK || secretErr != nil {
		respondError(c, http.StatusUnauthorized, "invalid_client", "invalid client credentials", nil)
		return
	}

	ttl := h.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	role := middleware.RoleClient
	switch strings.ToLower(strings.TrimSpace(req.Scope)) {
	case "", "write":
	case "read":
		role = middleware.RoleReader
	default:
		respondError(c, http.StatusBadRequest, "validation_error", "scope must be read or write", nil)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	token, exp, err := middleware.IssueToken(h.Secret, userID, role, ttl)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to issue token", nil)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "auth", "issue_token", "token issued for "+userID)

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"role":       role,
		"expires_at": exp.UTC(),
	})
}
