package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/logger"
	"github.com/mrlokans/bookmarks/internal/validation"
)

// AuthAuditor records authentication events.
type AuthAuditor interface {
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
}

// AuthController handles the JSON authentication endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	auditor        AuthAuditor
	log            logger.Logger
}

// NewAuthController creates a new authentication controller. sessionManager
// and auditor may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, auditor AuthAuditor, log logger.Logger) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		auditor:        auditor,
		log:            log,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=12,max=72"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignInResponse struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

type UserProfileResponse struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// SignUp creates a local account.
func (ac *AuthController) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := validation.BindJSON(c, &req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := ac.service.CreateUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "constraint_violation",
				"constraint": "users.email",
				"message":    "a user with this email already exists",
			})
		case errors.Is(err, ErrEmailInvalid), errors.Is(err, ErrEmailRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": validation.FieldErrors{"email": {err.Error()}}})
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong), errors.Is(err, ErrPasswordRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": validation.FieldErrors{"password": {err.Error()}}})
		default:
			ac.log.Error("sign-up failed", logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		}
		return
	}

	ac.audit(c, user.ID, "sign_up", true)
	c.JSON(http.StatusCreated, UserProfileResponse{UserID: user.ID, Email: user.Email})
}

// SignIn verifies credentials, starts a session and returns an access token.
func (ac *AuthController) SignIn(c *gin.Context) {
	var req signInRequest
	if err := validation.BindJSON(c, &req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			ac.audit(c, DefaultUserID, "sign_in", false)
			c.Header("WWW-Authenticate", "Token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong_credentials"})
		case errors.Is(err, ErrAccountLocked):
			ac.audit(c, DefaultUserID, "sign_in", false)
			c.Header("WWW-Authenticate", "Token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account_locked"})
		default:
			ac.log.Error("sign-in failed", logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		}
		return
	}

	token, expiresAt, err := ac.service.IssueToken(user)
	if err != nil {
		ac.log.Error("failed to issue token", logger.Uint("user_id", user.ID), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			ac.log.Error("failed to create session", logger.Uint("user_id", user.ID), logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			return
		}
	}

	ac.audit(c, user.ID, "sign_in", true)
	c.JSON(http.StatusOK, SignInResponse{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Unix(),
	})
}

// SignOut destroys the session. Bearer tokens stay valid until they expire.
func (ac *AuthController) SignOut(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			ac.log.Warn("failed to destroy session", logger.Error(err))
		}
	}
	ac.audit(c, GetUserID(c), "sign_out", true)
	c.Status(http.StatusNoContent)
}

// UserProfile returns the authenticated user.
func (ac *AuthController) UserProfile(c *gin.Context) {
	userID := GetUserID(c)
	if userID == DefaultUserID && ac.service.IsAuthEnabled() {
		AbortUnauthorized(c)
		return
	}

	email := GetEmail(c)
	if email == "" && userID != DefaultUserID {
		user, err := ac.service.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			AbortUnauthorized(c)
			return
		}
		email = user.Email
	}

	c.JSON(http.StatusOK, UserProfileResponse{UserID: userID, Email: email})
}

func (ac *AuthController) audit(c *gin.Context, userID uint, action string, success bool) {
	if ac.auditor == nil {
		return
	}
	ac.auditor.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}

func respondValidation(c *gin.Context, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(verr.Status, gin.H{"errors": verr.Fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
}
