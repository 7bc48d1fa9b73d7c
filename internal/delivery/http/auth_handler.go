package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"pulsetrade/internal/delivery/http/dto"
	"pulsetrade/internal/domain"
	"pulsetrade/internal/middleware"
)

// AuthHandler handles customer authentication
type AuthHandler struct {
	userRepo       domain.UserRepository
	adminRepo      domain.AdminRepository
	defaultBalance float64
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo domain.UserRepository, adminRepo domain.AdminRepository, defaultBalance float64) *AuthHandler {
	return &AuthHandler{
		userRepo:       userRepo,
		adminRepo:      adminRepo,
		defaultBalance: defaultBalance,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string          `json:"token"`
	User  *dto.UserOutput `json:"user"`
}

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Country        string `json:"country"`
	InvitationCode string `json:"invitation_code,omitempty"`
}

func toUserOutput(user *domain.User) *dto.UserOutput {
	return &dto.UserOutput{
		ID:               user.ID.String(),
		Email:            user.Email,
		Balance:          user.Balance,
		ReputationPoints: user.ReputationPoints,
		VIPLevel:         user.VIPLevel,
		Country:          user.Country,
		IsGonnaWin:       user.IsGonnaWin,
		IsBalanceFrozen:  user.IsBalanceFrozen,
	}
}

// Register handles user registration. An invitation code links the new user
// to the sub-admin that issued it.
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Email == "" || req.Password == "" || req.Country == "" {
		return BadRequestResponse(c, "Email, password and country are required")
	}
	if len(req.Password) < 6 {
		return BadRequestResponse(c, "Password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var referredBy *uuid.UUID
	if req.InvitationCode != "" {
		admin, err := h.adminRepo.GetByInvitationCode(ctx, req.InvitationCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return BadRequestResponse(c, "Invalid invitation code")
			}
			return InternalServerErrorResponse(c, "Failed to look up invitation code", err)
		}
		referredBy = &admin.ID
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	user := &domain.User{
		ID:               uuid.New(),
		Email:            req.Email,
		PasswordHash:     string(hashedPassword),
		Balance:          h.defaultBalance,
		ReputationPoints: domain.DefaultReputationPoints,
		VIPLevel:         domain.DefaultVIPLevel,
		Country:          req.Country,
		ReferredBy:       referredBy,
		CreatedAt:        time.Now(),
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		return InternalServerErrorResponse(c, "Failed to create user", err)
	}

	return CreatedResponse(c, toUserOutput(user))
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(user.ID, domain.RoleUser)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, LoginResponse{
		Token: token,
		User:  toUserOutput(user),
	})
}

// Logout handles user logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1, // Delete cookie
	}
	c.SetCookie(cookie)

	return SuccessMessageResponse(c, "Logged out", nil)
}

// Me returns the authenticated user's profile
// GET /api/user/me
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, toUserOutput(user))
}
