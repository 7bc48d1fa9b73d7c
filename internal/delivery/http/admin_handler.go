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

// AdminHandler handles back-office operations: admin accounts, user
// management, balance adjustments and the predisposition flag.
type AdminHandler struct {
	adminRepo domain.AdminRepository
	userRepo  domain.UserRepository
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminRepo domain.AdminRepository, userRepo domain.UserRepository) *AdminHandler {
	return &AdminHandler{
		adminRepo: adminRepo,
		userRepo:  userRepo,
	}
}

// AdminRegisterRequest represents an admin registration payload
type AdminRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginResponse represents an admin login response
type AdminLoginResponse struct {
	Token string        `json:"token"`
	Admin *domain.Admin `json:"admin"`
}

// RegisterSuperAdmin creates the one and only superadmin account
// POST /api/admin/auth/register
func (h *AdminHandler) RegisterSuperAdmin(c echo.Context) error {
	var req AdminRegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Name, email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.adminRepo.HasSuperAdmin(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to check for superadmin", err)
	}
	if exists {
		return BadRequestResponse(c, "Only one superadmin can be created")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	admin := &domain.Admin{
		ID:             uuid.New(),
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		Role:           domain.RoleSuperAdmin,
		InvitationCode: generateInvitationCode(),
		CreatedAt:      time.Now(),
	}

	if err := h.adminRepo.Create(ctx, admin); err != nil {
		return InternalServerErrorResponse(c, "Failed to create admin", err)
	}

	return CreatedResponse(c, admin)
}

// RegisterSubAdmin creates a sub-admin account with its own invitation code
// POST /api/admin/subadmins
func (h *AdminHandler) RegisterSubAdmin(c echo.Context) error {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req AdminRegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Name, email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	admin := &domain.Admin{
		ID:             uuid.New(),
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		Role:           domain.RoleSubAdmin,
		InvitationCode: generateInvitationCode(),
		CreatedBy:      &adminID,
		CreatedAt:      time.Now(),
	}

	if err := h.adminRepo.Create(ctx, admin); err != nil {
		return InternalServerErrorResponse(c, "Failed to create sub-admin", err)
	}

	return CreatedResponse(c, admin)
}

// Login authenticates a superadmin or sub-admin
// POST /api/admin/auth/login
func (h *AdminHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admin, err := h.adminRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(admin.ID, admin.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400,
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, AdminLoginResponse{
		Token: token,
		Admin: admin,
	})
}

// GetSubAdmins lists all sub-admin accounts
// GET /api/admin/subadmins
func (h *AdminHandler) GetSubAdmins(c echo.Context) error {
	admins, err := h.adminRepo.GetSubAdmins(c.Request().Context())
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, admins)
}

// DeleteSubAdmin removes a sub-admin account
// DELETE /api/admin/subadmins/:id
func (h *AdminHandler) DeleteSubAdmin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid sub-admin ID")
	}

	if err := h.adminRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "Sub-admin not found")
		}
		return DomainErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Sub-admin deleted successfully", nil)
}

// GetUsers lists users: superadmins see everyone, sub-admins only users
// they invited.
// GET /api/admin/users
func (h *AdminHandler) GetUsers(c echo.Context) error {
	role, err := middleware.GetUserRole(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx := c.Request().Context()

	var users []*domain.User
	if role == domain.RoleSuperAdmin {
		users, err = h.userRepo.GetAll(ctx)
	} else {
		adminID, idErr := middleware.GetUserID(c)
		if idErr != nil {
			return UnauthorizedResponse(c, "Not authenticated")
		}
		users, err = h.userRepo.GetByReferrer(ctx, adminID)
	}
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	outputs := make([]*dto.UserOutput, 0, len(users))
	for _, user := range users {
		outputs = append(outputs, toUserOutput(user))
	}

	return SuccessResponse(c, outputs)
}

// AddBalance credits a user's balance
// POST /api/admin/users/balance/add
func (h *AdminHandler) AddBalance(c echo.Context) error {
	userID, amount, err := h.bindBalanceAdjust(c)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	if err := h.authorizeUserAccess(c, userID); err != nil {
		return ForbiddenResponse(c, "Access denied")
	}

	balance, err := h.userRepo.CreditBalance(c.Request().Context(), userID, amount)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Balance updated", map[string]interface{}{
		"user_id": userID.String(),
		"balance": balance,
	})
}

// DeductBalance debits a user's balance
// POST /api/admin/users/balance/deduct
func (h *AdminHandler) DeductBalance(c echo.Context) error {
	userID, amount, err := h.bindBalanceAdjust(c)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	if err := h.authorizeUserAccess(c, userID); err != nil {
		return ForbiddenResponse(c, "Access denied")
	}

	balance, err := h.userRepo.DebitBalance(c.Request().Context(), userID, amount)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Balance updated", map[string]interface{}{
		"user_id": userID.String(),
		"balance": balance,
	})
}

// SetBalanceFrozen toggles the order-placement gate for a user
// POST /api/admin/users/balance/freeze
func (h *AdminHandler) SetBalanceFrozen(c echo.Context) error {
	var req dto.FreezeBalanceRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return BadRequestResponse(c, "Invalid user ID")
	}

	if err := h.authorizeUserAccess(c, userID); err != nil {
		return ForbiddenResponse(c, "Access denied")
	}

	if err := h.userRepo.SetBalanceFrozen(c.Request().Context(), userID, req.IsFrozen); err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Balance frozen status updated", map[string]interface{}{
		"user_id":           userID.String(),
		"is_balance_frozen": req.IsFrozen,
	})
}

// SetPredisposition sets the flag settlement consumes to bias the outcome
// POST /api/admin/users/predisposition
func (h *AdminHandler) SetPredisposition(c echo.Context) error {
	var req dto.PredispositionRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return BadRequestResponse(c, "Invalid user ID")
	}

	if err := h.authorizeUserAccess(c, userID); err != nil {
		return ForbiddenResponse(c, "Access denied")
	}

	if err := h.userRepo.SetPredisposition(c.Request().Context(), userID, req.IsGonnaWin); err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Predisposition updated", map[string]interface{}{
		"user_id":      userID.String(),
		"is_gonna_win": req.IsGonnaWin,
	})
}

func (h *AdminHandler) bindBalanceAdjust(c echo.Context) (uuid.UUID, float64, error) {
	var req dto.BalanceAdjustRequest
	if err := c.Bind(&req); err != nil {
		return uuid.Nil, 0, errors.New("invalid request payload")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return uuid.Nil, 0, errors.New("invalid user ID")
	}
	if req.Amount <= 0 {
		return uuid.Nil, 0, errors.New("amount must be positive")
	}

	return userID, req.Amount, nil
}

// authorizeUserAccess lets superadmins touch any user; sub-admins only
// users they invited.
func (h *AdminHandler) authorizeUserAccess(c echo.Context, userID uuid.UUID) error {
	role, err := middleware.GetUserRole(c)
	if err != nil {
		return err
	}
	if role == domain.RoleSuperAdmin {
		return nil
	}

	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	user, err := h.userRepo.GetByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if user.ReferredBy == nil || *user.ReferredBy != adminID {
		return domain.ErrNotFound
	}
	return nil
}

// generateInvitationCode returns a short random code a registration can
// reference to link the user to the issuing admin.
func generateInvitationCode() string {
	return uuid.NewString()[:8]
}
