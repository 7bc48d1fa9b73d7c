package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pulsetrade/internal/delivery/http/dto"
	"pulsetrade/internal/domain"
	"pulsetrade/internal/middleware"
	"pulsetrade/internal/service"
)

// WithdrawalHandler handles withdrawal requests and admin reviews
type WithdrawalHandler struct {
	withdrawalService *service.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler
func NewWithdrawalHandler(withdrawalService *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// Create files a withdrawal request for the authenticated user
// POST /api/withdrawals
func (h *WithdrawalHandler) Create(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.CreateWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	request, err := h.withdrawalService.CreateRequest(
		c.Request().Context(),
		userID,
		req.Amount,
		req.Currency,
		req.BankName,
		req.AccountNumber,
		req.BranchCode,
	)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, request)
}

// GetMine retrieves the authenticated user's withdrawal requests
// GET /api/withdrawals
func (h *WithdrawalHandler) GetMine(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	requests, err := h.withdrawalService.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{"withdrawals": requests})
}

// GetAll retrieves withdrawal requests for the admin view: superadmins see
// everything, sub-admins only requests from users they invited.
// GET /api/admin/withdrawals
func (h *WithdrawalHandler) GetAll(c echo.Context) error {
	role, err := middleware.GetUserRole(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var requests []*domain.WithdrawalRequest
	if role == domain.RoleSuperAdmin {
		requests, err = h.withdrawalService.ListAll(c.Request().Context())
	} else {
		adminID, idErr := middleware.GetUserID(c)
		if idErr != nil {
			return UnauthorizedResponse(c, "Not authenticated")
		}
		requests, err = h.withdrawalService.ListForSubAdmin(c.Request().Context(), adminID)
	}
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{"withdrawals": requests})
}

// Review approves or rejects a pending withdrawal request
// POST /api/admin/withdrawals/review
func (h *WithdrawalHandler) Review(c echo.Context) error {
	var req dto.ReviewWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return BadRequestResponse(c, "Invalid request ID")
	}

	request, err := h.withdrawalService.Review(c.Request().Context(), requestID, req.Status)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Withdrawal request reviewed", request)
}
