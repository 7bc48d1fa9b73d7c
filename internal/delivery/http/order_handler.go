package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pulsetrade/internal/delivery/http/dto"
	"pulsetrade/internal/domain"
	"pulsetrade/internal/middleware"
	"pulsetrade/internal/usecase"
)

// Orders still open this long past their fire time have exhausted their
// settlement retries.
const stuckOrderGrace = 2 * time.Minute

// OrderHandler handles bet placement and order queries
type OrderHandler struct {
	orderService *usecase.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *usecase.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrder places a timed bet for the authenticated user
// POST /api/orders
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	order, remaining, err := h.orderService.PlaceOrder(c.Request().Context(), usecase.PlaceOrderInput{
		UserID:           userID,
		Symbol:           req.Symbol,
		Direction:        req.Direction,
		Investment:       req.Investment,
		Duration:         req.Duration,
		ProfitPercentage: req.ProfitPercentage,
		OrderPrice:       req.OrderPrice,
	})
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, dto.PlaceOrderResponse{
		Order:            order,
		RemainingBalance: remaining,
	})
}

// GetOrder retrieves a single order. Users may only read their own orders.
// GET /api/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid order ID")
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	role, _ := middleware.GetUserRole(c)
	if role == domain.RoleUser {
		userID, err := middleware.GetUserID(c)
		if err != nil || order.UserID != userID {
			return ForbiddenResponse(c, "Access denied")
		}
	}

	return SuccessResponse(c, order)
}

// GetMyOrders retrieves the authenticated user's orders
// GET /api/orders
func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	orders, err := h.orderService.ListOrdersForUser(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{"orders": orders})
}

// GetAllOrders retrieves orders for the admin view: superadmins see every
// order, sub-admins only orders of users they invited.
// GET /api/admin/orders
func (h *OrderHandler) GetAllOrders(c echo.Context) error {
	role, err := middleware.GetUserRole(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var orders []*domain.Order
	if role == domain.RoleSuperAdmin {
		orders, err = h.orderService.ListAllOrders(c.Request().Context())
	} else {
		adminID, idErr := middleware.GetUserID(c)
		if idErr != nil {
			return UnauthorizedResponse(c, "Not authenticated")
		}
		orders, err = h.orderService.ListOrdersForSubAdmin(c.Request().Context(), adminID)
	}
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{"orders": orders})
}

// GetStuckOrders lists open orders whose settlement is overdue and needs
// manual reconciliation.
// GET /api/admin/orders/stuck
func (h *OrderHandler) GetStuckOrders(c echo.Context) error {
	orders, err := h.orderService.ListStuckOrders(c.Request().Context(), stuckOrderGrace)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{"orders": orders})
}
