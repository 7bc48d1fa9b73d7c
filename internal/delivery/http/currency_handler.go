package http

import (
	"time"

	"github.com/labstack/echo/v4"

	"pulsetrade/internal/delivery/http/dto"
	"pulsetrade/internal/domain"
	"pulsetrade/internal/service"
)

// CurrencyHandler handles synthetic quote queries and manual price updates
type CurrencyHandler struct {
	currencyRepo  domain.CurrencyRepository
	simulator     *service.PriceSimulatorService
	glideDuration time.Duration
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currencyRepo domain.CurrencyRepository, simulator *service.PriceSimulatorService, glideDuration time.Duration) *CurrencyHandler {
	return &CurrencyHandler{
		currencyRepo:  currencyRepo,
		simulator:     simulator,
		glideDuration: glideDuration,
	}
}

// GetCurrencies returns all currencies with their current synthetic quotes
// GET /api/currencies
func (h *CurrencyHandler) GetCurrencies(c echo.Context) error {
	currencies, err := h.currencyRepo.GetAll(c.Request().Context())
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, currencies)
}

// GetCurrency returns a single currency by symbol code
// GET /api/currencies/:symbol
func (h *CurrencyHandler) GetCurrency(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return BadRequestResponse(c, "Symbol is required")
	}

	currency, err := h.currencyRepo.GetBySymbol(c.Request().Context(), symbol)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, currency)
}

// ManualUpdate starts a directed glide toward the requested target price.
// The glide runs in the background; the response confirms it started.
// PUT /api/admin/currencies/:symbol/price
func (h *CurrencyHandler) ManualUpdate(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return BadRequestResponse(c, "Symbol is required")
	}

	var req dto.ManualPriceUpdateRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.TargetPrice <= 0 {
		return BadRequestResponse(c, "Target price must be positive")
	}

	err := h.simulator.StartDirectedGlide(c.Request().Context(), symbol, req.TargetPrice, h.glideDuration)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessMessageResponse(c, "Price update started", map[string]interface{}{
		"symbol":       symbol,
		"target_price": req.TargetPrice,
		"duration":     h.glideDuration.String(),
	})
}
