package handler

import (
	"net/http"
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/ShalConnects/Balanze-sub003/internal/middleware"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AccountHandler serves the read-only account listing used when linking
// records and routing settlements.
type AccountHandler struct {
	accountRepo domain.AccountRepository
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountRepo domain.AccountRepository) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo}
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Currency          string `json:"currency"`
	CalculatedBalance string `json:"calculatedBalance"`
	CreatedAt         string `json:"createdAt"`
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accounts, err := h.accountRepo.GetAllByUser(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list accounts")
		return NewInternalError(c, "Failed to list accounts")
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		response[i] = AccountResponse{
			ID:                account.ID.String(),
			Name:              account.Name,
			Currency:          account.Currency,
			CalculatedBalance: account.CalculatedBalance.StringFixed(2),
			CreatedAt:         account.CreatedAt.Format(time.RFC3339),
		}
	}
	return c.JSON(http.StatusOK, response)
}
