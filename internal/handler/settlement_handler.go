package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/ShalConnects/Balanze-sub003/internal/middleware"
	"github.com/ShalConnects/Balanze-sub003/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SettlementHandler handles settlement HTTP requests
type SettlementHandler struct {
	settlementService *service.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// SettleFullRequest represents the full settlement request body
type SettleFullRequest struct {
	Method    string  `json:"method"`
	AccountID *string `json:"accountId,omitempty"`
}

// SettlePartialRequest represents the partial return request body
type SettlePartialRequest struct {
	Amount     string  `json:"amount"`
	ReturnDate *string `json:"returnDate,omitempty"`
	AccountID  *string `json:"accountId,omitempty"`
}

// SettlePartialResponse pairs the appended return with the updated record
type SettlePartialResponse struct {
	Record RecordResponse      `json:"record"`
	Return ReturnEntryResponse `json:"return"`
}

// SettleFull handles POST /api/v1/lend-borrow/:id/settle
func (h *SettlementHandler) SettleFull(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid record ID", nil)
	}

	var req SettleFullRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var method service.SettlementMethod
	switch req.Method {
	case "simple", "":
		method = service.SettlementMethodSimple
	case "account":
		method = service.SettlementMethodAccount
	default:
		return NewValidationError(c, "Invalid settlement method", []ValidationError{
			{Field: "method", Message: "Must be 'simple' or 'account'"},
		})
	}

	accountID, ok := parseOptionalUUID(req.AccountID)
	if !ok {
		return NewValidationError(c, "Invalid account ID", []ValidationError{
			{Field: "accountId", Message: "Must be a valid UUID"},
		})
	}

	record, err := h.settlementService.SettleFull(userID, id, service.SettleFullInput{
		Method:    method,
		AccountID: accountID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return NewNotFoundError(c, "Record not found")
		}
		if errors.Is(err, domain.ErrRecordSettled) {
			return NewConflictError(c, "Record is already settled")
		}
		if errors.Is(err, domain.ErrFullSettlementBlocked) {
			return NewConflictError(c, "Full settlement is not available once partial returns exist")
		}
		if errors.Is(err, domain.ErrAccountRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "accountId", Message: "An account is required to settle through the ledger"},
			})
		}
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "accountId", Message: "Account not found"},
			})
		}
		if errors.Is(err, domain.ErrCurrencyMismatch) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "accountId", Message: "Account currency does not match the record"},
			})
		}
		if errors.Is(err, domain.ErrLedgerWrite) {
			return NewConflictError(c, "Settlement transaction could not be written; record was not settled")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("record_id", id.String()).Msg("Failed to settle record")
		return NewInternalError(c, "Failed to settle record")
	}

	log.Info().Str("user_id", userID.String()).Str("record_id", record.ID.String()).Msg("Record settled")

	return c.JSON(http.StatusOK, toRecordResponse(record))
}

// SettlePartial handles POST /api/v1/lend-borrow/:id/returns
func (h *SettlementHandler) SettlePartial(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid record ID", nil)
	}

	var req SettlePartialRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	var returnDate time.Time
	if req.ReturnDate != nil && *req.ReturnDate != "" {
		returnDate, err = time.Parse("2006-01-02", *req.ReturnDate)
		if err != nil {
			return NewValidationError(c, "Invalid return date", []ValidationError{
				{Field: "returnDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
	}

	accountID, ok := parseOptionalUUID(req.AccountID)
	if !ok {
		return NewValidationError(c, "Invalid account ID", []ValidationError{
			{Field: "accountId", Message: "Must be a valid UUID"},
		})
	}

	record, entry, err := h.settlementService.SettlePartial(userID, id, service.SettlePartialInput{
		Amount:     amount,
		ReturnDate: returnDate,
		AccountID:  accountID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return NewNotFoundError(c, "Record not found")
		}
		if errors.Is(err, domain.ErrRecordSettled) {
			return NewConflictError(c, "Record is already settled")
		}
		if errors.Is(err, domain.ErrReturnAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrReturnExceedsRemaining) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount exceeds the remaining balance"},
			})
		}
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "accountId", Message: "Account not found"},
			})
		}
		if errors.Is(err, domain.ErrCurrencyMismatch) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "accountId", Message: "Account currency does not match the record"},
			})
		}
		if errors.Is(err, domain.ErrLedgerWrite) {
			// The return entry was recorded; only the ledger write failed
			resp := SettlePartialResponse{
				Record: toRecordResponse(record),
				Return: toReturnEntryResponse(entry),
			}
			resp.Record.Warning = "Return recorded but the account transaction could not be written"
			return c.JSON(http.StatusCreated, resp)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("record_id", id.String()).Msg("Failed to record partial return")
		return NewInternalError(c, "Failed to record partial return")
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("record_id", record.ID.String()).
		Str("amount", entry.Amount.StringFixed(2)).
		Bool("settled", record.IsSettled()).
		Msg("Partial return recorded")

	return c.JSON(http.StatusCreated, SettlePartialResponse{
		Record: toRecordResponse(record),
		Return: toReturnEntryResponse(entry),
	})
}
