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

// RecordHandler handles lend/borrow record HTTP requests
type RecordHandler struct {
	recordService *service.RecordService
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// CreateRecordRequest represents the create record request body
type CreateRecordRequest struct {
	Type                 string  `json:"type"`
	PersonName           string  `json:"personName"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency,omitempty"`
	DueDate              *string `json:"dueDate,omitempty"`
	AccountID            *string `json:"accountId,omitempty"`
	AffectAccountBalance bool    `json:"affectAccountBalance"`
	Notes                *string `json:"notes,omitempty"`
}

// UpdateRecordRequest represents the update record request body.
// All fields are optional; absent fields are left unchanged.
type UpdateRecordRequest struct {
	PersonName *string `json:"personName,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	Type       *string `json:"type,omitempty"`
	Currency   *string `json:"currency,omitempty"`
	DueDate    *string `json:"dueDate,omitempty"`
	AccountID  *string `json:"accountId,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// RecordResponse represents a lend/borrow record in API responses
type RecordResponse struct {
	ID                   string  `json:"id"`
	Type                 string  `json:"type"`
	PersonName           string  `json:"personName"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency"`
	DueDate              string  `json:"dueDate"`
	Status               string  `json:"status"`
	AccountID            *string `json:"accountId,omitempty"`
	AffectAccountBalance bool    `json:"affectAccountBalance"`
	TransactionID        *string `json:"transactionId,omitempty"`
	PartialReturnAmount  string  `json:"partialReturnAmount"`
	PartialReturnDate    *string `json:"partialReturnDate,omitempty"`
	Notes                *string `json:"notes,omitempty"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
	// Warning is set when the record write succeeded but the linked ledger
	// write did not. The record state shown is authoritative; the client
	// should retry the ledger-affecting operation.
	Warning string `json:"warning,omitempty"`
}

// ReturnEntryResponse represents a partial return in API responses
type ReturnEntryResponse struct {
	ID           string  `json:"id"`
	LendBorrowID string  `json:"lendBorrowId"`
	Amount       string  `json:"amount"`
	ReturnDate   string  `json:"returnDate"`
	AccountID    *string `json:"accountId,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// CurrencySummaryResponse represents one currency's aggregates
type CurrencySummaryResponse struct {
	Currency            string `json:"currency"`
	TotalLent           string `json:"totalLent"`
	TotalBorrowed       string `json:"totalBorrowed"`
	OutstandingLent     string `json:"outstandingLent"`
	OutstandingBorrowed string `json:"outstandingBorrowed"`
}

// SummaryResponse represents the lend/borrow summary in API responses
type SummaryResponse struct {
	OverdueCount int                       `json:"overdueCount"`
	ActiveCount  int                       `json:"activeCount"`
	SettledCount int                       `json:"settledCount"`
	ByCurrency   []CurrencySummaryResponse `json:"byCurrency"`
}

// CreateRecord handles POST /api/v1/lend-borrow
func (h *RecordHandler) CreateRecord(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateRecordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return NewValidationError(c, "Invalid due date", []ValidationError{
				{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		dueDate = &parsed
	}

	accountID, ok := parseOptionalUUID(req.AccountID)
	if !ok {
		return NewValidationError(c, "Invalid account ID", []ValidationError{
			{Field: "accountId", Message: "Must be a valid UUID"},
		})
	}

	input := service.CreateRecordInput{
		Type:                 domain.RecordType(req.Type),
		PersonName:           req.PersonName,
		Amount:               amount,
		Currency:             req.Currency,
		DueDate:              dueDate,
		AccountID:            accountID,
		AffectAccountBalance: req.AffectAccountBalance,
		Notes:                req.Notes,
	}

	record, err := h.recordService.CreateRecord(userID, input)
	if err != nil {
		if errors.Is(err, domain.ErrLedgerWrite) {
			// The record exists; only the ledger write failed
			resp := toRecordResponse(record)
			resp.Warning = "Record created but the account transaction could not be written"
			return c.JSON(http.StatusCreated, resp)
		}
		if resp := recordValidationResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create lend/borrow record")
		return NewInternalError(c, "Failed to create record")
	}

	log.Info().Str("user_id", userID.String()).Str("record_id", record.ID.String()).Str("person", record.PersonName).Msg("Lend/borrow record created")

	return c.JSON(http.StatusCreated, toRecordResponse(record))
}

// GetRecords handles GET /api/v1/lend-borrow
func (h *RecordHandler) GetRecords(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	records, err := h.recordService.ListRecords(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list lend/borrow records")
		return NewInternalError(c, "Failed to list records")
	}

	response := make([]RecordResponse, len(records))
	for i, record := range records {
		response[i] = toRecordResponse(record)
	}
	return c.JSON(http.StatusOK, response)
}

// GetRecord handles GET /api/v1/lend-borrow/:id
func (h *RecordHandler) GetRecord(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid record ID", nil)
	}

	record, err := h.recordService.GetRecord(userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return NewNotFoundError(c, "Record not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("record_id", id.String()).Msg("Failed to get lend/borrow record")
		return NewInternalError(c, "Failed to get record")
	}

	return c.JSON(http.StatusOK, toRecordResponse(record))
}

// UpdateRecord handles PUT /api/v1/lend-borrow/:id
func (h *RecordHandler) UpdateRecord(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid record ID", nil)
	}

	var req UpdateRecordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateRecordInput{
		PersonName: req.PersonName,
		Currency:   req.Currency,
		Notes:      req.Notes,
	}

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}
	if req.Type != nil {
		recordType := domain.RecordType(*req.Type)
		input.Type = &recordType
	}
	if req.DueDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return NewValidationError(c, "Invalid due date", []ValidationError{
				{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.DueDate = &parsed
	}
	accountID, ok := parseOptionalUUID(req.AccountID)
	if !ok {
		return NewValidationError(c, "Invalid account ID", []ValidationError{
			{Field: "accountId", Message: "Must be a valid UUID"},
		})
	}
	input.AccountID = accountID

	record, err := h.recordService.UpdateRecord(userID, id, input)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return NewNotFoundError(c, "Record not found")
		}
		if errors.Is(err, domain.ErrRecordSettled) {
			return NewConflictError(c, "Settled records cannot be modified")
		}
		if errors.Is(err, domain.ErrLedgerWrite) {
			resp := toRecordResponse(record)
			resp.Warning = "Record updated but the account transaction could not be synced"
			return c.JSON(http.StatusOK, resp)
		}
		if resp := recordValidationResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("record_id", id.String()).Msg("Failed to update lend/borrow record")
		return NewInternalError(c, "Failed to update record")
	}

	log.Info().Str("user_id", userID.String()).Str("record_id", record.ID.String()).Msg("Lend/borrow record updated")

	return c.JSON(http.StatusOK, toRecordResponse(record))
}

// DeleteRecord handles DELETE /api/v1/lend-borrow/:id
func (h *RecordHandler) DeleteRecord(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid record ID", nil)
	}

	if err := h.recordService.DeleteRecord(userID, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return NewNotFoundError(c, "Record not found")
		}
		if errors.Is(err, domain.ErrRecordSettled) {
			return NewConflictError(c, "Settled records cannot be deleted")
		}
		if errors.Is(err, domain.ErrLedgerWrite) {
			return NewConflictError(c, "Linked account transaction could not be removed; record was not deleted")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("record_id", id.String()).Msg("Failed to delete lend/borrow record")
		return NewInternalError(c, "Failed to delete record")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetReturns handles GET /api/v1/lend-borrow/:id/returns
func (h *RecordHandler) GetReturns(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid record ID", nil)
	}

	returns, err := h.recordService.ListReturns(userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return NewNotFoundError(c, "Record not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("record_id", id.String()).Msg("Failed to list returns")
		return NewInternalError(c, "Failed to list returns")
	}

	response := make([]ReturnEntryResponse, len(returns))
	for i, entry := range returns {
		response[i] = toReturnEntryResponse(entry)
	}
	return c.JSON(http.StatusOK, response)
}

// GetSummary handles GET /api/v1/lend-borrow/summary
func (h *RecordHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	summary, err := h.recordService.GetSummary(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to build lend/borrow summary")
		return NewInternalError(c, "Failed to build summary")
	}

	byCurrency := make([]CurrencySummaryResponse, len(summary.ByCurrency))
	for i, cs := range summary.ByCurrency {
		byCurrency[i] = CurrencySummaryResponse{
			Currency:            cs.Currency,
			TotalLent:           cs.TotalLent.StringFixed(2),
			TotalBorrowed:       cs.TotalBorrowed.StringFixed(2),
			OutstandingLent:     cs.OutstandingLent.StringFixed(2),
			OutstandingBorrowed: cs.OutstandingBorrowed.StringFixed(2),
		}
	}

	return c.JSON(http.StatusOK, SummaryResponse{
		OverdueCount: summary.OverdueCount,
		ActiveCount:  summary.ActiveCount,
		SettledCount: summary.SettledCount,
		ByCurrency:   byCurrency,
	})
}

// recordValidationResponse maps domain validation errors to a 400 response.
// Returns nil when the error is not a validation error.
func recordValidationResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrPersonNameEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "personName", Message: "Person name is required"},
		})
	case errors.Is(err, domain.ErrPersonNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "personName", Message: "Person name must be 200 characters or less"},
		})
	case errors.Is(err, domain.ErrRecordAmountInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrRecordTypeInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be 'lend' or 'borrow'"},
		})
	case errors.Is(err, domain.ErrCurrencyRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currency", Message: "Currency is required when no account is linked"},
		})
	case errors.Is(err, domain.ErrAccountRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Account is required"},
		})
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Account not found"},
		})
	}
	return nil
}

func parseOptionalUUID(s *string) (*uuid.UUID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func toRecordResponse(record *domain.LendBorrowRecord) RecordResponse {
	resp := RecordResponse{
		ID:                   record.ID.String(),
		Type:                 string(record.Type),
		PersonName:           record.PersonName,
		Amount:               record.Amount.StringFixed(2),
		Currency:             record.Currency,
		DueDate:              record.DueDate.Format("2006-01-02"),
		Status:               string(record.Status),
		AffectAccountBalance: record.AffectAccountBalance,
		TransactionID:        record.TransactionID,
		PartialReturnAmount:  record.PartialReturnAmount.StringFixed(2),
		Notes:                record.Notes,
		CreatedAt:            record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            record.UpdatedAt.Format(time.RFC3339),
	}
	if record.AccountID != nil {
		accountID := record.AccountID.String()
		resp.AccountID = &accountID
	}
	if record.PartialReturnDate != nil {
		partialReturnDate := record.PartialReturnDate.Format("2006-01-02")
		resp.PartialReturnDate = &partialReturnDate
	}
	return resp
}

func toReturnEntryResponse(entry *domain.ReturnEntry) ReturnEntryResponse {
	resp := ReturnEntryResponse{
		ID:           entry.ID.String(),
		LendBorrowID: entry.LendBorrowID.String(),
		Amount:       entry.Amount.StringFixed(2),
		ReturnDate:   entry.ReturnDate.Format("2006-01-02"),
		CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.AccountID != nil {
		accountID := entry.AccountID.String()
		resp.AccountID = &accountID
	}
	return resp
}
