package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/ShalConnects/Balanze-sub003/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func TestGetAccounts_Success(t *testing.T) {
	e := echo.New()
	accountRepo := testutil.NewMockAccountRepository()
	handler := NewAccountHandler(accountRepo)
	userID := uuid.New()

	accountRepo.AddAccount(&domain.Account{
		ID:                uuid.New(),
		UserID:            userID,
		Name:              "Checking",
		Currency:          "USD",
		CalculatedBalance: decimal.NewFromInt(1250),
		IsActive:          true,
	})
	// Another user's account must not leak
	accountRepo.AddAccount(&domain.Account{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Name:     "Savings",
		Currency: "EUR",
		IsActive: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAPITokenContext(c, userID)

	err := handler.GetAccounts(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(response))
	}
	if response[0].Name != "Checking" {
		t.Errorf("Expected account 'Checking', got %s", response[0].Name)
	}
	if response[0].CalculatedBalance != "1250.00" {
		t.Errorf("Expected balance '1250.00', got %s", response[0].CalculatedBalance)
	}
}

func TestGetAccounts_Unauthorized(t *testing.T) {
	e := echo.New()
	handler := NewAccountHandler(testutil.NewMockAccountRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.GetAccounts(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
