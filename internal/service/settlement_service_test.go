package service

import (
	"errors"
	"testing"
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/ShalConnects/Balanze-sub003/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type settlementFixture struct {
	recordRepo      *testutil.MockRecordRepository
	returnRepo      *testutil.MockReturnRepository
	transactionRepo *testutil.MockTransactionRepository
	accountRepo     *testutil.MockAccountRepository
	service         *SettlementService
	userID          uuid.UUID
}

func newSettlementFixture() *settlementFixture {
	f := &settlementFixture{
		recordRepo:      testutil.NewMockRecordRepository(),
		returnRepo:      testutil.NewMockReturnRepository(),
		transactionRepo: testutil.NewMockTransactionRepository(),
		accountRepo:     testutil.NewMockAccountRepository(),
		userID:          uuid.New(),
	}
	f.service = NewSettlementService(f.recordRepo, f.returnRepo, f.transactionRepo, f.accountRepo)
	return f
}

func (f *settlementFixture) addRecord(amount int64) *domain.LendBorrowRecord {
	record := &domain.LendBorrowRecord{
		ID:                  uuid.New(),
		UserID:              f.userID,
		Type:                domain.RecordTypeLend,
		PersonName:          "Alice",
		Amount:              decimal.NewFromInt(amount),
		Currency:            "USD",
		Status:              domain.RecordStatusActive,
		DueDate:             time.Now().AddDate(0, 0, 7),
		PartialReturnAmount: decimal.Zero,
	}
	f.recordRepo.AddRecord(record)
	return record
}

func (f *settlementFixture) addAccount(currency string) *domain.Account {
	account := &domain.Account{
		ID:       uuid.New(),
		UserID:   f.userID,
		Name:     "Checking",
		Currency: currency,
		IsActive: true,
	}
	f.accountRepo.AddAccount(account)
	return account
}

func TestSettlementService_SettleFull_Simple(t *testing.T) {
	// Setup
	f := newSettlementFixture()
	record := f.addRecord(100)

	// Execute
	updated, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodSimple})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.RecordStatusSettled {
		t.Errorf("expected status settled, got %s", updated.Status)
	}
	if len(f.transactionRepo.Transactions) != 0 {
		t.Error("simple settlement of a record-only record must not touch the ledger")
	}
}

func TestSettlementService_SettleFull_ThroughAccount(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")

	updated, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{
		Method:    SettlementMethodAccount,
		AccountID: &account.ID,
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.RecordStatusSettled {
		t.Errorf("expected status settled, got %s", updated.Status)
	}
	if len(f.transactionRepo.Transactions) != 1 {
		t.Fatalf("expected one ledger transaction, got %d", len(f.transactionRepo.Transactions))
	}
	for _, tx := range f.transactionRepo.Transactions {
		// A repaid lend flows back into the account as income
		if tx.Type != domain.TransactionTypeIncome {
			t.Errorf("expected income transaction, got %s", tx.Type)
		}
		if !tx.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected full principal 100, got %s", tx.Amount)
		}
		if tx.Description != "Repayment from Alice" {
			t.Errorf("unexpected description %q", tx.Description)
		}
	}
}

func TestSettlementService_SettleFull_BorrowIsExpense(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	record.Type = domain.RecordTypeBorrow
	account := f.addAccount("USD")

	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{
		Method:    SettlementMethodAccount,
		AccountID: &account.ID,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, tx := range f.transactionRepo.Transactions {
		if tx.Type != domain.TransactionTypeExpense {
			t.Errorf("repaying a borrow must be an expense, got %s", tx.Type)
		}
		if tx.Description != "Repayment to Alice" {
			t.Errorf("unexpected description %q", tx.Description)
		}
	}
}

func TestSettlementService_SettleFull_BlockedByReturnHistory(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	f.returnRepo.AddReturn(&domain.ReturnEntry{
		ID:           uuid.New(),
		LendBorrowID: record.ID,
		Amount:       decimal.NewFromInt(30),
		ReturnDate:   time.Now(),
	})

	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodSimple})
	if !errors.Is(err, domain.ErrFullSettlementBlocked) {
		t.Errorf("expected ErrFullSettlementBlocked, got %v", err)
	}
}

func TestSettlementService_SettleFull_BlockedByLegacyPartial(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	record.PartialReturnAmount = decimal.NewFromInt(25)

	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodSimple})
	if !errors.Is(err, domain.ErrFullSettlementBlocked) {
		t.Errorf("expected ErrFullSettlementBlocked, got %v", err)
	}
}

func TestSettlementService_SettleFull_AlreadySettled(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	record.Status = domain.RecordStatusSettled

	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodSimple})
	if !errors.Is(err, domain.ErrRecordSettled) {
		t.Errorf("expected ErrRecordSettled, got %v", err)
	}
}

func TestSettlementService_SettleFull_AccountRequired(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)

	// Account method with no account anywhere
	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodAccount})
	if !errors.Is(err, domain.ErrAccountRequired) {
		t.Errorf("expected ErrAccountRequired, got %v", err)
	}
}

func TestSettlementService_SettleFull_CurrencyMismatch(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("EUR")

	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{
		Method:    SettlementMethodAccount,
		AccountID: &account.ID,
	})
	if !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Errorf("expected ErrCurrencyMismatch, got %v", err)
	}
	// No write of any kind happened
	if len(f.transactionRepo.Transactions) != 0 {
		t.Error("expected no ledger transaction after currency mismatch")
	}
	got, _ := f.recordRepo.GetByID(f.userID, record.ID)
	if got.Status != domain.RecordStatusActive {
		t.Errorf("expected record still active, got %s", got.Status)
	}
}

func TestSettlementService_SettleFull_LedgerFailureAborts(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")
	f.transactionRepo.CreateFn = func(tx *domain.Transaction) (*domain.Transaction, error) {
		return nil, errors.New("ledger unavailable")
	}

	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{
		Method:    SettlementMethodAccount,
		AccountID: &account.ID,
	})
	if !errors.Is(err, domain.ErrLedgerWrite) {
		t.Errorf("expected ErrLedgerWrite, got %v", err)
	}

	// The status transition never ran, so a retry is clean
	got, _ := f.recordRepo.GetByID(f.userID, record.ID)
	if got.Status != domain.RecordStatusActive {
		t.Errorf("expected record still active after ledger failure, got %s", got.Status)
	}
}

func TestSettlementService_SettleFull_OverdueRecord(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	record.Status = domain.RecordStatusOverdue

	updated, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodSimple})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.RecordStatusSettled {
		t.Errorf("expected overdue record to settle, got %s", updated.Status)
	}
}

func TestSettlementService_SettleFull_SimpleIgnoresAccountLinkage(t *testing.T) {
	// Setup: a record created through an account, with its initial loan
	// transaction already in the ledger
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")
	code := "LB000123"
	record.AffectAccountBalance = true
	record.AccountID = &account.ID
	record.TransactionID = &code
	f.transactionRepo.AddTransaction(&domain.Transaction{
		Code:   code,
		UserID: f.userID,
		Type:   domain.TransactionTypeExpense,
		Amount: decimal.NewFromInt(100),
	})

	// Execute: the simple method marks settled without touching the ledger
	updated, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodSimple})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.RecordStatusSettled {
		t.Errorf("expected status settled, got %s", updated.Status)
	}
	if len(f.transactionRepo.Transactions) != 1 {
		t.Errorf("simple settlement must leave the ledger untouched, got %d transactions", len(f.transactionRepo.Transactions))
	}
}

func TestSettlementService_SettleFull_AccountMethodNeedsExplicitAccount(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")
	record.AffectAccountBalance = true
	record.AccountID = &account.ID

	// The record's own linkage does not stand in for accountId
	_, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{Method: SettlementMethodAccount})
	if !errors.Is(err, domain.ErrAccountRequired) {
		t.Errorf("expected ErrAccountRequired, got %v", err)
	}
}

func TestSettlementService_SettleFull_LinkedRecordMintsFreshCode(t *testing.T) {
	// Setup: the initial loan transaction already owns the record's code
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")
	code := "LB000456"
	record.AffectAccountBalance = true
	record.AccountID = &account.ID
	record.TransactionID = &code
	f.transactionRepo.AddTransaction(&domain.Transaction{
		Code:   code,
		UserID: f.userID,
		Type:   domain.TransactionTypeExpense,
		Amount: decimal.NewFromInt(100),
	})

	// Execute
	updated, err := f.service.SettleFull(f.userID, record.ID, SettleFullInput{
		Method:    SettlementMethodAccount,
		AccountID: &account.ID,
	})

	// Assert: the settlement is a second transaction under its own code
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(f.transactionRepo.Transactions) != 2 {
		t.Fatalf("expected the loan and settlement transactions, got %d", len(f.transactionRepo.Transactions))
	}
	if _, ok := f.transactionRepo.Transactions[code]; !ok {
		t.Error("expected the initial loan transaction to be preserved")
	}
	if updated.TransactionID == nil || *updated.TransactionID != code {
		t.Error("expected the record to keep its link to the initial loan transaction")
	}
}

func TestSettlementService_SettlePartial_Accumulates(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)

	// First partial
	updated, entry, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount: decimal.NewFromInt(40),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected entry amount 40, got %s", entry.Amount)
	}
	if updated.Status != domain.RecordStatusActive {
		t.Errorf("expected record still active, got %s", updated.Status)
	}

	// Second partial clears the balance exactly and settles implicitly
	updated, _, err = f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount: decimal.NewFromInt(60),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.RecordStatusSettled {
		t.Errorf("expected record settled after balance cleared, got %s", updated.Status)
	}
}

func TestSettlementService_SettlePartial_RejectsOverpay(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	f.returnRepo.AddReturn(&domain.ReturnEntry{
		ID:           uuid.New(),
		LendBorrowID: record.ID,
		Amount:       decimal.NewFromInt(70),
		ReturnDate:   time.Now(),
	})

	// Remaining is 30; 31 must be rejected before any write
	_, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount: decimal.NewFromInt(31),
	})
	if !errors.Is(err, domain.ErrReturnExceedsRemaining) {
		t.Errorf("expected ErrReturnExceedsRemaining, got %v", err)
	}
	returns, _ := f.returnRepo.GetByRecord(record.ID)
	if len(returns) != 1 {
		t.Errorf("expected no new return entry, got %d entries", len(returns))
	}
}

func TestSettlementService_SettlePartial_RejectsNonPositive(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)

	_, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{Amount: decimal.Zero})
	if !errors.Is(err, domain.ErrReturnAmountInvalid) {
		t.Errorf("expected ErrReturnAmountInvalid for zero, got %v", err)
	}

	_, _, err = f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{Amount: decimal.NewFromInt(-5)})
	if !errors.Is(err, domain.ErrReturnAmountInvalid) {
		t.Errorf("expected ErrReturnAmountInvalid for negative, got %v", err)
	}
}

func TestSettlementService_SettlePartial_FoldsLegacyPartial(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	record.PartialReturnAmount = decimal.NewFromInt(50)

	// Remaining is 50, so 60 overshoots
	_, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount: decimal.NewFromInt(60),
	})
	if !errors.Is(err, domain.ErrReturnExceedsRemaining) {
		t.Errorf("expected ErrReturnExceedsRemaining, got %v", err)
	}

	// Exactly 50 clears it
	updated, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount: decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.RecordStatusSettled {
		t.Errorf("expected settled, got %s", updated.Status)
	}
}

func TestSettlementService_SettlePartial_ThroughAccount(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")

	_, entry, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount:    decimal.NewFromInt(25),
		AccountID: &account.ID,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if entry.AccountID == nil || *entry.AccountID != account.ID {
		t.Error("expected return entry to reference the account")
	}
	if len(f.transactionRepo.Transactions) != 1 {
		t.Fatalf("expected one ledger transaction, got %d", len(f.transactionRepo.Transactions))
	}
	for _, tx := range f.transactionRepo.Transactions {
		if !tx.Amount.Equal(decimal.NewFromInt(25)) {
			t.Errorf("expected transaction amount 25, got %s", tx.Amount)
		}
		if tx.Description != "Partial return from Alice" {
			t.Errorf("unexpected description %q", tx.Description)
		}
	}
}

func TestSettlementService_SettlePartial_EachReturnGetsOwnCode(t *testing.T) {
	// Setup
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")

	// Execute: two account-routed repayments
	_, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount:    decimal.NewFromInt(30),
		AccountID: &account.ID,
	})
	if err != nil {
		t.Fatalf("first partial: expected no error, got %v", err)
	}
	updated, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount:    decimal.NewFromInt(20),
		AccountID: &account.ID,
	})
	if err != nil {
		t.Fatalf("second partial: expected no error, got %v", err)
	}

	// Assert: one ledger transaction per repayment, each under its own code
	if len(f.transactionRepo.Transactions) != 2 {
		t.Fatalf("expected two ledger transactions, got %d", len(f.transactionRepo.Transactions))
	}
	if updated.TransactionID == nil {
		t.Fatal("expected the record to backlink its first ledger transaction")
	}
	first, ok := f.transactionRepo.Transactions[*updated.TransactionID]
	if !ok {
		t.Fatal("expected the backlinked code to resolve to a stored transaction")
	}
	if !first.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected the backlink to point at the first repayment, got amount %s", first.Amount)
	}
}

func TestSettlementService_SettlePartial_CurrencyMismatchBeforeWrites(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("EUR")

	_, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount:    decimal.NewFromInt(25),
		AccountID: &account.ID,
	})
	if !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Errorf("expected ErrCurrencyMismatch, got %v", err)
	}
	returns, _ := f.returnRepo.GetByRecord(record.ID)
	if len(returns) != 0 {
		t.Error("currency mismatch must be caught before the return entry is written")
	}
}

func TestSettlementService_SettlePartial_LedgerFailureKeepsEntry(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	account := f.addAccount("USD")
	f.transactionRepo.CreateFn = func(tx *domain.Transaction) (*domain.Transaction, error) {
		return nil, errors.New("ledger unavailable")
	}

	updated, entry, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount:    decimal.NewFromInt(100),
		AccountID: &account.ID,
	})
	if !errors.Is(err, domain.ErrLedgerWrite) {
		t.Fatalf("expected ErrLedgerWrite, got %v", err)
	}

	// The return entry survives
	if entry == nil {
		t.Fatal("expected the return entry despite the ledger failure")
	}
	returns, _ := f.returnRepo.GetByRecord(record.ID)
	if len(returns) != 1 {
		t.Errorf("expected the return entry to be kept, got %d entries", len(returns))
	}

	// The in-flight status transition ran to completion
	if updated.Status != domain.RecordStatusSettled {
		t.Errorf("expected record settled despite ledger failure, got %s", updated.Status)
	}
}

func TestSettlementService_SettlePartial_AlreadySettled(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)
	record.Status = domain.RecordStatusSettled

	_, _, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount: decimal.NewFromInt(10),
	})
	if !errors.Is(err, domain.ErrRecordSettled) {
		t.Errorf("expected ErrRecordSettled, got %v", err)
	}
}

func TestSettlementService_SettlePartial_RecordNotFound(t *testing.T) {
	f := newSettlementFixture()

	_, _, err := f.service.SettlePartial(f.userID, uuid.New(), SettlePartialInput{
		Amount: decimal.NewFromInt(10),
	})
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSettlementService_SettlePartial_DefaultsReturnDate(t *testing.T) {
	f := newSettlementFixture()
	record := f.addRecord(100)

	before := time.Now().Add(-time.Second)
	_, entry, err := f.service.SettlePartial(f.userID, record.ID, SettlePartialInput{
		Amount: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if entry.ReturnDate.Before(before) {
		t.Error("expected return date to default to now")
	}
}
