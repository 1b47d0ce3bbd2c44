package service

import (
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/ShalConnects/Balanze-sub003/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SettlementMethod selects how a full settlement is carried out
type SettlementMethod string

const (
	// SettlementMethodSimple marks the record settled without any ledger effect
	SettlementMethodSimple SettlementMethod = "simple"
	// SettlementMethodAccount routes the settlement through an account ledger
	SettlementMethodAccount SettlementMethod = "account"
)

// SettlementService orchestrates full and partial settlement of lend/borrow
// records. It reads return history fresh before every write, decides
// eligibility, appends return entries and status transitions, and drives the
// ledger bridge.
type SettlementService struct {
	recordRepo      domain.RecordRepository
	returnRepo      domain.ReturnRepository
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	eventPublisher  websocket.EventPublisher
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(recordRepo domain.RecordRepository, returnRepo domain.ReturnRepository, transactionRepo domain.TransactionRepository, accountRepo domain.AccountRepository) *SettlementService {
	return &SettlementService{
		recordRepo:      recordRepo,
		returnRepo:      returnRepo,
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SettlementService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *SettlementService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// SettleFullInput contains input for a full settlement
type SettleFullInput struct {
	Method    SettlementMethod
	AccountID *uuid.UUID
}

// SettleFull closes a record in one step. The path is only open while no
// partial return history exists. The simple method touches no ledger
// regardless of how the record is linked; the account method requires an
// explicit account and creates a single ledger transaction for the full
// principal.
func (s *SettlementService) SettleFull(userID uuid.UUID, recordID uuid.UUID, input SettleFullInput) (*domain.LendBorrowRecord, error) {
	// 1. Read the record and its return history fresh
	record, err := s.recordRepo.GetByID(userID, recordID)
	if err != nil {
		return nil, err
	}
	if record.IsSettled() {
		return nil, domain.ErrRecordSettled
	}

	returns, err := s.returnRepo.GetByRecord(record.ID)
	if err != nil {
		return nil, err
	}

	// 2. Once the partial path has been chosen, the record must be closed
	// out via partials
	if !domain.IsFullSettlementAllowed(record, returns) {
		return nil, domain.ErrFullSettlementBlocked
	}

	// 3. Simple method: status change only, whatever the record is linked to
	if input.Method == SettlementMethodSimple {
		record.Status = domain.RecordStatusSettled
		updated, err := s.recordRepo.Update(record)
		if err != nil {
			return nil, err
		}
		log.Info().Str("record_id", record.ID.String()).Msg("Record settled without ledger effect")
		s.publishEvent(userID, websocket.RecordSettled(updated))
		return updated, nil
	}

	// 4. Ledger path: the caller must name the account receiving the money
	if input.AccountID == nil {
		return nil, domain.ErrAccountRequired
	}
	account, err := s.accountRepo.GetByID(userID, *input.AccountID)
	if err != nil {
		return nil, err
	}
	if record.Currency != "" && account.Currency != record.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	// 5. One ledger transaction for the full principal. The initial loan
	// transaction keeps its own code; the settlement gets a fresh one.
	code := mintTransactionCode()
	_, err = s.transactionRepo.Create(&domain.Transaction{
		Code:        code,
		UserID:      userID,
		AccountID:   account.ID,
		Type:        repaymentTransactionType(record.Type),
		Amount:      record.Amount,
		Currency:    record.Currency,
		Category:    domain.CategoryLendBorrow,
		Description: repaymentDescription(record),
		Tags:        []string{"lend_borrow", "settlement"},
		Date:        time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("record_id", record.ID.String()).Msg("Failed to create settlement transaction")
		return nil, ledgerWriteError(err)
	}

	// 6. Status transition
	if record.TransactionID == nil {
		record.TransactionID = &code
	}
	record.Status = domain.RecordStatusSettled
	updated, err := s.recordRepo.Update(record)
	if err != nil {
		return nil, err
	}

	log.Info().Str("record_id", record.ID.String()).Str("transaction_code", code).Msg("Record fully settled")
	s.publishEvent(userID, websocket.RecordSettled(updated))

	return updated, nil
}

// SettlePartialInput contains input for recording a partial return
type SettlePartialInput struct {
	Amount     decimal.Decimal
	ReturnDate time.Time
	AccountID  *uuid.UUID
}

// SettlePartial appends one partial repayment. The amount is validated
// against freshly read history immediately before the write, so a retry can
// never overshoot the principal. When the repayment clears the remaining
// balance the record settles implicitly, exactly once, within the same
// call.
//
// The return entry write, the optional ledger write, and the status update
// are not atomic. A successfully written return entry is never rolled back;
// a ledger failure lets the remaining sub-steps run to completion and then
// surfaces domain.ErrLedgerWrite.
func (s *SettlementService) SettlePartial(userID uuid.UUID, recordID uuid.UUID, input SettlePartialInput) (*domain.LendBorrowRecord, *domain.ReturnEntry, error) {
	// 1. Read the record and its return history fresh
	record, err := s.recordRepo.GetByID(userID, recordID)
	if err != nil {
		return nil, nil, err
	}
	if record.IsSettled() {
		return nil, nil, domain.ErrRecordSettled
	}

	returns, err := s.returnRepo.GetByRecord(record.ID)
	if err != nil {
		return nil, nil, err
	}

	// 2. Validate the amount against the current remaining balance
	remaining := domain.RemainingBalance(record, returns)
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, domain.ErrReturnAmountInvalid
	}
	if input.Amount.GreaterThan(remaining) {
		return nil, nil, domain.ErrReturnExceedsRemaining
	}

	// 3. Validate the account before any write happens
	var account *domain.Account
	if input.AccountID != nil {
		account, err = s.accountRepo.GetByID(userID, *input.AccountID)
		if err != nil {
			return nil, nil, err
		}
		if record.Currency != "" && account.Currency != record.Currency {
			return nil, nil, domain.ErrCurrencyMismatch
		}
	}

	returnDate := input.ReturnDate
	if returnDate.IsZero() {
		returnDate = time.Now().UTC()
	}

	// 4. Append the return entry
	entry, err := s.returnRepo.Create(&domain.ReturnEntry{
		LendBorrowID: record.ID,
		Amount:       input.Amount,
		ReturnDate:   returnDate,
		AccountID:    input.AccountID,
	})
	if err != nil {
		return nil, nil, err
	}

	// 5. Mirror the repayment in the ledger when routed through an account.
	// A failure here must not abort the remaining sub-steps.
	var ledgerErr error
	minted := false
	if account != nil {
		// Every partial repayment is its own ledger transaction with its
		// own code. The record backlinks the first one it ever produced.
		code := mintTransactionCode()
		if record.TransactionID == nil {
			record.TransactionID = &code
			minted = true
		}
		_, ledgerErr = s.transactionRepo.Create(&domain.Transaction{
			Code:        code,
			UserID:      userID,
			AccountID:   account.ID,
			Type:        repaymentTransactionType(record.Type),
			Amount:      input.Amount,
			Currency:    record.Currency,
			Category:    domain.CategoryLendBorrow,
			Description: partialReturnDescription(record),
			Tags:        []string{"lend_borrow", "loan", "partial"},
			Date:        returnDate,
		})
		if ledgerErr != nil {
			log.Error().Err(ledgerErr).Str("record_id", record.ID.String()).Msg("Failed to create partial return transaction")
		}
	}

	// 6. Recompute against the appended history and settle implicitly when
	// the balance clears
	settled := record.MarkSettledIfCleared(domain.RemainingBalance(record, append(returns, entry)))
	if settled || minted {
		if record, err = s.recordRepo.Update(record); err != nil {
			return record, entry, err
		}
	}

	if ledgerErr != nil {
		return record, entry, ledgerWriteError(ledgerErr)
	}

	s.publishEvent(userID, websocket.ReturnCreated(entry))
	if settled {
		log.Info().Str("record_id", record.ID.String()).Msg("Record settled by partial return")
		s.publishEvent(userID, websocket.RecordSettled(record))
	}

	return record, entry, nil
}

// repaymentTransactionType is the ledger direction of money coming back:
// a repaid lend is income, a repaid borrow is an expense.
func repaymentTransactionType(t domain.RecordType) domain.TransactionType {
	if t == domain.RecordTypeLend {
		return domain.TransactionTypeIncome
	}
	return domain.TransactionTypeExpense
}

func repaymentDescription(record *domain.LendBorrowRecord) string {
	if record.Type == domain.RecordTypeLend {
		return "Repayment from " + record.PersonName
	}
	return "Repayment to " + record.PersonName
}

func partialReturnDescription(record *domain.LendBorrowRecord) string {
	if record.Type == domain.RecordTypeLend {
		return "Partial return from " + record.PersonName
	}
	return "Partial return to " + record.PersonName
}
