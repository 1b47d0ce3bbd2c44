package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockRecordRepository is a mock implementation of domain.RecordRepository
type MockRecordRepository struct {
	Records       map[uuid.UUID]*domain.LendBorrowRecord
	CreateFn      func(record *domain.LendBorrowRecord) (*domain.LendBorrowRecord, error)
	GetByIDFn     func(userID uuid.UUID, id uuid.UUID) (*domain.LendBorrowRecord, error)
	UpdateFn      func(record *domain.LendBorrowRecord) (*domain.LendBorrowRecord, error)
	DeleteFn      func(userID uuid.UUID, id uuid.UUID) error
	MarkOverdueFn func(userID uuid.UUID, before time.Time) (int64, error)
}

// NewMockRecordRepository creates a new MockRecordRepository
func NewMockRecordRepository() *MockRecordRepository {
	return &MockRecordRepository{
		Records: make(map[uuid.UUID]*domain.LendBorrowRecord),
	}
}

// Create creates a new record
func (m *MockRecordRepository) Create(record *domain.LendBorrowRecord) (*domain.LendBorrowRecord, error) {
	if m.CreateFn != nil {
		return m.CreateFn(record)
	}
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	m.Records[record.ID] = record
	return record, nil
}

// GetByID retrieves a record by ID within a user's scope
func (m *MockRecordRepository) GetByID(userID uuid.UUID, id uuid.UUID) (*domain.LendBorrowRecord, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(userID, id)
	}
	record, ok := m.Records[id]
	if !ok || record.UserID != userID {
		return nil, domain.ErrRecordNotFound
	}
	// Hand out a copy so tests can compare against stored state
	clone := *record
	return &clone, nil
}

// GetAllByUser retrieves all records for a user, most recent first
func (m *MockRecordRepository) GetAllByUser(userID uuid.UUID) ([]*domain.LendBorrowRecord, error) {
	var records []*domain.LendBorrowRecord
	for _, record := range m.Records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if records == nil {
		return []*domain.LendBorrowRecord{}, nil
	}
	return records, nil
}

// Update updates an existing record
func (m *MockRecordRepository) Update(record *domain.LendBorrowRecord) (*domain.LendBorrowRecord, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(record)
	}
	stored, ok := m.Records[record.ID]
	if !ok || stored.UserID != record.UserID {
		return nil, domain.ErrRecordNotFound
	}
	record.UpdatedAt = time.Now()
	m.Records[record.ID] = record
	return record, nil
}

// Delete removes a record
func (m *MockRecordRepository) Delete(userID uuid.UUID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	record, ok := m.Records[id]
	if !ok || record.UserID != userID {
		return domain.ErrRecordNotFound
	}
	delete(m.Records, id)
	return nil
}

// MarkOverdue moves active records past their due date to overdue
func (m *MockRecordRepository) MarkOverdue(userID uuid.UUID, before time.Time) (int64, error) {
	if m.MarkOverdueFn != nil {
		return m.MarkOverdueFn(userID, before)
	}
	var swept int64
	for _, record := range m.Records {
		if record.UserID != userID || record.Status != domain.RecordStatusActive {
			continue
		}
		if record.DueDate.Before(before) {
			record.Status = domain.RecordStatusOverdue
			swept++
		}
	}
	return swept, nil
}

// AddRecord adds a record to the mock repository (helper for tests)
func (m *MockRecordRepository) AddRecord(record *domain.LendBorrowRecord) {
	m.Records[record.ID] = record
}

// MockReturnRepository is a mock implementation of domain.ReturnRepository
type MockReturnRepository struct {
	Returns  map[uuid.UUID][]*domain.ReturnEntry
	CreateFn func(entry *domain.ReturnEntry) (*domain.ReturnEntry, error)
}

// NewMockReturnRepository creates a new MockReturnRepository
func NewMockReturnRepository() *MockReturnRepository {
	return &MockReturnRepository{
		Returns: make(map[uuid.UUID][]*domain.ReturnEntry),
	}
}

// Create appends a return entry
func (m *MockReturnRepository) Create(entry *domain.ReturnEntry) (*domain.ReturnEntry, error) {
	if m.CreateFn != nil {
		return m.CreateFn(entry)
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	m.Returns[entry.LendBorrowID] = append(m.Returns[entry.LendBorrowID], entry)
	return entry, nil
}

// GetByRecord retrieves the return history for a record, most recent first
func (m *MockReturnRepository) GetByRecord(lendBorrowID uuid.UUID) ([]*domain.ReturnEntry, error) {
	returns := m.Returns[lendBorrowID]
	if returns == nil {
		return []*domain.ReturnEntry{}, nil
	}
	sorted := make([]*domain.ReturnEntry, len(returns))
	copy(sorted, returns)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ReturnDate.After(sorted[j].ReturnDate)
	})
	return sorted, nil
}

// TotalsByUser sums return amounts per record. The mock ignores the user
// scope since each test works with a single user's data.
func (m *MockReturnRepository) TotalsByUser(userID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for recordID, returns := range m.Returns {
		total := decimal.Zero
		for _, entry := range returns {
			total = total.Add(entry.Amount)
		}
		totals[recordID] = total
	}
	return totals, nil
}

// AddReturn adds a return entry to the mock repository (helper for tests)
func (m *MockReturnRepository) AddReturn(entry *domain.ReturnEntry) {
	m.Returns[entry.LendBorrowID] = append(m.Returns[entry.LendBorrowID], entry)
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions   map[string]*domain.Transaction
	CreateFn       func(transaction *domain.Transaction) (*domain.Transaction, error)
	UpdateByCodeFn func(userID uuid.UUID, code string, transaction *domain.Transaction) (*domain.Transaction, error)
	DeleteByCodeFn func(userID uuid.UUID, code string) error
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[string]*domain.Transaction),
	}
}

// Create inserts a transaction keyed by code. Codes are unique, as in the
// real store.
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	if _, exists := m.Transactions[transaction.Code]; exists {
		return nil, fmt.Errorf("duplicate transaction code %s", transaction.Code)
	}
	transaction.ID = uuid.New()
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt
	m.Transactions[transaction.Code] = transaction
	return transaction, nil
}

// UpdateByCode updates a transaction identified by code
func (m *MockTransactionRepository) UpdateByCode(userID uuid.UUID, code string, transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.UpdateByCodeFn != nil {
		return m.UpdateByCodeFn(userID, code, transaction)
	}
	stored, ok := m.Transactions[code]
	if !ok || stored.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	transaction.ID = stored.ID
	transaction.Code = code
	transaction.UpdatedAt = time.Now()
	m.Transactions[code] = transaction
	return transaction, nil
}

// DeleteByCode removes a transaction identified by code
func (m *MockTransactionRepository) DeleteByCode(userID uuid.UUID, code string) error {
	if m.DeleteByCodeFn != nil {
		return m.DeleteByCodeFn(userID, code)
	}
	stored, ok := m.Transactions[code]
	if !ok || stored.UserID != userID {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, code)
	return nil
}

// FindByCode retrieves a transaction by code
func (m *MockTransactionRepository) FindByCode(userID uuid.UUID, code string) (*domain.Transaction, error) {
	stored, ok := m.Transactions[code]
	if !ok || stored.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return stored, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	m.Transactions[transaction.Code] = transaction
}

// MockAccountRepository is a mock implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts  map[uuid.UUID]*domain.Account
	GetByIDFn func(userID uuid.UUID, id uuid.UUID) (*domain.Account, error)
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[uuid.UUID]*domain.Account),
	}
}

// GetByID retrieves an account within a user's scope
func (m *MockAccountRepository) GetByID(userID uuid.UUID, id uuid.UUID) (*domain.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(userID, id)
	}
	account, ok := m.Accounts[id]
	if !ok || account.UserID != userID || !account.IsActive {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// GetAllByUser retrieves all active accounts for a user
func (m *MockAccountRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Account, error) {
	var accounts []*domain.Account
	for _, account := range m.Accounts {
		if account.UserID == userID && account.IsActive {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Name < accounts[j].Name
	})
	if accounts == nil {
		return []*domain.Account{}, nil
	}
	return accounts, nil
}

// AddAccount adds an account to the mock repository (helper for tests)
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	m.Accounts[account.ID] = account
}

// MockAPITokenRepository is a mock implementation of domain.APITokenRepository
type MockAPITokenRepository struct {
	Tokens   map[uuid.UUID]*domain.APIToken
	ByHash   map[string]*domain.APIToken
	CreateFn func(ctx context.Context, token *domain.APIToken) error
}

// NewMockAPITokenRepository creates a new MockAPITokenRepository
func NewMockAPITokenRepository() *MockAPITokenRepository {
	return &MockAPITokenRepository{
		Tokens: make(map[uuid.UUID]*domain.APIToken),
		ByHash: make(map[string]*domain.APIToken),
	}
}

// Create creates a new API token
func (m *MockAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, token)
	}
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	m.Tokens[token.ID] = token
	m.ByHash[token.TokenHash] = token
	return nil
}

// GetByUser retrieves all active tokens for a user
func (m *MockAPITokenRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	var tokens []*domain.APIToken
	for _, token := range m.Tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// GetByHash retrieves an active token by its hash
func (m *MockAPITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	token, ok := m.ByHash[hash]
	if !ok || token.RevokedAt != nil {
		return nil, domain.ErrAPITokenNotFound
	}
	return token, nil
}

// Revoke marks a token as revoked
func (m *MockAPITokenRepository) Revoke(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	token, ok := m.Tokens[id]
	if !ok || token.UserID != userID || token.RevokedAt != nil {
		return domain.ErrAPITokenNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return nil
}

// UpdateLastUsed updates the last_used_at timestamp for a token
func (m *MockAPITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	token, ok := m.Tokens[id]
	if !ok {
		return domain.ErrAPITokenNotFound
	}
	now := time.Now()
	token.LastUsedAt = &now
	return nil
}

// AddToken adds a token to the mock repository (helper for tests)
func (m *MockAPITokenRepository) AddToken(token *domain.APIToken) {
	m.Tokens[token.ID] = token
	m.ByHash[token.TokenHash] = token
}
