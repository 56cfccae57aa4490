// Package fakes provides in-memory repositories for use case tests.
package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

// Store keeps persisted rows for the in-memory repositories so that reads
// rehydrate fresh aggregates the way the database adapters do.
type Store struct {
	mu           sync.RWMutex
	accounts     map[domain.ID]domain.AccountRow
	transactions map[domain.ID]domain.TransactionRow
	entries      map[domain.ID]domain.EntryRow
	operations   map[domain.ID]domain.OperationRow
	users        map[domain.ID]domain.UserRow
	events       []*domain.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[domain.ID]domain.AccountRow),
		transactions: make(map[domain.ID]domain.TransactionRow),
		entries:      make(map[domain.ID]domain.EntryRow),
		operations:   make(map[domain.ID]domain.OperationRow),
		users:        make(map[domain.ID]domain.UserRow),
	}
}

// Operations returns every stored operation row of entryID, voided ones included.
func (s *Store) Operations(entryID domain.ID) []domain.OperationRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.OperationRow
	for _, row := range s.operations {
		if row.EntryID.Equals(entryID) {
			out = append(out, row)
		}
	}
	sortOperationRows(out)
	return out
}

// Entry returns the stored entry row.
func (s *Store) Entry(id domain.ID) (domain.EntryRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.entries[id]
	return row, ok
}

// Events returns the outbox events written so far.
func (s *Store) Events() []*domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), s.events...)
}

func sortOperationRows(rows []domain.OperationRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
}

// AccountRepository is an in-memory usecase.AccountRepository.
type AccountRepository struct {
	store *Store

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDsFunc          func(ctx context.Context, tx usecase.Transaction, ids []domain.ID) ([]*domain.Account, error)
	FindSystemAccountFunc func(ctx context.Context, tx usecase.Transaction, userID domain.ID, currency domain.Currency) (*domain.Account, error)
	GetByIDsCalls         int
}

func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (m *AccountRepository) GetAll(_ context.Context, _ usecase.Transaction, userID domain.ID) ([]*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []*domain.Account
	for _, row := range m.store.accounts {
		if row.UserID.Equals(userID) {
			acc, err := domain.RestoreAccount(row)
			if err != nil {
				return nil, err
			}
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (m *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.accounts[account.ID()]; ok {
		return domain.ErrRecordAlreadyExists
	}
	m.store.accounts[account.ID()] = account.ToPersistence()
	return nil
}

func (m *AccountRepository) GetByID(_ context.Context, _ usecase.Transaction, id domain.ID) (*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	row, ok := m.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return domain.RestoreAccount(row)
}

func (m *AccountRepository) Update(_ context.Context, _ usecase.Transaction, account *domain.Account) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.accounts[account.ID()]; !ok {
		return domain.ErrAccountNotFound
	}
	m.store.accounts[account.ID()] = account.ToPersistence()
	return nil
}

func (m *AccountRepository) Delete(_ context.Context, _ usecase.Transaction, id domain.ID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	row, ok := m.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	row.IsTombstone = true
	m.store.accounts[id] = row
	return nil
}

func (m *AccountRepository) FindSystemAccount(ctx context.Context, tx usecase.Transaction, userID domain.ID, currency domain.Currency) (*domain.Account, error) {
	if m.FindSystemAccountFunc != nil {
		return m.FindSystemAccountFunc(ctx, tx, userID, currency)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	for _, row := range m.store.accounts {
		if row.UserID.Equals(userID) && row.Currency == currency.Code() && row.Type == string(domain.AccountTypeCurrencyTrading) {
			return domain.RestoreAccount(row)
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *AccountRepository) GetByIDs(ctx context.Context, tx usecase.Transaction, ids []domain.ID) ([]*domain.Account, error) {
	m.GetByIDsCalls++
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, tx, ids)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []*domain.Account
	for _, id := range ids {
		if row, ok := m.store.accounts[id]; ok {
			acc, err := domain.RestoreAccount(row)
			if err != nil {
				return nil, err
			}
			out = append(out, acc)
		}
	}
	return out, nil
}

// EntryRepository is an in-memory usecase.EntryRepository.
type EntryRepository struct {
	store *Store

	CreateFunc     func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	UpdateCalls    int
	VoidByIDsCalls [][]domain.ID
}

func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

func (m *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.entries[entry.ID()]; ok {
		return domain.ErrRecordAlreadyExists
	}
	m.store.entries[entry.ID()] = entry.ToPersistence()
	return nil
}

func (m *EntryRepository) Update(_ context.Context, _ usecase.Transaction, entry *domain.Entry) error {
	m.UpdateCalls++
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.entries[entry.ID()]; !ok {
		return domain.ErrNotFound
	}
	m.store.entries[entry.ID()] = entry.ToPersistence()
	return nil
}

func (m *EntryRepository) GetByTransactionID(_ context.Context, _ usecase.Transaction, transactionID domain.ID) ([]*domain.Entry, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.store.hydrateEntries(transactionID)
}

func (m *EntryRepository) VoidByTransactionID(_ context.Context, _ usecase.Transaction, transactionID domain.ID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for id, row := range m.store.entries {
		if row.TransactionID.Equals(transactionID) {
			row.IsTombstone = true
			m.store.entries[id] = row
		}
	}
	return nil
}

func (m *EntryRepository) VoidByIDs(_ context.Context, _ usecase.Transaction, ids []domain.ID) error {
	m.VoidByIDsCalls = append(m.VoidByIDsCalls, ids)
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, id := range ids {
		if row, ok := m.store.entries[id]; ok {
			row.IsTombstone = true
			m.store.entries[id] = row
		}
	}
	return nil
}

// OperationRepository is an in-memory usecase.OperationRepository.
type OperationRepository struct {
	store *Store

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, operation *domain.Operation) error
	CreateCalls         int
	VoidByEntryIDsCalls [][]domain.ID
}

func NewOperationRepository(store *Store) *OperationRepository {
	return &OperationRepository{store: store}
}

func (m *OperationRepository) Create(ctx context.Context, tx usecase.Transaction, operation *domain.Operation) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, operation)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.operations[operation.ID()]; ok {
		return domain.ErrRecordAlreadyExists
	}
	m.store.operations[operation.ID()] = operation.ToPersistence()
	return nil
}

func (m *OperationRepository) GetByEntryID(_ context.Context, _ usecase.Transaction, entryID domain.ID) ([]*domain.Operation, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.store.hydrateOperations(entryID)
}

func (m *OperationRepository) VoidByEntryIDs(_ context.Context, _ usecase.Transaction, entryIDs []domain.ID) error {
	m.VoidByEntryIDsCalls = append(m.VoidByEntryIDsCalls, entryIDs)
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	void := make(map[domain.ID]bool, len(entryIDs))
	for _, id := range entryIDs {
		void[id] = true
	}
	for id, row := range m.store.operations {
		if void[row.EntryID] {
			row.IsTombstone = true
			m.store.operations[id] = row
		}
	}
	return nil
}

// TransactionRepository is an in-memory usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store

	CreateFunc  func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
	UpdateCalls int
}

func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (m *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transaction)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.transactions[transaction.ID()]; ok {
		return domain.ErrRecordAlreadyExists
	}
	m.store.transactions[transaction.ID()] = transaction.ToPersistence()
	return nil
}

func (m *TransactionRepository) GetByID(_ context.Context, _ usecase.Transaction, id domain.ID) (*domain.Transaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	row, ok := m.store.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	entries, err := m.store.hydrateEntries(id)
	if err != nil {
		return nil, err
	}
	return domain.RestoreTransaction(row, entries)
}

func (m *TransactionRepository) Update(_ context.Context, _ usecase.Transaction, transaction *domain.Transaction) error {
	m.UpdateCalls++
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.transactions[transaction.ID()]; !ok {
		return domain.ErrTransactionNotFound
	}
	m.store.transactions[transaction.ID()] = transaction.ToPersistence()
	return nil
}

func (m *TransactionRepository) Delete(_ context.Context, _ usecase.Transaction, id domain.ID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	row, ok := m.store.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	row.IsTombstone = true
	m.store.transactions[id] = row
	return nil
}

func (m *TransactionRepository) List(_ context.Context, _ usecase.Transaction, userID domain.ID, limit, offset int) ([]*domain.Transaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var rows []domain.TransactionRow
	for _, row := range m.store.transactions {
		if row.UserID.Equals(userID) && !row.IsTombstone {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		entries, err := m.store.hydrateEntries(row.ID)
		if err != nil {
			return nil, err
		}
		t, err := domain.RestoreTransaction(row, entries)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) hydrateEntries(transactionID domain.ID) ([]*domain.Entry, error) {
	var rows []domain.EntryRow
	for _, row := range s.entries {
		if row.TransactionID.Equals(transactionID) && !row.IsTombstone {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		ops, err := s.hydrateOperations(row.ID)
		if err != nil {
			return nil, err
		}
		e, err := domain.RestoreEntry(row, ops)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) hydrateOperations(entryID domain.ID) ([]*domain.Operation, error) {
	var rows []domain.OperationRow
	for _, row := range s.operations {
		if row.EntryID.Equals(entryID) && !row.IsTombstone {
			rows = append(rows, row)
		}
	}
	sortOperationRows(rows)
	ops := make([]*domain.Operation, 0, len(rows))
	for _, row := range rows {
		op, err := domain.RestoreOperation(row)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// UserRepository is an in-memory usecase.UserRepository.
type UserRepository struct {
	store *Store

	GetByEmailFunc func(ctx context.Context, tx usecase.Transaction, email domain.Email) (*domain.User, error)
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (m *UserRepository) Create(_ context.Context, _ usecase.Transaction, user *domain.User) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.users[user.ID()]; ok {
		return domain.ErrRecordAlreadyExists
	}
	m.store.users[user.ID()] = user.ToPersistence()
	return nil
}

func (m *UserRepository) GetByID(_ context.Context, _ usecase.Transaction, id domain.ID) (*domain.User, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	row, ok := m.store.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return domain.RestoreUser(row)
}

func (m *UserRepository) GetByEmail(ctx context.Context, tx usecase.Transaction, email domain.Email) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, tx, email)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	for _, row := range m.store.users {
		if row.Email == email.String() {
			return domain.RestoreUser(row)
		}
	}
	return nil, domain.ErrUserNotFound
}

// OutboxRepository is an in-memory usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (m *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.events = append(m.store.events, event)
	return nil
}

func (m *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, ev := range m.store.events {
		if !ev.Published && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *OutboxRepository) MarkPublished(_ context.Context, id domain.ID, publishedAt time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, ev := range m.store.events {
		if ev.ID.Equals(id) {
			ev.Published = true
			ev.PublishedAt = &publishedAt
			return nil
		}
	}
	return domain.ErrNotFound
}

// Transaction is a no-op database transaction.
type Transaction struct {
	Committed  bool
	RolledBack bool
}

func (m *Transaction) Commit(context.Context) error {
	m.Committed = true
	return nil
}

func (m *Transaction) Rollback(context.Context) error {
	m.RolledBack = true
	return nil
}

// TxManager runs callbacks against a Transaction. It does not undo
// writes on rollback; tests assert on the returned error instead.
type TxManager struct {
	RunFunc func(ctx context.Context, fn func(tx usecase.Transaction) error) error
	Last    *Transaction
}

func NewTxManager() *TxManager {
	return &TxManager{}
}

func (m *TxManager) Run(ctx context.Context, fn func(tx usecase.Transaction) error) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, fn)
	}
	tx := &Transaction{}
	m.Last = tx
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// LedgerRepository is an in-memory usecase.LedgerRepository. Without a
// store or override it reports an empty ledger.
type LedgerRepository struct {
	store *Store

	TrialBalanceFunc    func(ctx context.Context, userID domain.ID) (map[domain.Currency]domain.Amount, error)
	AccountBalancesFunc func(ctx context.Context, userID domain.ID) (map[domain.ID]domain.Amount, error)
}

// NewLedgerRepository sums the active operations held in store.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (m *LedgerRepository) activeOperations(userID domain.ID) []domain.OperationRow {
	if m.store == nil {
		return nil
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []domain.OperationRow
	for _, op := range m.store.operations {
		if op.IsTombstone || !op.UserID.Equals(userID) {
			continue
		}
		if entry, ok := m.store.entries[op.EntryID]; ok && entry.IsTombstone {
			continue
		}
		out = append(out, op)
	}
	return out
}

func (m *LedgerRepository) TrialBalance(ctx context.Context, userID domain.ID) (map[domain.Currency]domain.Amount, error) {
	if m.TrialBalanceFunc != nil {
		return m.TrialBalanceFunc(ctx, userID)
	}
	totals := map[domain.Currency]domain.Amount{}
	for _, op := range m.activeOperations(userID) {
		c, err := domain.ParseCurrency(op.Currency)
		if err != nil {
			return nil, err
		}
		totals[c] = totals[c].Add(op.Amount)
	}
	return totals, nil
}

func (m *LedgerRepository) AccountBalances(ctx context.Context, userID domain.ID) (map[domain.ID]domain.Amount, error) {
	if m.AccountBalancesFunc != nil {
		return m.AccountBalancesFunc(ctx, userID)
	}
	movements := map[domain.ID]domain.Amount{}
	for _, op := range m.activeOperations(userID) {
		movements[op.AccountID] = movements[op.AccountID].Add(op.Amount)
	}
	return movements, nil
}

// Metrics counts recorded events.
type Metrics struct {
	mu             sync.Mutex
	EntryChanges   map[string]int
	IDCollisions   map[string]int
	TxOperations   map[string]int
	TxOperationErr map[string]int
}

func NewMetrics() *Metrics {
	return &Metrics{
		EntryChanges:   make(map[string]int),
		IDCollisions:   make(map[string]int),
		TxOperations:   make(map[string]int),
		TxOperationErr: make(map[string]int),
	}
}

func (m *Metrics) RecordEntryChange(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntryChanges[kind]++
}

func (m *Metrics) RecordIDCollision(entity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IDCollisions[entity]++
}

func (m *Metrics) RecordTransactionOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TxOperations[operation]++
	if err != nil {
		m.TxOperationErr[operation]++
	}
}

// TokenIssuer returns a fixed token.
type TokenIssuer struct {
	Token string
	Err   error
}

func (m *TokenIssuer) Generate(*domain.User) (string, error) {
	return m.Token, m.Err
}

// Dependencies wires every in-memory repository over store.
func Dependencies(store *Store) usecase.Dependencies {
	return usecase.Dependencies{
		TxManager:    NewTxManager(),
		Users:        NewUserRepository(store),
		Accounts:     NewAccountRepository(store),
		Transactions: NewTransactionRepository(store),
		Entries:      NewEntryRepository(store),
		Operations:   NewOperationRepository(store),
		Outbox:       NewOutboxRepository(store),
		Ledger:       NewLedgerRepository(store),
		Tokens:       &TokenIssuer{Token: "token"},
	}
}
