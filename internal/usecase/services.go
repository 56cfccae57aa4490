package usecase

// Dependencies are the adapters the use cases run on.
type Dependencies struct {
	TxManager    TransactionManager
	Users        UserRepository
	Accounts     AccountRepository
	Transactions TransactionRepository
	Entries      EntryRepository
	Operations   OperationRepository
	Outbox       OutboxRepository
	Ledger       LedgerRepository
	Tokens       TokenIssuer
	Metrics      MetricsRecorder

	// IDRetries defaults to DefaultIDRetries when zero.
	IDRetries int
}

// Services is the full set of use cases.
type Services struct {
	Users        *UserUseCase
	Accounts     *AccountUseCase
	Transactions *TransactionUseCase
	Ledger       *LedgerUseCase
	Entries      *EntriesService
}

// NewServices wires the reconciliation pipeline and the use cases.
func NewServices(d Dependencies) *Services {
	retries := d.IDRetries
	if retries == 0 {
		retries = DefaultIDRetries
	}
	metrics := metricsOrNop(d.Metrics)
	policy := IDRetryPolicy{Retries: retries, OnCollision: metrics.RecordIDCollision}

	creator := NewEntryCreator(d.Entries, d.Operations, policy)
	entries := NewEntriesService(
		NewEntriesContextLoader(d.Accounts, policy),
		creator,
		NewEntryUpdater(d.Entries, d.Operations, creator, metrics),
	)

	return &Services{
		Users:    NewUserUseCase(d.Users, d.Tokens, policy),
		Accounts: NewAccountUseCase(d.TxManager, d.Accounts, d.Outbox, policy),
		Transactions: NewTransactionUseCase(d.TxManager, d.Transactions, d.Entries, d.Operations,
			d.Outbox, entries, policy, metrics),
		Ledger:  NewLedgerUseCase(d.Ledger, d.Accounts),
		Entries: entries,
	}
}
