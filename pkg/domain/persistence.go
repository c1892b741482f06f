package domain

import "context"

// Transaction exposes the root mutations a persistence implementation must
// support within an atomic scope. Lookups return the zero value and false for
// unknown ids rather than an error.
type Transaction interface {
	// SeedUnits inserts every unit absent from the root, never overwriting
	// existing ones, and returns the number inserted.
	SeedUnits(units []Unit) int

	CreateIssue(Issue) (Issue, error)
	UpdateIssue(id string, mutator func(*Issue) error) (Issue, bool, error)
	UpdateUnit(id string, mutator func(*Unit) error) (Unit, bool, error)
	CreateRegistration(WardRegistration) (WardRegistration, error)
	UpdateRegistration(id string, mutator func(*WardRegistration) error) (WardRegistration, bool, error)
	CreateBonusRequest(BonusRequest) (BonusRequest, error)
	UpdateBonusRequest(id string, mutator func(*BonusRequest) error) (BonusRequest, bool, error)

	// Merge upserts apply remote snapshot records during a pull. They bypass
	// the transition rules: the remote side already executed the workflow.
	MergeIssue(Issue)
	MergeRegistration(WardRegistration)
	MergeBonusRequest(BonusRequest)

	PutSession(Session)
	DeleteSession(token string)
	AppendAudit(AuditEntry)
	SetPersistent(granted bool)

	FindUnit(id string) (Unit, bool)
	FindIssue(id string) (Issue, bool)
	FindRegistration(id string) (WardRegistration, bool)
	FindBonusRequest(id string) (BonusRequest, bool)
}

// PersistentStore is the abstraction over durable root backends. All access
// is whole-root: RunInTransaction serializes fetch-mutate-save cycles behind
// a single writer, and View observes a consistent copy.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(Snapshot) error) error

	FindUnit(id string) (Unit, bool)
	FindUnitByEmail(email string) (Unit, bool)
	FindIssue(id string) (Issue, bool)
	FindSession(token string) (Session, bool)
	ListUnits() []Unit
	ListIssues() []Issue
	ListRegistrations() []WardRegistration
	ListBonusRequests() []BonusRequest

	// ExportState and ImportState move the whole root across process or
	// backend boundaries.
	ExportState() Snapshot
	ImportState(Snapshot)

	Close() error
}
