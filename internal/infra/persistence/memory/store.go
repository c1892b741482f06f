// Package memory provides the in-memory transactional root store that the
// durable drivers build upon. Every mutation is a fetch-whole-root, mutate,
// save-whole-root cycle serialized behind a single writer lock.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wardwatch/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type rootState struct {
	units         map[string]domain.Unit
	issues        map[string]domain.Issue
	registrations map[string]domain.WardRegistration
	bonusRequests map[string]domain.BonusRequest
	sessions      map[string]domain.Session
	auditLog      []domain.AuditEntry
	meta          domain.Meta
}

func newRootState(now time.Time) rootState {
	return rootState{
		units:         map[string]domain.Unit{},
		issues:        map[string]domain.Issue{},
		registrations: map[string]domain.WardRegistration{},
		bonusRequests: map[string]domain.BonusRequest{},
		sessions:      map[string]domain.Session{},
		meta:          domain.Meta{CreatedAt: now},
	}
}

func cloneUnit(u domain.Unit) domain.Unit { return u }

func cloneMedia(items []domain.MediaItem) []domain.MediaItem {
	if items == nil {
		return nil
	}
	return append([]domain.MediaItem(nil), items...)
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	cp := *f
	return &cp
}

func cloneIssue(i domain.Issue) domain.Issue {
	cp := i
	cp.Evidence = cloneMedia(i.Evidence)
	cp.ReportEvidence = cloneMedia(i.ReportEvidence)
	cp.Versions = append([]domain.IssueVersion(nil), i.Versions...)
	cp.ReportTime = cloneTimePtr(i.ReportTime)
	cp.ResolvedTime = cloneTimePtr(i.ResolvedTime)
	return cp
}

func cloneRegistration(r domain.WardRegistration) domain.WardRegistration {
	cp := r
	cp.ReviewedAt = cloneTimePtr(r.ReviewedAt)
	return cp
}

func cloneBonus(b domain.BonusRequest) domain.BonusRequest {
	cp := b
	cp.ReviewedAt = cloneTimePtr(b.ReviewedAt)
	cp.FinalPoints = cloneFloatPtr(b.FinalPoints)
	return cp
}

func snapshotFromState(state rootState) domain.Snapshot {
	s := domain.Snapshot{
		Units:         make(map[string]domain.Unit, len(state.units)),
		Issues:        make(map[string]domain.Issue, len(state.issues)),
		Registrations: make(map[string]domain.WardRegistration, len(state.registrations)),
		BonusRequests: make(map[string]domain.BonusRequest, len(state.bonusRequests)),
		Sessions:      make(map[string]domain.Session, len(state.sessions)),
		AuditLog:      append([]domain.AuditEntry(nil), state.auditLog...),
		Meta:          state.meta,
	}
	for k, v := range state.units {
		s.Units[k] = cloneUnit(v)
	}
	for k, v := range state.issues {
		s.Issues[k] = cloneIssue(v)
	}
	for k, v := range state.registrations {
		s.Registrations[k] = cloneRegistration(v)
	}
	for k, v := range state.bonusRequests {
		s.BonusRequests[k] = cloneBonus(v)
	}
	for k, v := range state.sessions {
		s.Sessions[k] = v
	}
	return s
}

func stateFromSnapshot(s domain.Snapshot) rootState {
	state := newRootState(s.Meta.CreatedAt)
	state.meta = s.Meta
	for k, v := range s.Units {
		state.units[k] = cloneUnit(v)
	}
	for k, v := range s.Issues {
		state.issues[k] = cloneIssue(v)
	}
	for k, v := range s.Registrations {
		state.registrations[k] = cloneRegistration(v)
	}
	for k, v := range s.BonusRequests {
		state.bonusRequests[k] = cloneBonus(v)
	}
	for k, v := range s.Sessions {
		state.sessions[k] = v
	}
	state.auditLog = append([]domain.AuditEntry(nil), s.AuditLog...)
	return state
}

func (s rootState) clone() rootState { return stateFromSnapshot(snapshotFromState(s)) }

// Store is the in-memory root store. Durable drivers embed it and persist the
// exported snapshot after each successful transaction.
type Store struct {
	mu     sync.RWMutex
	state  rootState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory root store backed by the provided rules
// engine (the default policy set when nil).
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewDefaultRulesEngine()
	}
	now := time.Now().UTC()
	return &Store{
		state:  newRootState(now),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

func randSuffix() string {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// newIssueID derives a unique, creation-ordered identifier from the
// transaction timestamp. The zero-padded millisecond prefix keeps
// lexicographic order equal to creation order.
func newIssueID(now time.Time, taken map[string]domain.Issue) string {
	for {
		id := fmt.Sprintf("ISS-%013d-%s", now.UnixMilli(), randSuffix())
		if _, exists := taken[id]; !exists {
			return id
		}
	}
}

// Transaction is a mutation set applied against a cloned root.
type Transaction struct {
	store   *Store
	state   rootState
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

// RunInTransaction executes fn within a transactional copy of the root,
// evaluates the rules engine over the recorded changes, and swaps the new
// root in on success. The store mutex is the single-writer queue: two
// concurrent cycles can never lose one side's update.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{store: s, state: s.state.clone(), now: s.nowFn()}
	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	result, err := s.engine.Evaluate(ctx, tx.changes)
	if err != nil {
		return domain.Result{}, err
	}
	if result.HasBlocking() {
		return result, domain.RuleViolationError{Result: result}
	}

	tx.state.meta.LastUpdated = tx.now
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the root.
func (s *Store) View(_ context.Context, fn func(domain.Snapshot) error) error {
	s.mu.RLock()
	snapshot := snapshotFromState(s.state)
	s.mu.RUnlock()
	return fn(snapshot)
}

// ExportState returns a deep copy of the whole root.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the whole root.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

// Close releases nothing for the in-memory driver.
func (s *Store) Close() error { return nil }

func (tx *Transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// SeedUnits inserts catalog units absent from the root, never overwriting
// existing records.
func (tx *Transaction) SeedUnits(units []domain.Unit) int {
	inserted := 0
	for _, unit := range units {
		if _, exists := tx.state.units[unit.ID]; exists {
			continue
		}
		tx.state.units[unit.ID] = cloneUnit(unit)
		tx.recordChange(domain.Change{Entity: domain.EntityUnit, Action: domain.ActionCreate, After: cloneUnit(unit)})
		inserted++
	}
	return inserted
}

// CreateIssue stores a new issue, assigning a creation-ordered id and the
// fixed SLA deadline when unset.
func (tx *Transaction) CreateIssue(issue domain.Issue) (domain.Issue, error) {
	if issue.ID == "" {
		issue.ID = newIssueID(tx.now, tx.state.issues)
	}
	if _, exists := tx.state.issues[issue.ID]; exists {
		return domain.Issue{}, fmt.Errorf("issue %q already exists", issue.ID)
	}
	if issue.CreatedTime.IsZero() {
		issue.CreatedTime = tx.now
	}
	if issue.DeadlineTime.IsZero() {
		issue.DeadlineTime = issue.CreatedTime.Add(domain.SLAWindow)
	}
	if issue.Status == "" {
		issue.Status = domain.IssueNew
	}
	tx.state.issues[issue.ID] = cloneIssue(issue)
	tx.recordChange(domain.Change{Entity: domain.EntityIssue, Action: domain.ActionCreate, After: cloneIssue(issue)})
	return cloneIssue(issue), nil
}

// UpdateIssue mutates an issue. A missing id is a no-op reported through the
// boolean, not an error.
func (tx *Transaction) UpdateIssue(id string, mutator func(*domain.Issue) error) (domain.Issue, bool, error) {
	current, ok := tx.state.issues[id]
	if !ok {
		return domain.Issue{}, false, nil
	}
	before := cloneIssue(current)
	working := cloneIssue(current)
	if err := mutator(&working); err != nil {
		return domain.Issue{}, true, err
	}
	working.ID = id
	tx.state.issues[id] = cloneIssue(working)
	tx.recordChange(domain.Change{Entity: domain.EntityIssue, Action: domain.ActionUpdate, Before: before, After: cloneIssue(working)})
	return cloneIssue(working), true, nil
}

// UpdateUnit mutates a unit record.
func (tx *Transaction) UpdateUnit(id string, mutator func(*domain.Unit) error) (domain.Unit, bool, error) {
	current, ok := tx.state.units[id]
	if !ok {
		return domain.Unit{}, false, nil
	}
	before := cloneUnit(current)
	working := cloneUnit(current)
	if err := mutator(&working); err != nil {
		return domain.Unit{}, true, err
	}
	working.ID = id
	tx.state.units[id] = cloneUnit(working)
	tx.recordChange(domain.Change{Entity: domain.EntityUnit, Action: domain.ActionUpdate, Before: before, After: cloneUnit(working)})
	return cloneUnit(working), true, nil
}

// CreateRegistration stores a new ward registration.
func (tx *Transaction) CreateRegistration(reg domain.WardRegistration) (domain.WardRegistration, error) {
	if reg.ID == "" {
		reg.ID = fmt.Sprintf("REG-%013d-%s", tx.now.UnixMilli(), randSuffix())
	}
	if _, exists := tx.state.registrations[reg.ID]; exists {
		return domain.WardRegistration{}, fmt.Errorf("registration %q already exists", reg.ID)
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = tx.now
	}
	tx.state.registrations[reg.ID] = cloneRegistration(reg)
	tx.recordChange(domain.Change{Entity: domain.EntityRegistration, Action: domain.ActionCreate, After: cloneRegistration(reg)})
	return cloneRegistration(reg), nil
}

// UpdateRegistration mutates a registration; missing ids are a no-op.
func (tx *Transaction) UpdateRegistration(id string, mutator func(*domain.WardRegistration) error) (domain.WardRegistration, bool, error) {
	current, ok := tx.state.registrations[id]
	if !ok {
		return domain.WardRegistration{}, false, nil
	}
	before := cloneRegistration(current)
	working := cloneRegistration(current)
	if err := mutator(&working); err != nil {
		return domain.WardRegistration{}, true, err
	}
	working.ID = id
	tx.state.registrations[id] = cloneRegistration(working)
	tx.recordChange(domain.Change{Entity: domain.EntityRegistration, Action: domain.ActionUpdate, Before: before, After: cloneRegistration(working)})
	return cloneRegistration(working), true, nil
}

// CreateBonusRequest stores a new bonus request.
func (tx *Transaction) CreateBonusRequest(bonus domain.BonusRequest) (domain.BonusRequest, error) {
	if bonus.ID == "" {
		bonus.ID = fmt.Sprintf("BON-%013d-%s", tx.now.UnixMilli(), randSuffix())
	}
	if _, exists := tx.state.bonusRequests[bonus.ID]; exists {
		return domain.BonusRequest{}, fmt.Errorf("bonus request %q already exists", bonus.ID)
	}
	if bonus.CreatedAt.IsZero() {
		bonus.CreatedAt = tx.now
	}
	tx.state.bonusRequests[bonus.ID] = cloneBonus(bonus)
	tx.recordChange(domain.Change{Entity: domain.EntityBonusRequest, Action: domain.ActionCreate, After: cloneBonus(bonus)})
	return cloneBonus(bonus), nil
}

// UpdateBonusRequest mutates a bonus request; missing ids are a no-op.
func (tx *Transaction) UpdateBonusRequest(id string, mutator func(*domain.BonusRequest) error) (domain.BonusRequest, bool, error) {
	current, ok := tx.state.bonusRequests[id]
	if !ok {
		return domain.BonusRequest{}, false, nil
	}
	before := cloneBonus(current)
	working := cloneBonus(current)
	if err := mutator(&working); err != nil {
		return domain.BonusRequest{}, true, err
	}
	working.ID = id
	tx.state.bonusRequests[id] = cloneBonus(working)
	tx.recordChange(domain.Change{Entity: domain.EntityBonusRequest, Action: domain.ActionUpdate, Before: before, After: cloneBonus(working)})
	return cloneBonus(working), true, nil
}

// MergeIssue upserts a remote issue record during a pull; remote wins per
// record, local-only records stay untouched.
func (tx *Transaction) MergeIssue(issue domain.Issue) {
	tx.state.issues[issue.ID] = cloneIssue(issue)
	tx.recordChange(domain.Change{Entity: domain.EntityIssue, Action: domain.ActionMerge, After: cloneIssue(issue)})
}

// MergeRegistration upserts a remote registration record during a pull.
func (tx *Transaction) MergeRegistration(reg domain.WardRegistration) {
	tx.state.registrations[reg.ID] = cloneRegistration(reg)
	tx.recordChange(domain.Change{Entity: domain.EntityRegistration, Action: domain.ActionMerge, After: cloneRegistration(reg)})
}

// MergeBonusRequest upserts a remote bonus request record during a pull.
func (tx *Transaction) MergeBonusRequest(bonus domain.BonusRequest) {
	tx.state.bonusRequests[bonus.ID] = cloneBonus(bonus)
	tx.recordChange(domain.Change{Entity: domain.EntityBonusRequest, Action: domain.ActionMerge, After: cloneBonus(bonus)})
}

// PutSession stores a session record keyed by token.
func (tx *Transaction) PutSession(session domain.Session) {
	tx.state.sessions[session.Token] = session
	tx.recordChange(domain.Change{Entity: domain.EntitySession, Action: domain.ActionCreate, After: session})
}

// DeleteSession removes a session; unknown tokens are a no-op.
func (tx *Transaction) DeleteSession(token string) {
	delete(tx.state.sessions, token)
}

// AppendAudit appends an entry to the append-only audit log.
func (tx *Transaction) AppendAudit(entry domain.AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = tx.now
	}
	tx.state.auditLog = append(tx.state.auditLog, entry)
}

// SetPersistent records the host storage-permanence grant in metadata.
func (tx *Transaction) SetPersistent(granted bool) {
	tx.state.meta.IsPersistent = granted
}

// FindUnit retrieves a unit from the transaction state.
func (tx *Transaction) FindUnit(id string) (domain.Unit, bool) {
	u, ok := tx.state.units[id]
	if !ok {
		return domain.Unit{}, false
	}
	return cloneUnit(u), true
}

// FindIssue retrieves an issue from the transaction state.
func (tx *Transaction) FindIssue(id string) (domain.Issue, bool) {
	i, ok := tx.state.issues[id]
	if !ok {
		return domain.Issue{}, false
	}
	return cloneIssue(i), true
}

// FindRegistration retrieves a registration from the transaction state.
func (tx *Transaction) FindRegistration(id string) (domain.WardRegistration, bool) {
	r, ok := tx.state.registrations[id]
	if !ok {
		return domain.WardRegistration{}, false
	}
	return cloneRegistration(r), true
}

// FindBonusRequest retrieves a bonus request from the transaction state.
func (tx *Transaction) FindBonusRequest(id string) (domain.BonusRequest, bool) {
	b, ok := tx.state.bonusRequests[id]
	if !ok {
		return domain.BonusRequest{}, false
	}
	return cloneBonus(b), true
}

// Read helpers ---------------------------------------------------------------

// FindUnit retrieves a unit by id from committed state.
func (s *Store) FindUnit(id string) (domain.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.units[id]
	if !ok {
		return domain.Unit{}, false
	}
	return cloneUnit(u), true
}

// FindUnitByEmail retrieves a unit by its case-insensitive email match key.
func (s *Store) FindUnitByEmail(email string) (domain.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.state.units {
		if strings.ToLower(u.Email) == needle {
			return cloneUnit(u), true
		}
	}
	return domain.Unit{}, false
}

// FindIssue retrieves an issue by id from committed state.
func (s *Store) FindIssue(id string) (domain.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.state.issues[id]
	if !ok {
		return domain.Issue{}, false
	}
	return cloneIssue(i), true
}

// FindSession retrieves a session by token from committed state.
func (s *Store) FindSession(token string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.state.sessions[token]
	return sess, ok
}

// ListUnits returns all units from committed state.
func (s *Store) ListUnits() []domain.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Unit, 0, len(s.state.units))
	for _, u := range s.state.units {
		out = append(out, cloneUnit(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListIssues returns all issues sorted by id descending, which equals
// newest-first because ids are creation-ordered.
func (s *Store) ListIssues() []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Issue, 0, len(s.state.issues))
	for _, i := range s.state.issues {
		out = append(out, cloneIssue(i))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// ListRegistrations returns all registrations, newest first.
func (s *Store) ListRegistrations() []domain.WardRegistration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WardRegistration, 0, len(s.state.registrations))
	for _, r := range s.state.registrations {
		out = append(out, cloneRegistration(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// ListBonusRequests returns all bonus requests, newest first.
func (s *Store) ListBonusRequests() []domain.BonusRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BonusRequest, 0, len(s.state.bonusRequests))
	for _, b := range s.state.bonusRequests {
		out = append(out, cloneBonus(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
