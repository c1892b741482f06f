// Package domain defines the persistent entities, fixed catalogs, scoring
// functions, and rule evaluation primitives used by wardwatch.
package domain

import "time"

// EntityType identifies the type of record stored in the root.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityUnit identifies an administrative or ward account record.
	EntityUnit EntityType = "unit"
	// EntityIssue identifies a violation record.
	EntityIssue EntityType = "issue"
	// EntityRegistration identifies a ward point-baseline registration.
	EntityRegistration EntityType = "registration"
	// EntityBonusRequest identifies a discretionary bonus proposal.
	EntityBonusRequest EntityType = "bonus_request"
	// EntitySession identifies an authenticated session record.
	EntitySession EntityType = "session"
)

// Role gates which workflow operations a unit may perform.
type Role string

// Unit roles. Admin and reviewer units confirm or reject resolved issues;
// ward units acknowledge and resolve them.
const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
	RoleWard     Role = "ward"
)

// IssueStatus is the issue workflow state.
type IssueStatus string

// Issue workflow states. Transitions are monotonic forward except rejected,
// which returns the issue to ward action; confirmed and closed are terminal.
const (
	IssueNew        IssueStatus = "new"
	IssueReceived   IssueStatus = "received"
	IssueProcessing IssueStatus = "processing"
	IssueResolved   IssueStatus = "resolved"
	IssueConfirmed  IssueStatus = "confirmed"
	IssueRejected   IssueStatus = "rejected"
	IssueClosed     IssueStatus = "closed"
)

// Terminal reports whether no further transition is permitted out of s.
func (s IssueStatus) Terminal() bool {
	return s == IssueConfirmed || s == IssueClosed
}

// ReviewStatus is shared by registrations and bonus requests.
type ReviewStatus string

// Review workflow states for registrations and bonus requests.
const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// MediaKind distinguishes evidence payload types.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// SLAWindow is the fixed review window granted to a ward for each issue.
const SLAWindow = 45 * time.Minute

// Unit is an administrative or ward account tracked for compliance scoring.
// Units are seeded once at store initialization and never deleted; the
// coefficient and base score are recomputed when a registration is approved.
type Unit struct {
	ID                   string  `json:"id"`
	Email                string  `json:"email"`
	Role                 Role    `json:"role"`
	UnitName             string  `json:"unit_name"`
	PhoneNumber          string  `json:"phone_number,omitempty"`
	AreaCoefficient      int     `json:"area_coefficient"`
	BaseScore            float64 `json:"base_score"`
	TotalViolationPoints float64 `json:"total_violation_points"`
}

// MediaItem is a single piece of evidence attached to an issue. Payload holds
// the inline data URL until archiving offloads it to the blob store, after
// which BlobKey references the stored object.
type MediaItem struct {
	ID          string    `json:"id"`
	Kind        MediaKind `json:"kind"`
	Payload     string    `json:"payload,omitempty"`
	BlobKey     string    `json:"blob_key,omitempty"`
	Description string    `json:"description,omitempty"`
}

// IssueVersion snapshots an issue at the moment of an update for audit review.
type IssueVersion struct {
	VersionID    string      `json:"version_id"`
	UpdatedAt    time.Time   `json:"updated_at"`
	UpdatedBy    string      `json:"updated_by"`
	OperatorName string      `json:"operator_name,omitempty"`
	ChangeReason string      `json:"change_reason,omitempty"`
	Status       IssueStatus `json:"status"`
}

// Issue is a recorded violation requiring acknowledgement, resolution and
// confirmation within the SLA window. DeadlineTime is fixed at creation and
// never changes.
type Issue struct {
	ID                  string         `json:"id"`
	CustomName          string         `json:"custom_name,omitempty"`
	CreatedTime         time.Time      `json:"created_time"`
	DeadlineTime        time.Time      `json:"deadline_time"`
	WardID              string         `json:"ward_id"`
	WardName            string         `json:"ward_name,omitempty"`
	LocationDescription string         `json:"location_description,omitempty"`
	ViolationCode       string         `json:"violation_code"`
	PenaltyPoints       float64        `json:"penalty_points"`
	Source              string         `json:"source,omitempty"`
	Note                string         `json:"note,omitempty"`
	Evidence            []MediaItem    `json:"evidence"`
	ReportContent       string         `json:"report_content,omitempty"`
	ReportBBN           string         `json:"report_bbn,omitempty"`
	ReportTime          *time.Time     `json:"report_time,omitempty"`
	ResolvedTime        *time.Time     `json:"resolved_time,omitempty"`
	ReportEvidence      []MediaItem    `json:"report_evidence"`
	Status              IssueStatus    `json:"status"`
	Versions            []IssueVersion `json:"versions"`
}

// WardRegistration is a ward's periodic proposal of its violation-point
// baseline. Approval propagates points, coefficient and base score to the
// referenced unit.
type WardRegistration struct {
	ID                  string       `json:"id"`
	WardID              string       `json:"ward_id"`
	WardName            string       `json:"ward_name,omitempty"`
	Month               string       `json:"month,omitempty"`
	Points              float64      `json:"points"`
	ProposedCoefficient int          `json:"proposed_coefficient"`
	Status              ReviewStatus `json:"status"`
	CreatedAt           time.Time    `json:"created_at"`
	ReviewedAt          *time.Time   `json:"reviewed_at,omitempty"`
	Note                string       `json:"note,omitempty"`
}

// BonusRequest is a ward's proposal for a discretionary positive score
// adjustment. FinalPoints is set equal to RequestedPoints only on approval.
type BonusRequest struct {
	ID              string       `json:"id"`
	WardID          string       `json:"ward_id"`
	WardName        string       `json:"ward_name,omitempty"`
	Month           string       `json:"month,omitempty"`
	CriteriaID      string       `json:"criteria_id"`
	CriteriaContent string       `json:"criteria_content,omitempty"`
	RequestedPoints float64      `json:"requested_points"`
	Description     string       `json:"description,omitempty"`
	Status          ReviewStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	ReviewedBy      string       `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	ReviewerNote    string       `json:"reviewer_note,omitempty"`
	FinalPoints     *float64     `json:"final_points,omitempty"`
}

// AuditEntry is an append-only record of a mutation applied through the
// domain services.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	TargetID  string    `json:"target_id,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Session is an authenticated login persisted in the root so that a restart
// restores the last session. It replaces hidden current-user state: domain
// service calls resolve an explicit actor from a session token.
type Session struct {
	Token     string    `json:"token"`
	UnitID    string    `json:"unit_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Meta carries root-level bookkeeping.
type Meta struct {
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	IsPersistent bool      `json:"is_persistent"`
}

// Snapshot is the serialisable representation of the store root. It is the
// unit of persistence: drivers load and save it whole.
type Snapshot struct {
	Units         map[string]Unit             `json:"units"`
	Issues        map[string]Issue            `json:"issues"`
	Registrations map[string]WardRegistration `json:"registrations"`
	BonusRequests map[string]BonusRequest     `json:"bonus_requests"`
	Sessions      map[string]Session          `json:"sessions"`
	AuditLog      []AuditEntry                `json:"audit_log"`
	Meta          Meta                        `json:"meta"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions captured in the audit trail.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	// ActionMerge indicates a record overwritten or inserted by a sync pull.
	ActionMerge Action = "merge"
)
