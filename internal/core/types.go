package core

import "wardwatch/pkg/domain"

type (
	EntityType         = domain.EntityType
	Role               = domain.Role
	IssueStatus        = domain.IssueStatus
	ReviewStatus       = domain.ReviewStatus
	Severity           = domain.Severity
	Unit               = domain.Unit
	Issue              = domain.Issue
	MediaItem          = domain.MediaItem
	WardRegistration   = domain.WardRegistration
	BonusRequest       = domain.BonusRequest
	AuditEntry         = domain.AuditEntry
	Session            = domain.Session
	Snapshot           = domain.Snapshot
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	PersistentStore    = domain.PersistentStore
)

const (
	EntityUnit         = domain.EntityUnit
	EntityIssue        = domain.EntityIssue
	EntityRegistration = domain.EntityRegistration
	EntityBonusRequest = domain.EntityBonusRequest
	EntitySession      = domain.EntitySession
)

const (
	RoleAdmin    = domain.RoleAdmin
	RoleReviewer = domain.RoleReviewer
	RoleWard     = domain.RoleWard
)

const (
	IssueNew        = domain.IssueNew
	IssueReceived   = domain.IssueReceived
	IssueProcessing = domain.IssueProcessing
	IssueResolved   = domain.IssueResolved
	IssueConfirmed  = domain.IssueConfirmed
	IssueRejected   = domain.IssueRejected
	IssueClosed     = domain.IssueClosed
)

const (
	ReviewPending  = domain.ReviewPending
	ReviewApproved = domain.ReviewApproved
	ReviewRejected = domain.ReviewRejected
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionMerge  = domain.ActionMerge
)
