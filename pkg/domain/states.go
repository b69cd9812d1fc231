package domain

// Each domain gets its own closed string type so an invoice status can never
// be handed to a pursuit check by accident. The generic table machinery works
// on plain strings; these types are the boundary the rest of the codebase
// should hold on to.

// PursuitStage is the sales pipeline stage of a pursuit.
type PursuitStage string

const (
	PursuitQual   PursuitStage = "qual"
	PursuitPink   PursuitStage = "pink"
	PursuitRed    PursuitStage = "red"
	PursuitSubmit PursuitStage = "submit"
	PursuitWon    PursuitStage = "won"
	PursuitLost   PursuitStage = "lost"
)

// InvoiceStatus is the billing lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoiceViewed    InvoiceStatus = "viewed"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// ContractStatus is the lifecycle state of a contract.
type ContractStatus string

const (
	ContractDraft     ContractStatus = "draft"
	ContractActive    ContractStatus = "active"
	ContractOnHold    ContractStatus = "on_hold"
	ContractCompleted ContractStatus = "completed"
	ContractCancelled ContractStatus = "cancelled"
)

// TimeEntryStatus is the approval state of a time entry.
type TimeEntryStatus string

const (
	TimeEntrySubmitted TimeEntryStatus = "submitted"
	TimeEntryApproved  TimeEntryStatus = "approved"
)

// CandidateStatus is the qualification state of a sales candidate.
type CandidateStatus string

const (
	CandidateNew      CandidateStatus = "new"
	CandidateOpen     CandidateStatus = "open"
	CandidatePromoted CandidateStatus = "promoted"
)

// DocumentStatus is the review lifecycle state of a document.
type DocumentStatus string

const (
	DocumentDraft    DocumentStatus = "draft"
	DocumentInReview DocumentStatus = "in_review"
	DocumentApproved DocumentStatus = "approved"
	DocumentReleased DocumentStatus = "released"
)

// RuleStatus is the toggle state of an automation rule.
type RuleStatus string

const (
	RuleDisabled RuleStatus = "disabled"
	RuleActive   RuleStatus = "active"
)
