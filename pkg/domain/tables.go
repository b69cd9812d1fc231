package domain

import "sort"

// stateSet is the set of legal destination states from one source state.
type stateSet map[string]struct{}

// table maps each source state of one domain to its legal destinations.
// Terminal states appear with an empty set so membership of the state
// enumeration can be verified without a separate list.
type table struct {
	edges map[string]stateSet

	// selfNoOp controls the policy for from == to: when true a self
	// transition is an idempotent no-op success, when false it is rejected
	// like any other missing edge. The policy is intentionally per-domain.
	selfNoOp bool
}

func edges(pairs map[string][]string) map[string]stateSet {
	out := make(map[string]stateSet, len(pairs))
	for from, tos := range pairs {
		set := make(stateSet, len(tos))
		for _, to := range tos {
			set[to] = struct{}{}
		}
		out[from] = set
	}
	return out
}

// tables holds the static transition table per domain. Built once at init and
// read-only thereafter; these edge lists are compatibility-sensitive business
// rules and must not be edited casually.
var tables = map[Domain]table{
	DomainPursuit: {
		edges: edges(map[string][]string{
			string(PursuitQual):   {string(PursuitPink)},
			string(PursuitPink):   {string(PursuitRed)},
			string(PursuitRed):    {string(PursuitSubmit)},
			string(PursuitSubmit): {string(PursuitWon), string(PursuitLost)},
			string(PursuitWon):    {},
			string(PursuitLost):   {},
		}),
	},
	DomainInvoice: {
		edges: edges(map[string][]string{
			string(InvoiceDraft):     {string(InvoiceSent), string(InvoiceCancelled)},
			string(InvoiceSent):      {string(InvoiceViewed), string(InvoicePaid), string(InvoiceOverdue), string(InvoiceCancelled)},
			string(InvoiceViewed):    {string(InvoicePaid), string(InvoiceOverdue), string(InvoiceCancelled)},
			string(InvoiceOverdue):   {string(InvoicePaid), string(InvoiceCancelled)},
			string(InvoicePaid):      {},
			string(InvoiceCancelled): {},
		}),
		// Payment providers redeliver status webhooks; re-asserting the
		// current status is a no-op, not an error.
		selfNoOp: true,
	},
	DomainContract: {
		edges: edges(map[string][]string{
			string(ContractDraft):     {string(ContractActive), string(ContractCancelled)},
			string(ContractActive):    {string(ContractOnHold), string(ContractCompleted), string(ContractCancelled)},
			string(ContractOnHold):    {string(ContractActive), string(ContractCancelled)},
			string(ContractCompleted): {},
			string(ContractCancelled): {},
		}),
	},
	DomainTimeEntry: {
		edges: edges(map[string][]string{
			string(TimeEntrySubmitted): {string(TimeEntryApproved)},
			string(TimeEntryApproved):  {},
		}),
	},
	DomainCandidate: {
		edges: edges(map[string][]string{
			string(CandidateNew):      {string(CandidateOpen), string(CandidatePromoted)},
			string(CandidateOpen):     {string(CandidatePromoted)},
			string(CandidatePromoted): {},
		}),
	},
	DomainDocument: {
		edges: edges(map[string][]string{
			string(DocumentDraft):    {string(DocumentInReview)},
			string(DocumentInReview): {string(DocumentApproved), string(DocumentDraft)},
			string(DocumentApproved): {string(DocumentReleased)},
			string(DocumentReleased): {},
		}),
		selfNoOp: true,
	},
	DomainAutomationRule: {
		edges: edges(map[string][]string{
			string(RuleDisabled): {string(RuleActive)},
			string(RuleActive):   {string(RuleDisabled)},
		}),
		selfNoOp: true,
	},
}

// States returns the state enumeration of a domain in a stable (sorted)
// order, or nil for an unknown domain.
func States(d Domain) []string {
	t, ok := tables[d]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t.edges))
	for s := range t.edges {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// NextStates returns the legal destinations from a state, sorted. The empty
// slice means the state is terminal; nil means domain or state is unknown.
func NextStates(d Domain, from string) []string {
	t, ok := tables[d]
	if !ok {
		return nil
	}
	set, ok := t.edges[from]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SelfNoOp reports whether the domain treats a from == to request as an
// idempotent success.
func SelfNoOp(d Domain) bool {
	return tables[d].selfNoOp
}

// KnownState reports whether s belongs to the domain's state enumeration.
func KnownState(d Domain, s string) bool {
	t, ok := tables[d]
	if !ok {
		return false
	}
	_, ok = t.edges[s]
	return ok
}

func init() {
	// Every destination must be a member of its domain's enumeration. A
	// violation is a programming error in the tables above, so fail loudly
	// at process start rather than misbehave at request time.
	for d, t := range tables {
		for from, set := range t.edges {
			for to := range set {
				if _, ok := t.edges[to]; !ok {
					panic("domain: transition table " + string(d) + " references unknown state " + to + " (from " + from + ")")
				}
			}
		}
	}
}
