package domain

// Domain identifies an entity kind with its own independent state set and
// transition table. States never compare across domains.
type Domain string

const (
	DomainPursuit        Domain = "pursuit"
	DomainInvoice        Domain = "invoice"
	DomainContract       Domain = "contract"
	DomainTimeEntry      Domain = "time_entry"
	DomainCandidate      Domain = "candidate"
	DomainDocument       Domain = "document"
	DomainAutomationRule Domain = "automation_rule"
)

// Domains returns every known domain in a stable order.
func Domains() []Domain {
	return []Domain{
		DomainPursuit,
		DomainInvoice,
		DomainContract,
		DomainTimeEntry,
		DomainCandidate,
		DomainDocument,
		DomainAutomationRule,
	}
}

// Known reports whether d names a registered domain.
func (d Domain) Known() bool {
	_, ok := tables[d]
	return ok
}

func (d Domain) String() string {
	return string(d)
}
