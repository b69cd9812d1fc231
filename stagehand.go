package stagehand

import (
	_ "embed"

	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/guard"
)

// Version is the release version, kept in the VERSION file so tagging
// scripts and the binary agree.
//
//go:embed VERSION
var Version string

// Check is the library entry point for a one-shot transition check: table
// legality only, no checklist gates and no storage. Embedders that need
// gate checks construct a guard.Guard and supply their own checklist
// source.
func Check(d domain.Domain, from, to string) error {
	return domain.Assert(d, from, to, "check")
}

// NewGuard returns the guard with the standard checklist gate table.
func NewGuard() *guard.Guard {
	return guard.New()
}
