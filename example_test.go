package stagehand_test

import (
	"fmt"

	"github.com/lcroft/stagehand"
	"github.com/lcroft/stagehand/pkg/domain"
)

// ExampleCheck demonstrates the pure transition check, useful when embedding
// the rulebook without any storage.
func ExampleCheck() {
	if err := stagehand.Check(domain.DomainPursuit, "qual", "pink"); err != nil {
		fmt.Println("rejected:", err)
	} else {
		fmt.Println("qual -> pink is legal")
	}

	if err := stagehand.Check(domain.DomainPursuit, "qual", "won"); err != nil {
		fmt.Println("rejected")
	}

	// Output:
	// qual -> pink is legal
	// rejected
}

// ExampleNewGuard shows how to find out which checklist a destination state
// requires before attempting the transition.
func ExampleNewGuard() {
	g := stagehand.NewGuard()
	if kind, ok := g.Gate(domain.DomainPursuit, "submit"); ok {
		fmt.Printf("entering submit requires the %s checklist\n", kind)
	}

	// Output:
	// entering submit requires the pink checklist
}
