package stagehand_test

import (
	"strings"
	"testing"

	"github.com/lcroft/stagehand"
	"github.com/lcroft/stagehand/pkg/domain"
)

func TestVersionIsSet(t *testing.T) {
	v := strings.TrimSpace(stagehand.Version)
	if v == "" {
		t.Fatal("Version must not be empty")
	}
	if strings.Count(v, ".") != 2 {
		t.Fatalf("Version %q is not semver-shaped", v)
	}
}

func TestCheckCoversAllDomains(t *testing.T) {
	for _, d := range domain.Domains() {
		states := domain.States(d)
		if len(states) == 0 {
			t.Fatalf("domain %s has no states", d)
		}
		legal := false
		for _, from := range states {
			for _, to := range domain.NextStates(d, from) {
				if err := stagehand.Check(d, from, to); err != nil {
					t.Errorf("%s: table edge %s -> %s rejected: %v", d, from, to, err)
				}
				legal = true
			}
		}
		if !legal {
			t.Errorf("domain %s has no legal transitions", d)
		}
	}
}

func TestCheckRejectsUnknownDomain(t *testing.T) {
	if err := stagehand.Check("widget", "a", "b"); err == nil {
		t.Fatal("expected rejection for unknown domain")
	}
}
