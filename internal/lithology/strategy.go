package lithology

import (
	"fmt"
	"strings"
)

// Strategy decides whether a GIU borehole id refers to a specimen's borehole.
// Both ids arrive normalised. Every strategy must accept equal ids.
type Strategy interface {
	Name() string
	Match(giuHole, specimenHole string) bool
}

// Exact matches equal ids only.
type Exact struct{}

func (Exact) Name() string { return "exact" }

func (Exact) Match(giuHole, specimenHole string) bool { return giuHole == specimenHole }

// Suffix matches when the GIU id ends with the specimen id, so "SITE-BH1"
// accepts "BH1". It tolerates per-file id prefixes but can over-match short ids.
type Suffix struct{}

func (Suffix) Name() string { return "suffix" }

func (Suffix) Match(giuHole, specimenHole string) bool {
	return specimenHole != "" && strings.HasSuffix(giuHole, specimenHole)
}

// ParseStrategy resolves a strategy by name. An empty name selects Exact.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "exact":
		return Exact{}, nil
	case "suffix", "endswith":
		return Suffix{}, nil
	}
	return nil, fmt.Errorf("unknown match strategy %q (want exact or suffix)", name)
}
