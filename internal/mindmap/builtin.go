package mindmap

import (
	"embed"
	"fmt"
	"sync"
)

// Tier selects one of the built-in documents by size.
type Tier string

const (
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
)

//go:embed builtin/*.json
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtinDocs map[Tier]*Document
	builtinErr  error
)

// Tiers lists the built-in tiers from smallest to largest.
func Tiers() []Tier {
	return []Tier{TierSmall, TierMedium, TierLarge}
}

// ParseTier converts a string to a Tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierSmall, TierMedium, TierLarge:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("unknown tier %q: must be one of small, medium, large", s)
	}
}

// Builtin returns the built-in document for the tier. The same pointer is
// returned on every call so built-ins keep a stable identity; callers must
// treat it as read-only.
func Builtin(tier Tier) (*Document, error) {
	builtinOnce.Do(loadBuiltins)
	if builtinErr != nil {
		return nil, builtinErr
	}
	doc, ok := builtinDocs[tier]
	if !ok {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}
	return doc, nil
}

func loadBuiltins() {
	builtinDocs = make(map[Tier]*Document, 3)
	for _, tier := range Tiers() {
		data, err := builtinFS.ReadFile("builtin/" + string(tier) + ".json")
		if err != nil {
			builtinErr = fmt.Errorf("reading builtin %s: %w", tier, err)
			return
		}
		doc, err := Validate(data)
		if err != nil {
			builtinErr = fmt.Errorf("validating builtin %s: %w", tier, err)
			return
		}
		builtinDocs[tier] = doc
	}
}
