package pipeline

import (
	"strings"
)

// DefaultOperatorAliases folds legal-entity variants, mergers and historical
// renames of basin operators into one canonical name.
var DefaultOperatorAliases = map[string]string{
	"PAN AMERICAN ENERGY (SUCURSAL ARGENTINA) LLC": "PAN AMERICAN ENERGY",
	"PAN AMERICAN ENERGY SL":                       "PAN AMERICAN ENERGY",
	"VISTA ENERGY ARGENTINA SAU":                   "VISTA",
	"Vista Oil & Gas Argentina SA":                 "VISTA",
	"VISTA OIL & GAS ARGENTINA SAU":                "VISTA",
	"WINTERSHALL DE ARGENTINA S.A.":                "WINTERSHALL",
	"WINTERSHALL ENERGÍA S.A.":                     "WINTERSHALL",
}

// OperatorCanonicalizer maps raw operator names to canonical ones. Names
// without an alias pass through unchanged.
type OperatorCanonicalizer struct {
	aliases map[string]string
}

// NewOperatorCanonicalizer builds a canonicalizer from DefaultOperatorAliases
// plus extra, which wins on conflicts.
func NewOperatorCanonicalizer(extra map[string]string) *OperatorCanonicalizer {
	aliases := make(map[string]string, len(DefaultOperatorAliases)+len(extra))
	for raw, canonical := range DefaultOperatorAliases {
		aliases[raw] = canonical
	}
	for raw, canonical := range extra {
		aliases[strings.TrimSpace(raw)] = strings.TrimSpace(canonical)
	}
	return &OperatorCanonicalizer{aliases: aliases}
}

// Canonical returns the canonical operator name for raw.
func (c *OperatorCanonicalizer) Canonical(raw string) string {
	if c == nil {
		return raw
	}
	if canonical, ok := c.aliases[strings.TrimSpace(raw)]; ok {
		return canonical
	}
	return raw
}

// Len returns the number of known aliases.
func (c *OperatorCanonicalizer) Len() int {
	if c == nil {
		return 0
	}
	return len(c.aliases)
}
