package codes

import "strings"

// TypeRule classifies a billing code type. Fee-bearing types (procedures,
// services) must carry a nonzero fee; diagnosis and other informational types
// must not. RegistryID is the numeric id used by the related-code
// cross-reference table.
type TypeRule struct {
	Key             string `db:"key" json:"key"`
	RegistryID      int    `db:"registry_id" json:"registry_id"`
	FeeBearing      bool   `db:"fee_bearing" json:"fee_bearing"`
	RequiresJustify bool   `db:"requires_justify" json:"requires_justify"`
}

// TypeRules maps a code-type key to its rule.
type TypeRules map[string]TypeRule

// Lookup returns the rule for key. Unknown types are treated as
// non-fee-bearing with no justification requirement.
func (r TypeRules) Lookup(key string) TypeRule {
	if rule, ok := r[key]; ok {
		return rule
	}
	return TypeRule{Key: key}
}

// DefaultTypeRules is the compiled-in classification used when the
// code_type reference table is empty.
func DefaultTypeRules() TypeRules {
	return TypeRules{
		"CPT4":  {Key: "CPT4", RegistryID: 1, FeeBearing: true, RequiresJustify: true},
		"HCPCS": {Key: "HCPCS", RegistryID: 2, FeeBearing: true, RequiresJustify: true},
		"ICD9":  {Key: "ICD9", RegistryID: 3},
		"ICD10": {Key: "ICD10", RegistryID: 4},
		"COPAY": {Key: "COPAY", RegistryID: 5},
		"OTHER": {Key: "OTHER", RegistryID: 6},
	}
}

const (
	companionRegistry   = "IPPF"
	companionCodePrefix = "25222"
)

// RequiresCompanionForm reports whether a semicolon-separated related-code
// list (entries of the form "TYPE:CODE") contains a registry code that
// requires the companion clinical form.
func RequiresCompanionForm(relatedCodes string) bool {
	for _, entry := range strings.Split(relatedCodes, ";") {
		if entry == "" {
			continue
		}
		typ, code, ok := strings.Cut(entry, ":")
		if !ok || typ != companionRegistry {
			continue
		}
		if strings.HasPrefix(code, companionCodePrefix) {
			return true
		}
	}
	return false
}
