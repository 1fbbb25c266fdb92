package codes

import "context"

// Repository provides read access to the code-type reference data and the
// related-code cross-reference table. Both are host-system tables; this
// service never writes them.
type Repository interface {
	// TypeRules loads the code-type classification table. An empty table is
	// not an error; callers fall back to DefaultTypeRules.
	TypeRules(ctx context.Context) (TypeRules, error)

	// RelatedCodes returns the semicolon-separated related-code list for a
	// single code, or "" when the code has no cross-reference entry.
	RelatedCodes(ctx context.Context, registryID int, code string, modifier string) (string, error)
}
