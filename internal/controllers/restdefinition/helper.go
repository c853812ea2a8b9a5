package restdefinition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/krateoplatformops/oascontracts/internal/tools/contracts"
)

// expandWildcardMethods expands the "*" wildcard to every method available in
// the document. Explicit methods are upper-cased and must be available.
func expandWildcardMethods(methods []string, available []string) ([]string, error) {
	hasWildcard := false
	hasOthers := false
	for _, m := range methods {
		if m == "*" {
			hasWildcard = true
		} else {
			hasOthers = true
		}
	}

	if hasWildcard && hasOthers {
		return nil, fmt.Errorf("invalid configuration: '*' wildcard cannot be mixed with specific methods in the list")
	}

	if hasWildcard {
		expanded := make([]string, 0, len(available))
		return append(expanded, available...), nil
	}

	if methods == nil {
		return nil, nil
	}
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(m)
		if !slices.Contains(available, m) {
			return nil, fmt.Errorf("method '%s' is not used by any operation", m)
		}
		out = append(out, m)
	}
	return out, nil
}

// methodsOf lists the methods used by set, sorted.
func methodsOf(set *contracts.Set) []string {
	var out []string
	for _, c := range set.Contracts {
		if !slices.Contains(out, c.Method) {
			out = append(out, c.Method)
		}
	}
	slices.Sort(out)
	return out
}

// withMethods keeps the contracts whose method is listed. Warnings are kept.
func withMethods(set *contracts.Set, methods []string) *contracts.Set {
	out := &contracts.Set{Warnings: set.Warnings}
	for _, c := range set.Contracts {
		if slices.Contains(methods, c.Method) {
			out.Contracts = append(out.Contracts, c)
		}
	}
	return out
}
