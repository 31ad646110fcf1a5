package fitting

import (
	"context"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/store"
)

// Resolver is the narrow dependency the façade needs from the name
// resolver: case-insensitive item-name resolution Kept
// as its own interface (rather than importing internal/resolver directly)
// so the façade's contract stays the one thing spec.md says must be
// preserved, independent of which resolver implementation backs it.
type Resolver interface {
	ResolveType(ctx context.Context, name string) (*store.ItemType, error)
}

// Facade is the constructed wrap describes: it owns the
// text parser and delegates derived-statistic math to the embedded
// calculator in this package.
type Facade struct {
	resolver Resolver
}

// New builds a Facade backed by resolver for case-insensitive item lookups.
func New(resolver Resolver) *Facade {
	return &Facade{resolver: resolver}
}

// CalculateStats parses fitText, resolves the ship type and every module
// name, and returns the derived stats. An unresolved ship type fails the
// whole parse; an unresolved module or charge name is
// skipped with a warning rather than failing the fit.
func (f *Facade) CalculateStats(ctx context.Context, fitText string) (*Stats, error) {
	parsed, err := ParseFitText(fitText)
	if err != nil {
		return nil, err
	}

	shipType, err := f.resolver.ResolveType(ctx, parsed.ShipType)
	if err != nil {
		return nil, err
	}

	base := shipBaseStatsFor(shipType.Name)
	var contributions []moduleContribution
	var warnings []string

	for _, mod := range parsed.Modules {
		resolved, err := f.resolver.ResolveType(ctx, mod.Name)
		if err != nil {
			if ae, ok := apperr.As(err); ok && ae.Kind == apperr.TypeNotFound {
				warnings = append(warnings, "skipped unresolved module: "+mod.Name)
				continue
			}
			return nil, err
		}
		if mod.Charge != "" {
			if _, err := f.resolver.ResolveType(ctx, mod.Charge); err != nil {
				if ae, ok := apperr.As(err); ok && ae.Kind == apperr.TypeNotFound {
					warnings = append(warnings, "skipped unresolved charge: "+mod.Charge)
				} else {
					return nil, err
				}
			}
		}
		contributions = append(contributions, contributionFor(resolved.Name, mod.Offline, mod.Quantity))
	}

	return computeStats(shipType.Name, parsed.FitName, base, contributions, warnings), nil
}
