package marketcache

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/store"
)

// ParsedLine is one recognized line of free-text valuation input, before
// name resolution has run.
type ParsedLine struct {
	Name     string
	Quantity int64
}

var (
	// "Tritanium    Quantity: 1,234"
	inventoryLineRe = regexp.MustCompile(`^(.+?)\s{2,}Quantity:\s*([\d,]+)\s*$`)
	// "Tritanium x1234" or "Tritanium x1,234"
	multiBuyLineRe = regexp.MustCompile(`^(.+?)\s+[xX]\s*([\d,]+)\s*$`)
)

// ParseValuationText recognizes the three free-text shapes spec.md §4.5
// names: tab-separated "name\tquantity", inventory-style "name    Quantity:
// N" with thousands separators, and multi-buy "name xN". Blank lines are
// skipped; a line matching none of the three shapes is treated as a bare
// item name with quantity 1.
func ParseValuationText(text string) []ParsedLine {
	var out []ParsedLine
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if name, qty, ok := parseTabSeparated(line); ok {
			out = append(out, ParsedLine{Name: name, Quantity: qty})
			continue
		}
		if m := inventoryLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, ParsedLine{Name: strings.TrimSpace(m[1]), Quantity: parseThousands(m[2])})
			continue
		}
		if m := multiBuyLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, ParsedLine{Name: strings.TrimSpace(m[1]), Quantity: parseThousands(m[2])})
			continue
		}
		out = append(out, ParsedLine{Name: line, Quantity: 1})
	}
	return out
}

func parseTabSeparated(line string) (name string, qty int64, ok bool) {
	if !strings.Contains(line, "\t") {
		return "", 0, false
	}
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return "", 0, false
	}
	n := parseThousands(strings.TrimSpace(parts[len(parts)-1]))
	if n == 0 {
		return "", 0, false
	}
	name = strings.TrimSpace(strings.Join(parts[:len(parts)-1], " "))
	return name, n, true
}

func parseThousands(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Resolver is the narrow dependency the parser needs from the name
// resolver: resolve a free-text item name to its canonical id.
type Resolver interface {
	ResolveType(ctx context.Context, name string) (*store.ItemType, error)
}

// ResolveValuationItems turns parsed lines into priceable ValuationItems,
// skipping any line whose name does not resolve and carrying the skip as a
// warning rather than failing the whole valuation
func ResolveValuationItems(ctx context.Context, resolver Resolver, lines []ParsedLine) ([]ValuationItem, []string) {
	items := make([]ValuationItem, 0, len(lines))
	var warnings []string
	for _, l := range lines {
		t, err := resolver.ResolveType(ctx, l.Name)
		if err != nil {
			if ae, ok := apperr.As(err); ok && ae.Kind == apperr.TypeNotFound {
				warnings = append(warnings, "skipped unresolved item: "+l.Name)
				continue
			}
			warnings = append(warnings, "skipped "+l.Name+": "+err.Error())
			continue
		}
		items = append(items, ValuationItem{ItemID: t.ItemID, Name: t.Name, Quantity: l.Quantity})
	}
	return items, warnings
}
