// Package fitting is the narrow façade spec.md §4.8 describes: it owns the
// canonical plain-text fit parser and delegates the actual stat math to an
// embedded domain calculator (calculator.go stands in for the third-party
// fitting engine spec.md names as replaceable — Design Notes §9: "this can
// be replaced by any library that answers the same question"). Grounded on
// the teacher's deterministic, hash-seeded content generation
// (pkg/game/mechanics.go:GetEfficiency hashes an input string and maps the
// result into a bounded numeric range) rather than a real Static Data
// Export, since no SDE attribute table is in scope here.
package fitting

import (
	"regexp"
	"strings"

	"github.com/vitadek/starcharts/internal/apperr"
)

var (
	headerRe     = regexp.MustCompile(`^\[\s*([^,]+?)\s*,\s*(.+?)\s*\]$`)
	offlineRe    = regexp.MustCompile(`(?i)\s*/\s*offline\s*$`)
	quantitySufRe = regexp.MustCompile(`^(.+?)\s+[xX](\d+)$`)
)

// Module is one parsed fitting-slot line, before name resolution.
type Module struct {
	Name     string
	Charge   string
	Offline  bool
	Quantity int
}

// ParsedFit is the raw parse result: a ship type, a fit name, and the flat
// list of module lines across every slot section (section boundaries carry
// no stat-relevant information once the line-by-line shape is known, so
// they are not retained as a nested structure).
type ParsedFit struct {
	ShipType string
	FitName  string
	Modules  []Module
}

// ParseFitText recognizes the header line `[ShipType, FitName]`, skips
// blank-line section separators and bracketed empty-slot placeholders,
// and parses each remaining line as a module optionally carrying a charge
// (first comma-separated field after the module name) or an `/offline`
// suffix, and quantity items `ItemName xN` (drones, cargo-hold stacks),
// A malformed or missing header is a parse failure;
// whether the named ship type actually resolves is checked later by the
// façade, which is where "unknown ship type fails the whole parse" is
// enforced (this function only validates syntax).
func ParseFitText(text string) (*ParsedFit, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var headerLine string
	var bodyStart int
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		headerLine = line
		bodyStart = i + 1
		break
	}
	if headerLine == "" {
		return nil, apperr.New(apperr.InvalidParameter, "empty fit text", map[string]any{"parameter": "fit_text", "reason": "no header line"})
	}
	m := headerRe.FindStringSubmatch(headerLine)
	if m == nil {
		return nil, apperr.New(apperr.InvalidParameter, "fit text must start with a [ShipType, FitName] header", map[string]any{
			"parameter": "fit_text", "reason": "malformed header line", "line": headerLine,
		})
	}

	fit := &ParsedFit{ShipType: m[1], FitName: m[2]}
	for _, raw := range lines[bodyStart:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue // blank-line section separator between slot groups
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue // bracketed empty-slot placeholder, e.g. "[Empty High slot]"
		}
		fit.Modules = append(fit.Modules, parseModuleLine(line))
	}
	return fit, nil
}

func parseModuleLine(line string) Module {
	mod := Module{Quantity: 1}

	if offlineRe.MatchString(line) {
		mod.Offline = true
		line = offlineRe.ReplaceAllString(line, "")
	}

	if idx := strings.IndexByte(line, ','); idx >= 0 {
		mod.Name = strings.TrimSpace(line[:idx])
		mod.Charge = strings.TrimSpace(line[idx+1:])
		return mod
	}

	if m := quantitySufRe.FindStringSubmatch(line); m != nil {
		mod.Name = strings.TrimSpace(m[1])
		if n := parseInt(m[2]); n > 0 {
			mod.Quantity = n
		}
		return mod
	}

	mod.Name = line
	return mod
}

func parseInt(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
