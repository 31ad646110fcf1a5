package dispatcher

import (
	"fmt"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/universe"
)

// Documented parameter ranges from spec.md §4.7.
const (
	limitMin, limitMax             = 1, 100
	maxJumpsMin, maxJumpsMax       = 1, 50
	targetJumpsMin, targetJumpsMax = 10, 100
	minBordersMin, minBordersMax   = 2, 10
	maxBordersCeiling              = 15

	defaultLimit       = 20
	defaultMaxJumps    = 10
	defaultTargetJumps = 20
	defaultMinBorders  = 4
	defaultMaxBorders  = 8
)

// resolveLimit applies the documented default when v is unset (zero) and
// validates the documented range otherwise.
func resolveLimit(v int) (int, error) {
	if v == 0 {
		return defaultLimit, nil
	}
	if v < limitMin || v > limitMax {
		return 0, apperr.Invalid("limit", fmt.Sprintf("must be between %d and %d", limitMin, limitMax))
	}
	return v, nil
}

func resolveMaxJumps(v int) (int, error) {
	if v == 0 {
		return defaultMaxJumps, nil
	}
	if v < maxJumpsMin || v > maxJumpsMax {
		return 0, apperr.Invalid("max_jumps", fmt.Sprintf("must be between %d and %d", maxJumpsMin, maxJumpsMax))
	}
	return v, nil
}

func resolveTargetJumps(v int) (int, error) {
	if v == 0 {
		return defaultTargetJumps, nil
	}
	if v < targetJumpsMin || v > targetJumpsMax {
		return 0, apperr.Invalid("target_jumps", fmt.Sprintf("must be between %d and %d", targetJumpsMin, targetJumpsMax))
	}
	return v, nil
}

func resolveMinBorders(v int) (int, error) {
	if v == 0 {
		return defaultMinBorders, nil
	}
	if v < minBordersMin || v > minBordersMax {
		return 0, apperr.Invalid("min_borders", fmt.Sprintf("must be between %d and %d", minBordersMin, minBordersMax))
	}
	return v, nil
}

func resolveMaxBorders(v, minBorders int) (int, error) {
	if v == 0 {
		if defaultMaxBorders < minBorders {
			return minBorders, nil
		}
		return defaultMaxBorders, nil
	}
	if v < minBorders || v > maxBordersCeiling {
		return 0, apperr.Invalid("max_borders", fmt.Sprintf("must be between min_borders (%d) and %d", minBorders, maxBordersCeiling))
	}
	return v, nil
}

func resolveMode(v string) (universe.Mode, error) {
	switch universe.Mode(v) {
	case "":
		return universe.ModeShortest, nil
	case universe.ModeShortest, universe.ModeSafe, universe.ModeUnsafe:
		return universe.Mode(v), nil
	default:
		return "", apperr.Invalid("mode", "must be one of shortest, safe, unsafe")
	}
}

func requireNonEmpty(param, v string) error {
	if v == "" {
		return apperr.Invalid(param, "must not be empty")
	}
	return nil
}

func requireNonEmptyList(param string, v []string) error {
	if len(v) == 0 {
		return apperr.Invalid(param, "must contain at least one entry")
	}
	return nil
}

// unknownAction builds the InvalidParameter error spec.md §4.7 requires for
// an unrecognized action name, naming the field and listing valid choices.
func unknownAction(tool, action string, valid []string) error {
	return apperr.New(apperr.InvalidParameter, fmt.Sprintf("unknown %s action %q", tool, action), map[string]any{
		"parameter":      "action",
		"valid_actions":  valid,
	})
}
