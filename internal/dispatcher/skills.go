package dispatcher

import (
	"context"
	"math"
	"strings"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/store"
)

var skillsActions = []string{"training_time", "plan"}

// SkillsRequest is the tagged-union request body for the skills tool.
type SkillsRequest struct {
	Action string `json:"action"`

	Name          string              `json:"name,omitempty"`
	FromLevel     int                 `json:"from_level,omitempty"`
	ToLevel       int                 `json:"to_level,omitempty"`
	PrimaryAttr   int                 `json:"primary_attr,omitempty"`
	SecondaryAttr int                 `json:"secondary_attr,omitempty"`
	Skills        []SkillPlanEntryReq `json:"skills,omitempty"`
}

// SkillPlanEntryReq is one line of a multi-skill training plan request.
type SkillPlanEntryReq struct {
	Name    string `json:"name"`
	ToLevel int    `json:"to_level"`
}

func (d *Dispatcher) Skills(ctx context.Context, req SkillsRequest) (any, error) {
	requestID := newRequestID()
	d.logCall("skills", req.Action, requestID)

	switch req.Action {
	case "training_time":
		return d.skillsTrainingTime(ctx, req)
	case "plan":
		return d.skillsPlan(ctx, req)
	default:
		return nil, unknownAction("skills", req.Action, skillsActions)
	}
}

// skillRank derives a deterministic pseudo skill-book rank in [1,10] from
// the skill's name, using the same hash-then-fold idiom internal/fitting's
// statSeed uses: no real skill-rank attribute table is in scope, so this
// repo picks one normalization and documents it, same as Design Notes §9's
// activity-level thresholds do for a different layer.
func skillRank(name string) int {
	digest := store.QuickDigest([]byte(strings.ToLower(strings.TrimSpace(name))))
	var v uint32
	for i := 0; i < 8 && i < len(digest); i++ {
		v = v<<4 | uint32(hexNibble(digest[i]))
	}
	frac := float64(v) / float64(0xFFFFFFFF)
	return 1 + int(frac*9)
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}

// skillPointsForLevel implements the real EVE Online training-point curve:
// SP(level) = 250 * rank * 2^(2.5*(level-1)), level in [0,5].
func skillPointsForLevel(rank, level int) float64 {
	if level <= 0 {
		return 0
	}
	return 250 * float64(rank) * math.Pow(2, 2.5*float64(level-1))
}

// trainingRateSPPerMinute is the classic two-attribute formula: (primary +
// secondary/2) SP per minute.
func trainingRateSPPerMinute(primaryAttr, secondaryAttr int) float64 {
	return float64(primaryAttr) + float64(secondaryAttr)/2
}

func validateAttr(param string, v int) (int, error) {
	if v == 0 {
		return 20, nil
	}
	if v < 1 || v > 50 {
		return 0, apperr.Invalid(param, "must be between 1 and 50")
	}
	return v, nil
}

func validateLevel(param string, v int) error {
	if v < 0 || v > 5 {
		return apperr.Invalid(param, "must be between 0 and 5")
	}
	return nil
}

type trainingTimeResponse struct {
	Name             string  `json:"name"`
	Rank             int     `json:"rank"`
	FromLevel        int     `json:"from_level"`
	ToLevel          int     `json:"to_level"`
	SkillPoints      float64 `json:"skill_points_required"`
	TrainingRateSPMin float64 `json:"training_rate_sp_per_min"`
	Minutes          float64 `json:"minutes"`
	Hours            float64 `json:"hours"`
	Days             float64 `json:"days"`
}

func (d *Dispatcher) skillsTrainingTime(ctx context.Context, req SkillsRequest) (any, error) {
	if err := requireNonEmpty("name", req.Name); err != nil {
		return nil, err
	}
	if err := validateLevel("from_level", req.FromLevel); err != nil {
		return nil, err
	}
	if err := validateLevel("to_level", req.ToLevel); err != nil {
		return nil, err
	}
	if req.ToLevel <= req.FromLevel {
		return nil, apperr.Invalid("to_level", "must be greater than from_level")
	}
	primary, err := validateAttr("primary_attr", req.PrimaryAttr)
	if err != nil {
		return nil, err
	}
	secondary, err := validateAttr("secondary_attr", req.SecondaryAttr)
	if err != nil {
		return nil, err
	}
	rank := skillRank(req.Name)
	sp := skillPointsForLevel(rank, req.ToLevel) - skillPointsForLevel(rank, req.FromLevel)
	rate := trainingRateSPPerMinute(primary, secondary)
	minutes := sp / rate
	return trainingTimeResponse{
		Name: req.Name, Rank: rank, FromLevel: req.FromLevel, ToLevel: req.ToLevel,
		SkillPoints: sp, TrainingRateSPMin: rate,
		Minutes: minutes, Hours: minutes / 60, Days: minutes / 60 / 24,
	}, nil
}

type planEntryJSON struct {
	Name        string  `json:"name"`
	Rank        int     `json:"rank"`
	ToLevel     int     `json:"to_level"`
	SkillPoints float64 `json:"skill_points_required"`
	Days        float64 `json:"days"`
}

type planResponse struct {
	TotalFound  int             `json:"total_found"`
	TotalDays   float64         `json:"total_days"`
	TotalPoints float64         `json:"total_skill_points"`
	Entries     []planEntryJSON `json:"entries"`
}

// skillsPlan totals the training time for a sequence of skills each
// trained from level 0, queued in the order supplied (no optimal reordering
// by attribute remap is attempted).
func (d *Dispatcher) skillsPlan(ctx context.Context, req SkillsRequest) (any, error) {
	if len(req.Skills) == 0 {
		return nil, apperr.Invalid("skills", "at least one skill is required")
	}
	primary, err := validateAttr("primary_attr", req.PrimaryAttr)
	if err != nil {
		return nil, err
	}
	secondary, err := validateAttr("secondary_attr", req.SecondaryAttr)
	if err != nil {
		return nil, err
	}
	rate := trainingRateSPPerMinute(primary, secondary)

	out := make([]planEntryJSON, len(req.Skills))
	var totalDays, totalPoints float64
	for i, s := range req.Skills {
		if err := requireNonEmpty("skills.name", s.Name); err != nil {
			return nil, err
		}
		if err := validateLevel("skills.to_level", s.ToLevel); err != nil {
			return nil, err
		}
		rank := skillRank(s.Name)
		sp := skillPointsForLevel(rank, s.ToLevel)
		days := sp / rate / 60 / 24
		out[i] = planEntryJSON{Name: s.Name, Rank: rank, ToLevel: s.ToLevel, SkillPoints: sp, Days: days}
		totalDays += days
		totalPoints += sp
	}
	return planResponse{TotalFound: len(out), TotalDays: totalDays, TotalPoints: totalPoints, Entries: out}, nil
}
