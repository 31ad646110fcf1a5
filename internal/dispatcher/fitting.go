package dispatcher

import (
	"context"

	"github.com/vitadek/starcharts/internal/apperr"
)

var fittingActions = []string{"calculate_stats"}

// FittingRequest is the tagged-union request body for the fitting tool.
type FittingRequest struct {
	Action string `json:"action"`

	FitText string `json:"fit_text,omitempty"`
}

func (d *Dispatcher) Fitting(ctx context.Context, req FittingRequest) (any, error) {
	requestID := newRequestID()
	d.logCall("fitting", req.Action, requestID)

	switch req.Action {
	case "calculate_stats":
		return d.fittingCalculateStats(ctx, req)
	default:
		return nil, unknownAction("fitting", req.Action, fittingActions)
	}
}

func (d *Dispatcher) fittingCalculateStats(ctx context.Context, req FittingRequest) (any, error) {
	if err := requireNonEmpty("fit_text", req.FitText); err != nil {
		return nil, err
	}
	if d.fitting == nil {
		return nil, apperr.New(apperr.Internal, "fitting façade not configured", nil)
	}
	return d.fitting.CalculateStats(ctx, req.FitText)
}
