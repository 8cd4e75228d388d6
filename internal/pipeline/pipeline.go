// Package pipeline turns user-chosen prediction parameters into a
// validated backend request and derives the summary fields shown on the
// dashboard and simulator views.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayuga01/Quantara/internal/api"
	"github.com/Ayuga01/Quantara/internal/history"
	"github.com/Ayuga01/Quantara/internal/identity"
	"github.com/Ayuga01/Quantara/internal/market"
)

// Best/worst-case bands are fixed at ±15% of the final predicted price.
const bandPct = 15.0

// ErrInFlight rejects a predict action while another one is outstanding.
// Duplicate submissions are prevented, not queued or merged.
var ErrInFlight = errors.New("a prediction is already in flight")

// ValidationError is a field-scoped rejection of user input, raised before
// any network call. The form stays editable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Client is the slice of the API surface the pipeline needs.
type Client interface {
	Predict(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error)
	SaveHistory(ctx context.Context, rec history.Record) (history.Record, error)
}

// Params are the user-chosen inputs of one predict action.
type Params struct {
	Coin        market.Coin
	Horizon     market.Horizon
	StepsAhead  int
	UseLiveData bool
}

// Summary aggregates the derived display fields of a prediction.
type Summary struct {
	PredictedEndPrice float64
	ExpectedChangePct float64
	BestCasePrice     float64
	WorstCasePrice    float64
}

// Result is a completed prediction. GeneratedAt is stamped once at receipt
// and must not be recomputed on re-render.
type Result struct {
	Request     api.PredictRequest
	Response    *api.PredictResponse
	GeneratedAt time.Time
	Summary     Summary

	// SavedRecord is set when the history side effect persisted the
	// prediction. Always nil for guests.
	SavedRecord *history.Record
}

// Pipeline validates, submits, and post-processes predict actions.
type Pipeline struct {
	client   Client
	ids      *identity.Manager
	logger   zerolog.Logger
	maxSteps int
	now      func() time.Time

	inFlight chan struct{}
}

// New constructs a pipeline. maxSteps caps the steps_ahead a user may
// request; zero means the default cap of 100.
func New(client Client, ids *identity.Manager, maxSteps int, logger zerolog.Logger) *Pipeline {
	if maxSteps <= 0 {
		maxSteps = 100
	}
	p := &Pipeline{
		client:   client,
		ids:      ids,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		maxSteps: maxSteps,
		now:      time.Now,
		inFlight: make(chan struct{}, 1),
	}
	p.inFlight <- struct{}{}
	return p
}

func (p *Pipeline) validate(params Params) error {
	if _, err := market.ParseCoin(params.Coin.String()); err != nil {
		return &ValidationError{Field: "coin", Message: err.Error()}
	}
	if _, err := market.ParseHorizon(params.Horizon.String()); err != nil {
		return &ValidationError{Field: "horizon", Message: err.Error()}
	}
	if params.StepsAhead < 1 {
		return &ValidationError{Field: "steps_ahead", Message: "must be at least 1"}
	}
	if params.StepsAhead > p.maxSteps {
		return &ValidationError{Field: "steps_ahead", Message: fmt.Sprintf("must be at most %d", p.maxSteps)}
	}
	return nil
}

// Predict runs one user-initiated predict action end to end: validation,
// a single network submission, summary derivation, and the history side
// effect for authenticated identities.
func (p *Pipeline) Predict(ctx context.Context, params Params) (*Result, error) {
	if err := p.validate(params); err != nil {
		return nil, err
	}

	select {
	case <-p.inFlight:
	default:
		return nil, ErrInFlight
	}
	defer func() { p.inFlight <- struct{}{} }()

	start := p.now().UTC()
	req := api.PredictRequest{
		Coin:           params.Coin,
		Horizon:        params.Horizon,
		StartTimestamp: start,
		StepsAhead:     params.StepsAhead,
		UseLiveData:    params.UseLiveData,
	}

	resp, err := p.client.Predict(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.FuturePredictions) == 0 {
		return nil, errors.New("prediction response contained no future points")
	}
	if len(resp.FuturePredictions) != req.StepsAhead {
		return nil, fmt.Errorf("requested %d steps but received %d", req.StepsAhead, len(resp.FuturePredictions))
	}

	generatedAt := p.now().UTC()
	result := &Result{
		Request:     req,
		Response:    resp,
		GeneratedAt: generatedAt,
		Summary:     deriveSummary(resp),
	}

	p.saveHistory(ctx, result)
	return result, nil
}

func deriveSummary(resp *api.PredictResponse) Summary {
	end := resp.FuturePredictions[len(resp.FuturePredictions)-1].PredictedPrice

	changePct := 0.0
	if resp.LastObservedClose != 0 {
		changePct = (end - resp.LastObservedClose) / resp.LastObservedClose * 100
	}

	return Summary{
		PredictedEndPrice: end,
		ExpectedChangePct: changePct,
		BestCasePrice:     end * (1 + bandPct/100),
		WorstCasePrice:    end * (1 - bandPct/100),
	}
}

// saveHistory persists the prediction for authenticated users. Guests
// never persist history. A save failure is logged and swallowed: the
// prediction itself already succeeded and is still shown.
func (p *Pipeline) saveHistory(ctx context.Context, result *Result) {
	if p.ids == nil || p.ids.Current().Kind() != identity.Authenticated {
		return
	}

	points := make([]history.Point, len(result.Response.FuturePredictions))
	for i, fp := range result.Response.FuturePredictions {
		points[i] = history.Point{Timestamp: fp.Timestamp, Price: fp.PredictedPrice}
	}

	rec := history.Build(
		result.Request.Coin,
		result.Request.Horizon,
		result.Request.UseLiveData,
		result.Response.LastObservedClose,
		points,
		result.GeneratedAt,
	)

	saved, err := p.client.SaveHistory(ctx, rec)
	if err != nil {
		p.logger.Error().Err(err).
			Str("coin", result.Request.Coin.String()).
			Msg("failed to save history record")
		return
	}
	result.SavedRecord = &saved
}
