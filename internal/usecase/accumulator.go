package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scrapedgit/backend/internal/domain"
)

const (
	defaultDelegateTimeout = 10 * time.Second
	defaultHistoryWindow   = 6
)

// nluInstructions is the system prompt sent to the language-model delegate
const nluInstructions = `You are a shopping assistant for Indonesian marketplaces. Merge the user's latest message into the prior query and decide what to ask next.

Rules:
- Keep every field from the prior query unless the user explicitly changes it.
- Only replace "keyword" when the user corrects it ("not X, but Y", "actually I want Y"); otherwise put new product details into "specConstraints".
- Prices are plain IDR integers. "k"/"ribu"/"rb" means thousand, "jt"/"juta"/"million" means million.
- Ask for the product first, then the budget, then specs or brand, then ask the user to confirm. Never ask the same question twice.
- responseType is one of "greeting", "clarification", "confirmation". Never start the search yourself.

Respond with ONLY a JSON object:
{"updatedQuery": {"isSearch": bool, "keyword": string|null, "category": string|null, "preferredBrand": string|null, "minPrice": number|null, "maxPrice": number|null, "minRating": number|null, "specConstraints": [string]}, "responseMessage": string, "responseType": string, "quickReplies": [string]}`

// AccumulatorConfig holds configuration for the conversation accumulator
type AccumulatorConfig struct {
	DelegateTimeout time.Duration
	HistoryWindow   int
}

// Accumulator merges each user message into the running query and decides what to ask next.
// It prefers the NLU delegate and falls back to the deterministic extractor on any failure.
type Accumulator struct {
	delegate      domain.NLUDelegate
	fallback      *FallbackExtractor
	preprocessor  *QueryPreprocessor
	timeout       time.Duration
	historyWindow int
}

// NewAccumulator creates an accumulator. A nil delegate means every turn is handled offline.
func NewAccumulator(delegate domain.NLUDelegate, fallback *FallbackExtractor, config AccumulatorConfig) *Accumulator {
	if fallback == nil {
		fallback = NewFallbackExtractor(nil)
	}

	timeout := config.DelegateTimeout
	if timeout <= 0 {
		timeout = defaultDelegateTimeout
	}

	window := config.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}

	return &Accumulator{
		delegate:      delegate,
		fallback:      fallback,
		preprocessor:  fallback.preprocessor,
		timeout:       timeout,
		historyWindow: window,
	}
}

// Accumulate processes one user turn. It never fails: delegate errors, timeouts and
// malformed envelopes degrade to the fallback extractor.
func (a *Accumulator) Accumulate(ctx context.Context, in domain.AccumulateInput) domain.TurnResult {
	message := strings.TrimSpace(in.Message)

	if IsGreeting(message) {
		return greetingTurn(in.PriorQuery, in.UserLocation)
	}

	if IsModifyIntent(message) {
		return ModifyTurn(in.PriorQuery)
	}

	prior := in.PriorQuery.Clone()
	if applyModification(message, prior) {
		return respond(prior, "", nil)
	}

	resp, err := a.interpret(ctx, in)
	if err != nil {
		if !errors.Is(err, domain.ErrNLUUnavailable) {
			zap.L().Warn("nlu delegate failed, using fallback extractor", zap.Error(err))
		}
		return a.fallback.Extract(message, in.PriorQuery, in.UserLocation)
	}

	updated := mergeCandidate(in.PriorQuery, *resp.UpdatedQuery, message, in.UserLocation, a.preprocessor)
	return respond(updated, message, resp)
}

// ConfirmSearch promotes a searchable query to a search turn. It is only called once the
// user has explicitly confirmed.
func (a *Accumulator) ConfirmSearch(prior *domain.AccumulatedQuery) (domain.TurnResult, error) {
	if !prior.IsSearchable() {
		return domain.TurnResult{}, eris.Wrap(domain.ErrKeywordMissing, "confirm search")
	}

	q := prior.Clone()
	q.IsSearch = true
	return finishTurn(q, "Searching for "+q.KeywordValue()+"...", domain.ResponseSearch, nil), nil
}

// interpret calls the delegate with a bounded timeout and validates its envelope
func (a *Accumulator) interpret(ctx context.Context, in domain.AccumulateInput) (*domain.NLUResponse, error) {
	if a.delegate == nil {
		return nil, domain.ErrNLUUnavailable
	}

	priorJSON, err := json.Marshal(in.PriorQuery.Clone())
	if err != nil {
		return nil, eris.Wrap(err, "marshal prior query")
	}

	req := domain.NLURequest{
		SystemInstructions: nluInstructions,
		History:            domain.RecentHistory(in.History, a.historyWindow),
		PriorQueryJSON:     string(priorJSON),
		CurrentMessage:     in.Message,
	}
	if in.UserLocation != nil {
		req.LocationHint = *in.UserLocation
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		resp *domain.NLUResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := a.delegate.Interpret(ctx, req)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "nlu delegate timed out")
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if err := validateEnvelope(r.resp); err != nil {
			return nil, err
		}
		return r.resp, nil
	}
}

// validateEnvelope rejects delegate output that does not follow the contract
func validateEnvelope(resp *domain.NLUResponse) error {
	switch {
	case resp == nil:
		return eris.Wrap(domain.ErrMalformedEnvelope, "empty response")
	case resp.UpdatedQuery == nil:
		return eris.Wrap(domain.ErrMalformedEnvelope, "missing updatedQuery")
	case !resp.ResponseType.Valid():
		return eris.Wrapf(domain.ErrMalformedEnvelope, "unknown responseType %q", resp.ResponseType)
	}
	return nil
}
