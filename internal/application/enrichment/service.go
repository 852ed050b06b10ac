package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/internal/infrastructure/research"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Collaborator contracts
// ─────────────────────────────────────────────────────────────────────────────

// Cache is the read-through cache for pack results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Switches exposes the ops kill-switch table.  The global switch blocks a
// whole run before any external call; per-pack switches (named after the
// pack) degrade just that pack.
type Switches interface {
	Enabled(ctx context.Context, name string) (bool, error)
}

// SwitchEnrichment is the global kill-switch name for this pipeline.
const SwitchEnrichment = "enrichment"

// CostRecord is one provider call's cost-tracking row.
type CostRecord struct {
	DealID     common.ID `json:"deal_id"`
	PackName   string    `json:"pack_name"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model,omitempty"`
	TokensUsed int       `json:"tokens_used"`
}

// CostTracker records provider usage.  Writes are best-effort.
type CostTracker interface {
	Record(ctx context.Context, rec CostRecord) error
}

// Publisher emits pipeline events to the message bus.  Best-effort.
type Publisher interface {
	PublishEnrichmentCompleted(ctx context.Context, dealID common.ID, degradedPacks []string) error
}

// Rescorer triggers downstream re-scoring after enrichment.  Invoked
// fire-and-forget; failures are logged, never surfaced.
type Rescorer interface {
	Rescore(ctx context.Context, dealID common.ID) error
}

// Providers bundles the research clients by role.
type Providers struct {
	// LLM answers general research prompts (OpenAI).
	LLM research.Provider

	// Grounded answers market and financial prompts with citations
	// (Perplexity).
	Grounded research.Provider

	// Search supplements citations with web search results (Google).
	Search research.Provider
}

// ─────────────────────────────────────────────────────────────────────────────
// Request / outcome shapes
// ─────────────────────────────────────────────────────────────────────────────

// RunRequest asks for an enrichment run over a deal.
type RunRequest struct {
	DealID       common.ID `json:"deal_id"`
	FundID       common.ID `json:"fund_id"`
	Packs        []string  `json:"enrichment_packs,omitempty"`
	ForceRefresh bool      `json:"force_refresh,omitempty"`
}

// Outcome is one pack's result within a run: either healthy extracted data
// or a degraded placeholder, never an error.
type Outcome struct {
	PackName   string   `json:"pack_name"`
	Category   string   `json:"category"`
	Payload    Payload  `json:"data"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	Degraded   bool     `json:"degraded"`
	FromCache  bool     `json:"from_cache,omitempty"`
}

// RunResult is the full response for a run.  Success is true whenever the
// run itself executed, even if every pack degraded.
type RunResult struct {
	DealID   common.ID `json:"deal_id"`
	Outcomes []Outcome `json:"results"`
	Degraded int       `json:"degraded_count"`
}

// Degraded-path confidence constants.
const (
	confidenceErrorFallback = 20.0
	confidenceFallback      = 25.0

	confidenceBase      = 60.0
	confidencePerMetric = 5.0
	confidenceCeiling   = 85.0
)

// sourceFallback marks a pack that produced no usable provider output;
// sourceErrorFallback marks a pack whose call failed outright.
const (
	sourceFallback      = "fallback"
	sourceErrorFallback = "error-fallback"
)

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Config tunes the orchestrator.
type Config struct {
	Concurrency int
	PackTimeout time.Duration
	CacheTTL    time.Duration
}

// Service orchestrates enrichment runs.
type Service struct {
	deals      deal.Repository
	funds      fund.Repository
	records    deal.EnrichmentRepository
	providers  Providers
	pool       *Pool
	cache      Cache
	switches   Switches
	costs      CostTracker
	publisher  Publisher
	rescorer   Rescorer
	cfg        Config
	logger     logging.Logger
}

// NewService wires the enrichment orchestrator.  cache, switches, costs,
// publisher and rescorer may be nil; the corresponding behaviour is skipped.
func NewService(
	deals deal.Repository,
	funds fund.Repository,
	records deal.EnrichmentRepository,
	providers Providers,
	cache Cache,
	switches Switches,
	costs CostTracker,
	publisher Publisher,
	rescorer Rescorer,
	cfg Config,
	logger logging.Logger,
) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 3
	}
	if cfg.PackTimeout <= 0 {
		cfg.PackTimeout = 25 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		deals:     deals,
		funds:     funds,
		records:   records,
		providers: providers,
		pool:      NewPool(cfg.Concurrency),
		cache:     cache,
		switches:  switches,
		costs:     costs,
		publisher: publisher,
		rescorer:  rescorer,
		cfg:       cfg,
		logger:    logger.Named("enrichment"),
	}
}

// Run executes an enrichment run.  Failure semantics:
//
//   - deal or fund not found: returned as a hard error (the only fatal path);
//   - a disabled ops switch: returned as a feature-disabled error;
//   - everything below pack level degrades: each failing pack still yields
//     an Outcome with low confidence and a fallback sources marker.
//
// After all packs finish, re-scoring is triggered fire-and-forget.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := s.checkSwitch(ctx); err != nil {
		return nil, err
	}

	d, err := s.deals.GetByID(ctx, req.DealID)
	if err != nil {
		return nil, err
	}
	f, err := s.funds.GetByID(ctx, req.FundID)
	if err != nil {
		return nil, err
	}

	packs := PacksFor(f.Type, req.Packs)
	if len(packs) == 0 {
		return nil, errors.New(errors.ErrCodePackUnknown, "no applicable enrichment packs")
	}

	tasks := make([]func(ctx context.Context) Outcome, len(packs))
	for i, p := range packs {
		p := p
		tasks[i] = func(ctx context.Context) Outcome {
			return s.runPack(ctx, d, p, req.ForceRefresh)
		}
	}

	outcomes := Run(ctx, s.pool, tasks)

	// Tasks the pool never started (run cancelled while waiting for a slot)
	// leave zero-value entries; replace them with degraded outcomes.
	for i := range outcomes {
		if outcomes[i].PackName == "" {
			outcomes[i] = degradedOutcome(packs[i], sourceErrorFallback,
				confidenceErrorFallback, "run cancelled before pack started")
		}
	}

	result := &RunResult{DealID: d.ID, Outcomes: outcomes}
	var degradedPacks []string
	for _, o := range outcomes {
		if o.Degraded {
			result.Degraded++
			degradedPacks = append(degradedPacks, o.PackName)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEnrichmentCompleted(ctx, d.ID, degradedPacks); err != nil {
			s.logger.Warn("enrichment event publish failed",
				logging.String("deal_id", string(d.ID)), logging.Err(err))
		}
	}

	s.triggerRescore(d.ID)

	s.logger.Info("enrichment run completed",
		logging.String("deal_id", string(d.ID)),
		logging.Int("packs", len(outcomes)),
		logging.Int("degraded", result.Degraded))
	return result, nil
}

func (s *Service) checkSwitch(ctx context.Context) error {
	if s.switches == nil {
		return nil
	}
	enabled, err := s.switches.Enabled(ctx, SwitchEnrichment)
	if err != nil {
		// A broken switch table must not block enrichment.
		s.logger.Warn("ops switch lookup failed", logging.Err(err))
		return nil
	}
	if !enabled {
		return errors.New(errors.ErrCodeFeatureDisabled, "enrichment is disabled by ops switch")
	}
	return nil
}

// packEnabled consults the pack's own kill-switch.  Lookup failures and a
// missing switch table both count as enabled.
func (s *Service) packEnabled(ctx context.Context, packName string) bool {
	if s.switches == nil {
		return true
	}
	enabled, err := s.switches.Enabled(ctx, packName)
	if err != nil {
		return true
	}
	return enabled
}

// runPack executes one pack end to end.  It never returns an error: every
// failure path produces a degraded Outcome instead.
func (s *Service) runPack(ctx context.Context, d *deal.Deal, p Pack, forceRefresh bool) Outcome {
	if !s.packEnabled(ctx, p.Name) {
		o := degradedOutcome(p, sourceFallback, confidenceFallback, "disabled by operations")
		s.persistOutcome(ctx, d.ID, o)
		return o
	}

	if !forceRefresh {
		if o, ok := s.cachedOutcome(ctx, d.ID, p); ok {
			return o
		}
	}

	packCtx, cancel := context.WithTimeout(ctx, s.cfg.PackTimeout)
	defer cancel()

	resp, err := s.callProvider(packCtx, d, p)
	var outcome Outcome
	switch {
	case err != nil:
		s.logger.Warn("pack call failed, degrading",
			logging.String("deal_id", string(d.ID)),
			logging.String("pack", p.Name),
			logging.Err(err))
		outcome = degradedOutcome(p, sourceErrorFallback, confidenceErrorFallback,
			"external research failed: "+errors.DefaultMessageForCode(errors.GetCode(err)))
	case resp.Text == "":
		outcome = degradedOutcome(p, sourceFallback, confidenceFallback,
			"external research returned no content")
	default:
		outcome = healthyOutcome(p, resp)
	}

	s.persistOutcome(ctx, d.ID, outcome)
	if !outcome.Degraded {
		s.cacheOutcome(ctx, d.ID, outcome)
	}
	return outcome
}

func (s *Service) callProvider(ctx context.Context, d *deal.Deal, p Pack) (*research.Response, error) {
	provider := s.providers.LLM
	if p.Kind == KindMarket || p.Kind == KindCompetitive || p.Kind == KindFinancial {
		if s.providers.Grounded != nil {
			provider = s.providers.Grounded
		}
	}
	if provider == nil {
		return nil, errors.New(errors.ErrCodeProviderUnavailable, "no research provider configured")
	}

	resp, err := provider.Research(ctx, research.Request{
		Prompt:       p.Prompt(d),
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return nil, err
	}
	s.trackCost(ctx, d.ID, p.Name, resp)

	// Supplement citations with a web search; purely additive, errors
	// ignored.
	if s.providers.Search != nil {
		if sr, serr := s.providers.Search.Research(ctx, research.Request{Prompt: p.Prompt(d)}); serr == nil {
			resp.Citations = append(resp.Citations, sr.Citations...)
		}
	}
	return resp, nil
}

func healthyOutcome(p Pack, resp *research.Response) Outcome {
	payload := extractPayload(p.Kind, resp.Text)

	sources := resp.Citations
	if len(sources) == 0 {
		sources = []string{resp.Provider}
	}

	return Outcome{
		PackName:   p.Name,
		Category:   p.Category,
		Payload:    payload,
		Sources:    sources,
		Confidence: confidenceFor(payload),
	}
}

// extractPayload applies the pack kind's extractor to the provider text.
func extractPayload(kind Kind, text string) Payload {
	payload := Payload{Kind: kind, RawText: text}
	switch kind {
	case KindMarket:
		m := ExtractMarketMetrics(text)
		payload.Market = &m
	case KindFinancial:
		f := ExtractFinancialMetrics(text)
		payload.Financial = &f
	case KindCompetitive:
		c := ExtractCompetitiveData(text)
		payload.Competitive = &c
	}
	return payload
}

// confidenceFor grades a healthy payload by how many metrics the extractor
// actually found: base 60, +5 per found metric, capped at 85.
func confidenceFor(p Payload) float64 {
	c := confidenceBase
	for _, m := range p.foundMetrics() {
		if m.Found() {
			c += confidencePerMetric
		}
	}
	if c > confidenceCeiling {
		c = confidenceCeiling
	}
	return c
}

func (p Payload) foundMetrics() []Metric {
	switch {
	case p.Market != nil:
		return []Metric{p.Market.TAM, p.Market.SAM, p.Market.GrowthRate}
	case p.Financial != nil:
		return []Metric{p.Financial.Revenue, p.Financial.FundingRaised, p.Financial.Valuation, p.Financial.BurnRate}
	case p.Competitive != nil:
		ms := []Metric{p.Competitive.MarketPosition}
		if len(p.Competitive.Competitors) > 0 {
			ms = append(ms, Metric{Value: "competitors"})
		}
		return ms
	}
	return nil
}

func degradedOutcome(p Pack, source string, confidence float64, note string) Outcome {
	return Outcome{
		PackName: p.Name,
		Category: p.Category,
		Payload: Payload{
			Kind:    p.Kind,
			RawText: "",
			Note:    note,
		},
		Sources:    []string{source},
		Confidence: confidence,
		Degraded:   true,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Persistence, cache, cost, rescore plumbing
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) persistOutcome(ctx context.Context, dealID common.ID, o Outcome) {
	if s.records == nil {
		return
	}
	data, err := json.Marshal(o.Payload)
	if err != nil {
		s.logger.Warn("outcome marshal failed", logging.String("pack", o.PackName), logging.Err(err))
		return
	}
	rec := &deal.EnrichmentRecord{
		ID:         common.NewID(),
		DealID:     dealID,
		PackName:   o.PackName,
		Data:       data,
		Sources:    o.Sources,
		Confidence: o.Confidence,
		Degraded:   o.Degraded,
		CreatedAt:  common.Now(),
		UpdatedAt:  common.Now(),
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		s.logger.Warn("enrichment record upsert failed",
			logging.String("deal_id", string(dealID)),
			logging.String("pack", o.PackName),
			logging.Err(err))
	}
}

func cacheKey(dealID common.ID, packName string) string {
	return "enrichment:" + string(dealID) + ":" + packName
}

func (s *Service) cachedOutcome(ctx context.Context, dealID common.ID, p Pack) (Outcome, bool) {
	if s.cache == nil {
		return Outcome{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(dealID, p.Name))
	if err != nil || raw == nil {
		return Outcome{}, false
	}
	var o Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return Outcome{}, false
	}
	o.FromCache = true
	return o, true
}

func (s *Service) cacheOutcome(ctx context.Context, dealID common.ID, o Outcome) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(dealID, o.PackName), raw, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("outcome cache set failed", logging.String("pack", o.PackName), logging.Err(err))
	}
}

func (s *Service) trackCost(ctx context.Context, dealID common.ID, packName string, resp *research.Response) {
	if s.costs == nil {
		return
	}
	rec := CostRecord{
		DealID:     dealID,
		PackName:   packName,
		Provider:   resp.Provider,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}
	if err := s.costs.Record(ctx, rec); err != nil {
		s.logger.Debug("cost tracking failed", logging.String("pack", packName), logging.Err(err))
	}
}

// triggerRescore kicks downstream re-scoring without waiting for it.  The
// run's own context may be cancelled as soon as the response is written, so
// the trigger gets a detached context with its own deadline.
func (s *Service) triggerRescore(dealID common.ID) {
	if s.rescorer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.rescorer.Rescore(ctx, dealID); err != nil {
			s.logger.Warn("rescore trigger failed",
				logging.String("deal_id", string(dealID)), logging.Err(err))
		}
	}()
}
