package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"welfare-advisor/internal/domain"
	"welfare-advisor/internal/integrations/backend"
	"welfare-advisor/internal/recommend"
	"welfare-advisor/internal/session"
)

const (
	TracerName      = "welfare-advisor/turn"
	DefaultGreeting = "안녕하세요! 무엇을 도와드릴까요?"
)

var overrideKeywords = []string{"다시 추천", "재추천", "새로 추천", "다시 보여줘"}

// ChatBackend is satisfied by *backend.Client.
type ChatBackend interface {
	SendChat(ctx context.Context, req backend.ChatRequest) (backend.ChatResponse, error)
	FetchLocations(ctx context.Context) ([]domain.Marker, error)
	FetchBenefitDetail(ctx context.Context, benefitID string) (domain.BenefitDetail, error)
}

// MapSync is the map side the controller pushes into. *mapview.Board
// satisfies it.
type MapSync interface {
	SetRecommendations(latest []domain.RecommendationItem)
	SetLocations(idx *recommend.LocationIndex)
	ClearSelection()
	Select(benefitID string)
}

type noopMap struct{}

func (noopMap) SetRecommendations([]domain.RecommendationItem) {}
func (noopMap) SetLocations(*recommend.LocationIndex)          {}
func (noopMap) ClearSelection()                                {}
func (noopMap) Select(string)                                  {}

type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseSending          Phase = "sending"
	PhaseAwaitingResponse Phase = "awaiting_response"
	PhaseApplying         Phase = "applying"
)

type Outcome int

const (
	// OutcomeIgnored means the input was blank or a turn was already in flight.
	OutcomeIgnored Outcome = iota
	OutcomeApplied
	OutcomeFailed
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeFailed:
		return "failed"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "ignored"
	}
}

// State is a snapshot of the chat side.
type State struct {
	Messages             []domain.Message
	Draft                string
	Err                  string
	Phase                Phase
	Typing               bool
	RiskLevel            domain.RiskLevel
	RecommendationIssued bool
	Latest               []domain.RecommendationItem
	Detail               *DetailView
}

// Sending reports whether a turn is in flight.
func (s State) Sending() bool {
	return s.Phase == PhaseSending || s.Phase == PhaseAwaitingResponse || s.Phase == PhaseApplying
}

type Option func(*TurnController)

// WithGreeting sets the first bot message. An empty greeting starts the log
// empty.
func WithGreeting(text string) Option {
	return func(c *TurnController) {
		c.greeting = strings.TrimSpace(text)
	}
}

// WithTurnTimeout bounds each turn's request. Zero means no bound.
func WithTurnTimeout(d time.Duration) Option {
	return func(c *TurnController) {
		if d > 0 {
			c.turnTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *TurnController) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithMeter(m metric.Meter) Option {
	return func(c *TurnController) {
		if m != nil {
			c.meter = m
		}
	}
}

// TurnController runs one chat turn at a time against the backend and owns
// the message log, the latest recommendations and the detail view.
type TurnController struct {
	backend     ChatBackend
	session     *session.Context
	index       *recommend.IndexStore
	board       MapSync
	greeting    string
	turnTimeout time.Duration

	tracer      trace.Tracer
	meter       metric.Meter
	turnCounter metric.Int64Counter
	turnLatency metric.Float64Histogram

	mu         sync.Mutex
	messages   []domain.Message
	draft      string
	errText    string
	phase      Phase
	typing     bool
	risk       domain.RiskLevel
	issued     bool
	latest     []domain.RecommendationItem
	turnSeq    uint64
	cancelTurn context.CancelFunc
	detail     *DetailView
	detailSeq  uint64
}

func NewTurnController(b ChatBackend, sess *session.Context, index *recommend.IndexStore, board MapSync, opts ...Option) (*TurnController, error) {
	if b == nil {
		return nil, errors.New("usecase: chat backend must not be nil")
	}
	if sess == nil {
		return nil, errors.New("usecase: session must not be nil")
	}
	if index == nil {
		index = &recommend.IndexStore{}
	}
	if board == nil {
		board = noopMap{}
	}
	c := &TurnController{
		backend:  b,
		session:  sess,
		index:    index,
		board:    board,
		greeting: DefaultGreeting,
		tracer:   otel.Tracer(TracerName),
		meter:    otel.Meter(TracerName),
		phase:    PhaseIdle,
		risk:     domain.RiskLow,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.turnCounter, _ = c.meter.Int64Counter("advisor_turns_total",
		metric.WithDescription("Chat turns by outcome"))
	c.turnLatency, _ = c.meter.Float64Histogram("advisor_turn_duration_seconds",
		metric.WithDescription("Time from send to applied or failed turn"))
	if c.greeting != "" {
		c.messages = []domain.Message{{Sender: domain.SenderBot, Text: c.greeting}}
	}
	return c, nil
}

// SetDraft stores the text currently being typed.
func (c *TurnController) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// State returns a copy of the chat state.
func (c *TurnController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]domain.Message, len(c.messages))
	for i, m := range c.messages {
		m.Recommendations = slices.Clone(m.Recommendations)
		msgs[i] = m
	}
	var detail *DetailView
	if c.detail != nil {
		d := *c.detail
		detail = &d
	}
	return State{
		Messages:             msgs,
		Draft:                c.draft,
		Err:                  c.errText,
		Phase:                c.phase,
		Typing:               c.typing,
		RiskLevel:            c.risk,
		RecommendationIssued: c.issued,
		Latest:               slices.Clone(c.latest),
		Detail:               detail,
	}
}

// Send runs one turn for text. Failures are reported through the state's
// error text; Send never returns them.
func (c *TurnController) Send(ctx context.Context, text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return OutcomeIgnored
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return OutcomeIgnored
	}
	c.messages = append(c.messages, domain.Message{Sender: domain.SenderUser, Text: text})
	c.draft = ""

	userID := c.session.UserID()
	if userID == "" {
		c.errText = newError(ErrorAuthRequired, "missing_user_id", nil).UserMessage()
		c.mu.Unlock()
		c.record(ctx, OutcomeFailed, 0)
		return OutcomeFailed
	}

	c.errText = ""
	c.phase = PhaseSending
	c.typing = true
	history := BuildHistory(c.messages)
	c.turnSeq++
	seq := c.turnSeq

	var (
		turnCtx context.Context
		cancel  context.CancelFunc
	)
	if c.turnTimeout > 0 {
		turnCtx, cancel = context.WithTimeout(ctx, c.turnTimeout)
	} else {
		turnCtx, cancel = context.WithCancel(ctx)
	}
	c.cancelTurn = cancel
	c.phase = PhaseAwaitingResponse
	c.mu.Unlock()
	defer cancel()

	override := wantsOverride(text)
	turnCtx, span := c.tracer.Start(turnCtx, "TurnController.Send", trace.WithAttributes(
		attribute.Int("history_length", len(history)),
		attribute.Bool("override", override),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.backend.SendChat(turnCtx, backend.ChatRequest{
		UserID:   userID,
		Message:  text,
		History:  history,
		Override: override,
	})
	elapsed := time.Since(start)

	if err == nil && strings.TrimSpace(resp.AssistantMessage) == "" {
		err = newError(ErrorMalformedResponse, "empty_assistant_message", nil)
	}

	c.mu.Lock()
	if seq != c.turnSeq {
		c.mu.Unlock()
		span.AddEvent("late result discarded")
		slog.Info("turn result discarded", "seq", seq)
		c.record(ctx, OutcomeCanceled, elapsed)
		return OutcomeCanceled
	}
	c.cancelTurn = nil

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			c.resetLocked()
			c.mu.Unlock()
			c.record(ctx, OutcomeCanceled, elapsed)
			return OutcomeCanceled
		}
		ue := classifySendError(err)
		c.errText = ue.UserMessage()
		c.resetLocked()
		c.mu.Unlock()

		span.SetStatus(codes.Error, string(ue.Code))
		span.RecordError(err)
		slog.Warn("chat turn failed", "code", ue.Code, "reason", ue.Reason, "err", err)
		c.record(ctx, OutcomeFailed, elapsed)
		return OutcomeFailed
	}

	c.phase = PhaseApplying
	top := recommend.NormalizeAll(recommend.TopN(resp.Recommendations, recommend.TopCount), c.index.Load())
	c.messages = append(c.messages, domain.Message{
		Sender:          domain.SenderBot,
		Text:            resp.AssistantMessage,
		Recommendations: top,
	})
	c.risk = domain.ParseRiskLevel(resp.RiskLevel)
	c.issued = resp.RecommendationIssued != nil && *resp.RecommendationIssued
	c.latest = top
	c.detail = nil
	c.detailSeq++
	c.resetLocked()
	c.mu.Unlock()

	c.board.SetRecommendations(top)
	if len(top) == 0 {
		c.board.ClearSelection()
	}
	c.syncProfile(ctx, resp)

	span.SetAttributes(
		attribute.Int("recommendations", len(top)),
		attribute.String("risk_level", string(domain.ParseRiskLevel(resp.RiskLevel))),
	)
	slog.Info("chat turn applied", "recommendations", len(top), "elapsed", elapsed)
	c.record(ctx, OutcomeApplied, elapsed)
	return OutcomeApplied
}

// Abandon cancels the in-flight turn, if any. Its result is discarded when it
// arrives.
func (c *TurnController) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelTurn == nil {
		return
	}
	c.cancelTurn()
	c.cancelTurn = nil
	c.turnSeq++
	c.resetLocked()
	slog.Info("chat turn abandoned")
}

// Close abandons the pending turn and closes the detail view.
func (c *TurnController) Close() {
	c.Abandon()
	c.CloseDetail()
}

// RefreshLocations reloads the marker list into the location index.
// Failures are logged and leave the previous index in place.
func (c *TurnController) RefreshLocations(ctx context.Context) bool {
	markers, err := c.backend.FetchLocations(ctx)
	if err != nil {
		ue := newError(ErrorLocationFetch, "fetch_locations", err)
		slog.Warn("location refresh failed", "code", ue.Code, "err", err)
		return false
	}
	idx := recommend.NewLocationIndex(markers)
	c.index.Replace(idx)
	c.board.SetLocations(idx)
	slog.Info("locations refreshed", "markers", idx.Len())
	return true
}

func (c *TurnController) resetLocked() {
	c.phase = PhaseIdle
	c.typing = false
}

func (c *TurnController) syncProfile(ctx context.Context, resp backend.ChatResponse) {
	upd := session.ProfileUpdate{
		UserName:  resp.UserName,
		Residence: resp.Residence,
	}
	if resp.BaseTags != nil {
		upd.BaseTags = []string(resp.BaseTags)
	}
	if _, _, err := c.session.MergeProfile(ctx, upd); err != nil {
		slog.Warn("profile persist failed", "err", err)
	}
}

func (c *TurnController) record(ctx context.Context, o Outcome, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", o.String()))
	c.turnCounter.Add(ctx, 1, attrs)
	if elapsed > 0 {
		c.turnLatency.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func classifySendError(err error) *Error {
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	if status, ok := upstreamStatusCode(err); ok && status == 401 {
		return newError(ErrorAuthRequired, "backend_unauthorized", err)
	}
	if errors.Is(err, backend.ErrMalformedResponse) {
		return newError(ErrorMalformedResponse, "decode_response", err)
	}
	return newError(ErrorNetworkFailure, "send_chat", err)
}

func wantsOverride(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range overrideKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
