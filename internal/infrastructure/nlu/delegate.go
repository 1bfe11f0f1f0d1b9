package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scrapedgit/backend/internal/domain"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 800
	// defaultTemperature keeps the envelope output stable across turns
	defaultTemperature = 0.2
)

// DelegateConfig holds configuration for the language-model delegate
type DelegateConfig struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	// RequestsPerMinute caps delegate calls; zero means unlimited
	RequestsPerMinute int
	Burst             int
}

// Delegate interprets user messages with an Anthropic model and returns the structured envelope
type Delegate struct {
	client      MessageClient
	model       string
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
}

// NewDelegate creates a delegate around a message client
func NewDelegate(client MessageClient, cfg DelegateConfig) *Delegate {
	d := &Delegate{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if d.model == "" {
		d.model = defaultModel
	}
	if d.maxTokens <= 0 {
		d.maxTokens = defaultMaxTokens
	}
	if d.temperature <= 0 {
		d.temperature = defaultTemperature
	}
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}
	return d
}

// Interpret sends one turn to the model. It fails fast when the request budget is exhausted
// so the caller can fall back without waiting.
func (d *Delegate) Interpret(ctx context.Context, req domain.NLURequest) (*domain.NLUResponse, error) {
	if d.limiter != nil && !d.limiter.Allow() {
		return nil, eris.Wrap(domain.ErrRateLimited, "nlu delegate")
	}

	temperature := d.temperature
	msg, err := d.client.CreateMessage(ctx, MessageRequest{
		Model:       d.model,
		MaxTokens:   d.maxTokens,
		System:      req.SystemInstructions,
		Messages:    buildMessages(req),
		Temperature: &temperature,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("nlu delegate answered",
		zap.String("model", msg.Model),
		zap.String("stop_reason", msg.StopReason),
		zap.Int64("input_tokens", msg.InputTokens),
		zap.Int64("output_tokens", msg.OutputTokens),
	)

	return ParseEnvelope(msg.Text())
}

// buildMessages lays out history followed by the current turn. The API needs the
// conversation to open with a user message, so leading assistant turns are dropped.
func buildMessages(req domain.NLURequest) []Message {
	msgs := make([]Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		if len(msgs) == 0 && turn.Role != domain.RoleUser {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		msgs = append(msgs, Message{Role: string(turn.Role), Content: turn.Content})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Prior query: %s\n", req.PriorQueryJSON)
	if req.LocationHint != "" {
		fmt.Fprintf(&sb, "User location: %s\n", req.LocationHint)
	}
	fmt.Fprintf(&sb, "User message: %s", req.CurrentMessage)

	return append(msgs, Message{Role: string(domain.RoleUser), Content: sb.String()})
}

// wireQuery accepts prices written as floats, which models sometimes emit
type wireQuery struct {
	IsSearch        *bool    `json:"isSearch"`
	Keyword         *string  `json:"keyword"`
	Category        *string  `json:"category"`
	PreferredBrand  *string  `json:"preferredBrand"`
	MinPrice        *float64 `json:"minPrice"`
	MaxPrice        *float64 `json:"maxPrice"`
	MinRating       *float64 `json:"minRating"`
	SpecConstraints []string `json:"specConstraints"`
}

type wireEnvelope struct {
	UpdatedQuery    *wireQuery          `json:"updatedQuery"`
	ResponseMessage string              `json:"responseMessage"`
	ResponseType    domain.ResponseType `json:"responseType"`
	QuickReplies    []string            `json:"quickReplies"`
}

// ParseEnvelope extracts the JSON envelope from model output. Markdown fences and
// text around the outermost object are ignored.
func ParseEnvelope(text string) (*domain.NLUResponse, error) {
	raw, ok := extractJSONObject(text)
	if !ok {
		return nil, eris.Wrap(domain.ErrMalformedEnvelope, "no json object in model output")
	}

	var env wireEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, eris.Wrapf(domain.ErrMalformedEnvelope, "decode envelope: %v", err)
	}
	if env.UpdatedQuery == nil {
		return nil, eris.Wrap(domain.ErrMalformedEnvelope, "missing updatedQuery")
	}

	q := env.UpdatedQuery
	return &domain.NLUResponse{
		UpdatedQuery: &domain.QueryPatch{
			IsSearch:        q.IsSearch,
			Keyword:         blankToNil(q.Keyword),
			Category:        blankToNil(q.Category),
			PreferredBrand:  blankToNil(q.PreferredBrand),
			MinPrice:        toPrice(q.MinPrice),
			MaxPrice:        toPrice(q.MaxPrice),
			MinRating:       q.MinRating,
			SpecConstraints: q.SpecConstraints,
		},
		ResponseMessage: strings.TrimSpace(env.ResponseMessage),
		ResponseType:    domain.ResponseType(strings.ToLower(string(env.ResponseType))),
		QuickReplies:    env.QuickReplies,
	}, nil
}

func extractJSONObject(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	return domain.StringPtr(*s)
}

func toPrice(v *float64) *int64 {
	if v == nil || *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	p := int64(math.Round(*v))
	return &p
}
