// Package generate asks a language model to build a mind map from a video
// transcript.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ziadkadry99/videomind/internal/llm"
	"github.com/ziadkadry99/videomind/internal/mindmap"
)

const defaultMaxTopics = 12

// Result is a generated document, not yet validated, with the media handle
// that came with the request.
type Result struct {
	Data  []byte
	Media string
}

// Options tune the generator.
type Options struct {
	Model       string
	MaxTopics   int
	Temperature float64
	MaxTokens   int
	// BreakerTimeout is how long the breaker stays open after tripping.
	BreakerTimeout time.Duration
}

// Generator produces raw mind-map documents through an llm.Provider guarded
// by a circuit breaker.
type Generator struct {
	provider llm.Provider
	breaker  *gobreaker.CircuitBreaker
	opts     Options
	logger   *zap.Logger
}

// New creates a generator.
func New(provider llm.Provider, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxTopics <= 0 {
		opts.MaxTopics = defaultMaxTopics
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// Cancellation is the caller's choice, not a provider failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Generator{provider: provider, breaker: breaker, opts: opts, logger: logger}
}

// Name returns the provider name.
func (g *Generator) Name() string { return g.provider.Name() }

// State reports the breaker state ("closed", "half-open" or "open").
func (g *Generator) State() string { return g.breaker.State().String() }

// Generate calls the model. An invalid request returns ErrInvalidRequest;
// every provider or reply failure is a resource error. The returned bytes
// still need validation by the caller.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	maxTopics := g.opts.MaxTopics
	if req.MaxTopics > 0 && req.MaxTopics < maxTopics {
		maxTopics = req.MaxTopics
	}

	completion := llm.CompletionRequest{
		Model: g.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: buildMessages(req, maxTopics)},
		},
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
		JSONMode:    true,
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.provider.Complete(ctx, completion)
	})
	if err != nil {
		return Result{}, mindmap.NewResourceError(fmt.Errorf("calling %s: %w", g.provider.Name(), err))
	}
	resp, _ := out.(*llm.CompletionResponse)
	if resp == nil {
		return Result{}, mindmap.NewResourceError(fmt.Errorf("%s returned an empty response", g.provider.Name()))
	}
	g.logger.Info("generation completed",
		zap.String("provider", g.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))
	if resp.Truncated {
		g.logger.Warn("reply hit the token limit", zap.Int("max_tokens", g.opts.MaxTokens))
	}

	data, err := assemble(resp.Content, req)
	if err != nil {
		return Result{}, mindmap.NewResourceError(err)
	}
	return Result{Data: data, Media: req.Media}, nil
}

// assemble extracts the document object from the reply and fills in the
// video URL and transcription from the request when the model left them out.
func assemble(content string, req Request) ([]byte, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, fmt.Errorf("model reply contains no JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("parsing model reply: %w", err)
	}

	if _, ok := fields["video_url"]; !ok && req.VideoURL != "" {
		v, _ := json.Marshal(req.VideoURL)
		fields["video_url"] = v
	}
	if _, ok := fields["transcription"]; !ok && len(req.Transcript) > 0 {
		v, err := json.Marshal(req.Transcript)
		if err != nil {
			return nil, fmt.Errorf("encoding transcript: %w", err)
		}
		fields["transcription"] = v
	}
	return json.Marshal(fields)
}
