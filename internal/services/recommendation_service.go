package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/arabadanismani/backend/internal/generator"
	"github.com/arabadanismani/backend/internal/metrics"
	"github.com/arabadanismani/backend/internal/models"
)

const (
	DefaultGenerationTimeout = 30 * time.Second
	refundTimeout            = 5 * time.Second

	RefundReasonMalformed = "malformed_output"
	RefundReasonUpstream  = "upstream_failure"
)

type RecommendationOptions struct {
	Timeout                 time.Duration
	RefundOnUpstreamFailure bool
	Audit                   AuditRecorder
	Metrics                 *metrics.Metrics
}

// Recommendation is a successful generation. Raw is the extracted JSON
// array as the model wrote it.
type Recommendation struct {
	Cars      []models.CarRecommendation
	Raw       json.RawMessage
	Remaining int
	RequestID string
}

// RecommendationService spends one credit per request and relays the
// preferences to the generator.
type RecommendationService struct {
	ledger    Ledger
	generator generator.Generator
	opts      RecommendationOptions
	newID     func() string
}

func NewRecommendationService(ledger Ledger, gen generator.Generator, opts RecommendationOptions) *RecommendationService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGenerationTimeout
	}
	if opts.Audit == nil {
		opts.Audit = nopAudit{}
	}
	return &RecommendationService{
		ledger:    ledger,
		generator: gen,
		opts:      opts,
		newID:     uuid.NewString,
	}
}

// Recommend debits one credit, asks the generator for recommendations and
// parses its answer. The credit is given back when the answer cannot be
// parsed, and on upstream failure when RefundOnUpstreamFailure is set.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, prefs models.CarPreferences) (*Recommendation, error) {
	if s.ledger == nil {
		return nil, ErrLedgerNotInitialized
	}

	requestID := s.newID()

	remaining, err := s.ledger.Debit(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			s.opts.Metrics.Debit("limit_exceeded")
			log.Printf("[RECOMMEND] User %s has no credits left", userID)
			return nil, err
		}
		s.opts.Metrics.Debit("error")
		s.opts.Audit.LogError(requestID, userID, err)
		log.Printf("[RECOMMEND] Debit failed for user %s: %v", userID, err)
		return nil, err
	}
	s.opts.Metrics.Debit("ok")
	s.opts.Audit.LogDebit(requestID, userID, remaining)

	prompt, err := BuildPrompt(prefs)
	if err != nil {
		s.refund(ctx, requestID, userID, RefundReasonUpstream)
		return nil, fmt.Errorf("%w: build prompt: %v", ErrUpstreamGeneration, err)
	}

	text, err := s.generate(ctx, prompt)
	if err != nil {
		log.Printf("[RECOMMEND] Generation failed for user %s (request %s): %v", userID, requestID, err)
		if s.opts.RefundOnUpstreamFailure {
			s.refund(ctx, requestID, userID, RefundReasonUpstream)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamGeneration, err)
	}

	cars, raw, err := ParseRecommendations(text)
	if err != nil {
		log.Printf("[RECOMMEND] Unparseable model output for request %s: %q", requestID, text)
		s.refund(ctx, requestID, userID, RefundReasonMalformed)
		return nil, err
	}

	return &Recommendation{
		Cars:      cars,
		Raw:       raw,
		Remaining: remaining,
		RequestID: requestID,
	}, nil
}

func (s *RecommendationService) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	text, err := s.generator.Generate(ctx, prompt)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.opts.Metrics.Generation(s.generator.Name(), outcome, time.Since(start))
	return text, err
}

// refund gives back the credit taken for requestID. It runs detached from
// the request context so a disconnecting client cannot skip it. Failures are
// logged and audited but never replace the caller's error.
func (s *RecommendationService) refund(ctx context.Context, requestID, userID, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refundTimeout)
	defer cancel()

	balance, err := s.ledger.Credit(ctx, userID, 1)
	if err != nil {
		s.opts.Metrics.Refund(reason, "error")
		s.opts.Audit.LogError(requestID, userID, fmt.Errorf("refund (%s): %w", reason, err))
		log.Printf("[RECOMMEND] Refund failed for user %s (request %s): %v", userID, requestID, err)
		return
	}
	s.opts.Metrics.Refund(reason, "ok")
	s.opts.Audit.LogRefund(requestID, userID, balance, reason)
	log.Printf("[RECOMMEND] Refunded 1 credit to user %s (%s), balance %d", userID, reason, balance)
}
