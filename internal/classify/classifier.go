package classify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"guestdesk/internal/domain"
	"guestdesk/internal/llm"
)

// Classifier runs the classification pipeline: prompt construction, gateway
// call, sanitize, validate, one bounded repair attempt, result assembly.
// It holds no per-call state and is safe for concurrent use; concurrency of
// outstanding model calls is the gateway's concern.
type Classifier struct {
	gateway llm.Gateway
	logger  *zap.Logger
}

func New(gateway llm.Gateway, logger *zap.Logger) *Classifier {
	return &Classifier{gateway: gateway, logger: logger}
}

// Classify never fails: every call yields either a validated result or the
// fallback result. Worst case is two gateway calls, one primary and one
// repair.
func (c *Classifier) Classify(ctx context.Context, req domain.ClassificationRequest) (domain.ClassificationResult, llm.Usage) {
	totalUsage := llm.Usage{}

	raw, usage, err := c.gateway.Invoke(ctx, buildClassifyMessages(req))
	totalUsage.Add(usage)
	if err != nil {
		c.logger.Error("gateway call failed", zap.Error(err))
		return domain.FallbackResult(err.Error()), totalUsage
	}

	result, err := c.validateReply(raw)
	if err == nil {
		return c.assemble(result), totalUsage
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		// Validation only signals parse failures today; anything else is
		// terminal without a repair attempt.
		c.logger.Error("validation failed", zap.Error(err))
		return domain.FallbackResult(err.Error()), totalUsage
	}

	c.logger.Warn("malformed reply, attempting repair", zap.Error(parseErr))

	// Exactly one repair round. A second parse failure, or a gateway
	// failure during repair, is terminal.
	repaired, usage, err := c.gateway.Invoke(ctx, buildRepairMessages(parseErr.Text, req.GuestMessage))
	totalUsage.Add(usage)
	if err != nil {
		c.logger.Error("repair call failed", zap.Error(err))
		return domain.FallbackResult("repair call failed: "+err.Error()), totalUsage
	}

	result, err = c.validateReply(repaired)
	if err != nil {
		c.logger.Error("repair attempt still malformed", zap.Error(err))
		return domain.FallbackResult("response malformed after repair"), totalUsage
	}
	return c.assemble(result), totalUsage
}

// ClassifyBatch resolves each request independently, preserving input
// order. One element's failure yields that element's fallback only. Usage
// is reported per element so callers can account tokens per request.
func (c *Classifier) ClassifyBatch(ctx context.Context, reqs []domain.ClassificationRequest) ([]domain.ClassificationResult, []llm.Usage) {
	results := make([]domain.ClassificationResult, len(reqs))
	usages := make([]llm.Usage, len(reqs))
	for i, req := range reqs {
		results[i], usages[i] = c.Classify(ctx, req)
	}
	return results, usages
}

func (c *Classifier) validateReply(raw string) (domain.ClassificationResult, error) {
	return Validate(Sanitize(raw), c.logger)
}

// assemble is the single exit point for successful results. Coherence
// between the ticket flag and the categories list is the model's contract;
// violations are logged and passed through.
func (c *Classifier) assemble(result domain.ClassificationResult) domain.ClassificationResult {
	if !result.Coherent() {
		c.logger.Warn("incoherent ticket/categories combination",
			zap.Bool("should_create_ticket", result.ShouldCreateTicket),
			zap.Int("categories", len(result.Categories)))
	}
	return result
}
