package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/metrics"
)

// scored is the phase one outcome for one input position.
// Exactly one of item and failure is set.
type scored struct {
	item    *core.AnalysisItem
	failure *core.ItemResult
}

// itemScorer validates an item and computes its metrics.
type itemScorer struct {
	encoder metrics.Encoder
	bounds  core.LengthBounds
	logger  *slog.Logger
}

func (s *itemScorer) score(ctx context.Context, position int, in Input) scored {
	question := strings.TrimSpace(in.Question)
	response := strings.TrimSpace(in.Response)

	if err := core.ValidateItem(question, response, s.bounds); err != nil {
		s.logger.Debug("item failed validation", "position", position, "err", err)
		return scored{failure: &core.ItemResult{Question: question, Response: response, Error: itemErrorMessage(err)}}
	}

	semantic, err := metrics.Semantic(ctx, s.encoder, question, response)
	if err != nil {
		s.logger.Warn("error computing semantic metrics", "position", position, "err", err)
		return scored{failure: &core.ItemResult{
			Question: question,
			Response: response,
			Error:    processingFailedMessage + err.Error(),
		}}
	}

	m := core.Metrics{Objective: metrics.Objective(response), Semantic: semantic}
	if err := core.ValidateMetrics(m); err != nil {
		s.logger.Warn("metrics out of range", "position", position, "err", err)
		return scored{failure: &core.ItemResult{Question: question, Response: response, Error: invalidMetricsMessage}}
	}

	return scored{item: &core.AnalysisItem{
		Question: question,
		Response: response,
		Metrics:  m,
		Position: position,
	}}
}

// panicked is the failure record for an item whose scoring did not complete.
func panicked(in Input, cause any) scored {
	return scored{failure: &core.ItemResult{
		Question: strings.TrimSpace(in.Question),
		Response: strings.TrimSpace(in.Response),
		Error:    processingFailedMessage + fmt.Sprint(cause),
	}}
}

func itemErrorMessage(err error) string {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return verr.Message()
	}
	return err.Error()
}
