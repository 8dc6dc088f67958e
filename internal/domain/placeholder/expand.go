package placeholder

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/papi/internal/domain/player"
	"github.com/okian/papi/pkg/logger"
	"github.com/okian/papi/pkg/metrics"
)

// Token outcomes reported to metrics.
const (
	outcomeReplaced = "replaced"
	outcomeUnknown  = "unknown"
	outcomeFailed   = "failed"
)

// SetPlaceholders replaces every registered {identifier|params} token in
// text with its processor's output for p. Unknown identifiers and failing
// processors leave the token as written.
func (r *Registry) SetPlaceholders(ctx context.Context, p *player.Player, text string) string {
	if !strings.ContainsRune(text, '{') {
		return text
	}
	return r.pattern.ReplaceAllStringFunc(text, func(token string) string {
		identifier, params, _ := strings.Cut(token[1:len(token)-1], "|")

		processor, ok := r.lookup(identifier)
		if !ok {
			metrics.RecordPlaceholderExpansion(outcomeUnknown)
			return token
		}

		out, err := invoke(processor, p, params)
		if err != nil {
			metrics.RecordPlaceholderExpansion(outcomeFailed)
			r.logger.Debug(ctx, "placeholder left unexpanded",
				logger.String("identifier", identifier),
				logger.Error(err),
			)
			return token
		}
		metrics.RecordPlaceholderExpansion(outcomeReplaced)
		return out
	})
}

// invoke calls processor, turning a panic into ErrProcessorPanic.
func invoke(processor Processor, p *player.Player, params string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrProcessorPanic, rec)
		}
	}()
	return processor(p, params)
}
