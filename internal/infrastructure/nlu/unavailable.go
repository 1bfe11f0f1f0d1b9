package nlu

import (
	"context"

	"github.com/scrapedgit/backend/internal/domain"
)

// Unavailable is the delegate used when no language model is configured
type Unavailable struct{}

// Interpret always reports that no delegate is available
func (Unavailable) Interpret(context.Context, domain.NLURequest) (*domain.NLUResponse, error) {
	return nil, domain.ErrNLUUnavailable
}
