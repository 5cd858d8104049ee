package storage

import (
	"context"
	"errors"

	"orderRouter/internal/model"
)

// QuoteSink persists quote records.
type QuoteSink interface {
	PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error
}

// Multi writes every batch to each sink in order and joins their errors.
type Multi []QuoteSink

func (m Multi) PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.PutQuotes(ctx, quotes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
