package cj

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/dropforge/supplier-bridge/pkg/types"
)

// FreightOptions quotes shipping for a variant to every configured
// destination in parallel and merges the results. Options for the
// preferred destination (the first configured) always lead the merged
// list; the rest follow in configuration order, each tagged with its
// destination. A destination that fails to quote is logged and
// skipped; the call fails only when every destination fails.
func (s *Service) FreightOptions(ctx context.Context, variantID string, quantity int) ([]domain.FreightOption, error) {
	if variantID == "" {
		return nil, fmt.Errorf("empty variant id")
	}
	if quantity <= 0 {
		quantity = 1
	}

	results := make([][]domain.FreightOption, len(s.freightDests))
	errs := make([]error, len(s.freightDests))

	var wg sync.WaitGroup
	for i, dest := range s.freightDests {
		wg.Add(1)
		go func(i int, dest string) {
			defer wg.Done()
			results[i], errs[i] = s.quoteDestination(ctx, variantID, quantity, dest)
		}(i, dest)
	}
	wg.Wait()

	var merged []domain.FreightOption
	failures := 0
	for i, dest := range s.freightDests {
		if errs[i] != nil {
			failures++
			s.logger.Warn("freight quote failed for destination",
				"destination", dest, "err", errs[i])
			continue
		}
		merged = append(merged, results[i]...)
	}

	if failures == len(s.freightDests) {
		return nil, fmt.Errorf("freight quote failed for all destinations: %w", errs[0])
	}
	return merged, nil
}

func (s *Service) quoteDestination(ctx context.Context, variantID string, quantity int, dest string) ([]domain.FreightOption, error) {
	env, err := s.client.Post(ctx, endpointFreight, freightRequest{
		StartCountryCode: s.freightStart,
		EndCountryCode:   dest,
		Products: []freightProduct{
			{VID: variantID, Quantity: quantity},
		},
	})
	if err != nil {
		return nil, err
	}
	return decodeFreight(env, dest)
}
