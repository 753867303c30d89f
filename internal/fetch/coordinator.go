package fetch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"optionstracker/internal/client/ivx"
	"optionstracker/internal/config"
)

// Provider is the slice of the market-data client the coordinator needs.
type Provider interface {
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]ivx.Bar, error)
	FetchOptionContracts(ctx context.Context, symbol string) ([]ivx.Contract, error)
	FetchOptionQuote(ctx context.Context, contractSymbol string) (*ivx.Quote, error)
}

// Coordinator is the single gateway to the market-data provider. Every call
// passes through the shared rate gate and the retry policy, so callers never
// talk to the client directly.
type Coordinator struct {
	provider Provider
	gate     *throttle
	retry    retryPolicy
	logger   *zap.Logger
}

func NewCoordinator(provider Provider, cfg config.Config, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		provider: provider,
		gate:     newThrottle(cfg.Provider.CallsPerMinute),
		retry: retryPolicy{
			maxRetries:  cfg.Fetch.MaxRetries,
			backoffBase: cfg.Fetch.BackoffBase,
			backoffMax:  cfg.Fetch.BackoffMax,
		},
		logger: logger.Named("fetch"),
	}
}

// DailyBars fetches daily OHLCV bars for symbol over [from, to].
func (c *Coordinator) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]ivx.Bar, error) {
	var bars []ivx.Bar
	err := c.withRetry(ctx, "daily_bars", symbol, func(ctx context.Context) error {
		var err error
		bars, err = c.provider.FetchDailyBars(ctx, symbol, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

// OptionContracts fetches the listed option chain for symbol.
func (c *Coordinator) OptionContracts(ctx context.Context, symbol string) ([]ivx.Contract, error) {
	var contracts []ivx.Contract
	err := c.withRetry(ctx, "option_contracts", symbol, func(ctx context.Context) error {
		var err error
		contracts, err = c.provider.FetchOptionContracts(ctx, symbol)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// OptionQuote fetches the latest quote for one contract. found is false when
// the provider has no quote for the contract; that is not an error.
func (c *Coordinator) OptionQuote(ctx context.Context, contractSymbol string) (quote *ivx.Quote, found bool, err error) {
	err = c.withRetry(ctx, "option_quote", contractSymbol, func(ctx context.Context) error {
		var err error
		quote, err = c.provider.FetchOptionQuote(ctx, contractSymbol)
		return err
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.NotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	if quote == nil {
		return nil, false, nil
	}
	return quote, true, nil
}
