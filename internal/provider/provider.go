package provider

import "context"

// DataProvider is the external collaborator the core consumes for bar,
// quote, options and flow data. Any capability may return a nil
// value with a nil error to mean "absent this tick" — that is not an
// error, it is a skip-tick signal to the caller.
type DataProvider interface {
	GetLatestBar(ctx context.Context, symbol string) (*BarTick, error)
	GetQuotes(ctx context.Context, symbol string) (*Quote, error)
	GetOptionsChain(ctx context.Context, symbol string) (*OptionsSummary, error)
	GetFlow(ctx context.Context, symbol string) (*FlowSummary, error)
}
