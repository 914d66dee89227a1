package port

import (
	"context"

	"multisend/internal/domain/entity"
)

// SwapQuoter answers "quote(amountIn) -> amountOut" for one DEX venue.
// Routing and protocol details stay behind this boundary; the engine only
// consumes the resulting numbers (and, for venues that build transactions
// server-side, the opaque unsigned transaction).
type SwapQuoter interface {
	Quote(ctx context.Context, req entity.SwapQuoteRequest) (entity.SwapQuote, error)
}
