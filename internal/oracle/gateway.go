package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// DefaultHeartbeat is the maximum age a feed observation may have before it
// is rejected as stale. Chainlink ETH/USD commits a fresh answer at least
// hourly, so anything older means the feed has stopped.
const DefaultHeartbeat = time.Hour

// Gateway fetches the latest observation from a single configured price feed
// and validates it before any value is derived from it. It holds no state
// between calls; every pricing decision gets a fresh, fully checked rate.
type Gateway struct {
	feed      domain.PriceFeed
	heartbeat time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewGateway creates a Gateway over the given feed. A nil feed is a
// misconfiguration and is rejected up front.
func NewGateway(feed domain.PriceFeed, heartbeat time.Duration, logger *slog.Logger) (*Gateway, error) {
	if feed == nil {
		return nil, fmt.Errorf("oracle: nil price feed: %w", domain.ErrInvalidOracleAddress)
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Gateway{
		feed:      feed,
		heartbeat: heartbeat,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "oracle_gateway")),
	}, nil
}

// WithClock overrides the gateway's clock. Intended for tests that need to
// pin the staleness boundary.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// FetchRate returns the latest feed answer normalized to 18 decimals. Checks
// are applied in order, failing fast on the first violation:
//
//  1. staleness: the observation is older than the heartbeat window
//     (exactly at the heartbeat still passes);
//  2. validity: the answer is zero or negative;
//  3. round consistency: the answer was carried over from a round earlier
//     than the one reported as current.
//
// Callers must fetch at most once per pricing decision and reuse the result,
// so a single consistent rate backs both the sufficiency check and the
// recorded amounts.
func (g *Gateway) FetchRate(ctx context.Context) (*uint256.Int, error) {
	reading, err := g.feed.LatestReading(ctx)
	if err != nil {
		return nil, fmt.Errorf("oracle: latest reading: %w", err)
	}

	if age := g.now().Sub(reading.UpdatedAt); age > g.heartbeat {
		return nil, fmt.Errorf("oracle: reading is %s old (heartbeat %s): %w",
			age, g.heartbeat, domain.ErrStalePrice)
	}

	if reading.Answer == nil || reading.Answer.Sign() <= 0 {
		return nil, fmt.Errorf("oracle: non-positive answer %v: %w",
			reading.Answer, domain.ErrInvalidPrice)
	}

	if reading.AnsweredInRound != nil && reading.RoundID != nil &&
		reading.AnsweredInRound.Cmp(reading.RoundID) < 0 {
		return nil, fmt.Errorf("oracle: answered in round %s < current round %s: %w",
			reading.AnsweredInRound, reading.RoundID, domain.ErrStaleRound)
	}

	decimals, err := g.feed.Decimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("oracle: feed decimals: %w", err)
	}

	raw, overflow := uint256.FromBig(reading.Answer)
	if overflow {
		return nil, fmt.Errorf("oracle: answer exceeds 256 bits: %w", domain.ErrArithmeticOverflow)
	}

	rate, err := Normalize(raw, decimals)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "fetched oracle rate",
		slog.String("round", reading.RoundID.String()),
		slog.String("rate", rate.Dec()),
		slog.Time("updated_at", reading.UpdatedAt),
	)
	return rate, nil
}
