package domain

import (
	"context"
	"math/big"
	"time"
)

// OracleReading is a point-in-time price observation from the external feed.
// It is fetched fresh for every pricing decision and never persisted.
type OracleReading struct {
	// RoundID is the monotonic round identifier reported as current.
	RoundID *big.Int
	// Answer is the raw price. Signed: a malfunctioning feed can report zero
	// or negative values.
	Answer *big.Int
	// StartedAt is when the round was opened.
	StartedAt time.Time
	// UpdatedAt is when the answer was produced.
	UpdatedAt time.Time
	// AnsweredInRound is the round the answer was actually computed in. When
	// it lags RoundID the answer was carried over from an earlier round.
	AnsweredInRound *big.Int
}

// PriceFeed is the read-only capability exposed by the external price oracle.
type PriceFeed interface {
	// LatestReading returns the most recent observation.
	LatestReading(ctx context.Context) (OracleReading, error)
	// Decimals returns the number of fractional digits Answer is expressed in.
	Decimals(ctx context.Context) (uint8, error)
}
