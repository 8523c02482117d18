// Package feeprofile checks a fee token's fee arithmetic against its declared
// rate by sampling transferFeeIncurred.
package feeprofile

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/sajari/regression"
	"go.uber.org/zap"

	"github.com/KyberNetwork/fee-token-harness/pkg/utils"
)

var logger *zap.SugaredLogger

func init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	logger = l.Sugar()
}

var (
	// Unit is the fixed point base of transferFeeRate.
	Unit = utils.BigIntMustFromString("1000000000000000000")

	ErrNotEnoughSamples = errors.New("need at least 3 sample values")
)

// FeeQuoter is the part of a fee token the profiler reads.
type FeeQuoter interface {
	TransferFeeRate(ctx context.Context) (*big.Int, error)
	TransferFeeIncurred(ctx context.Context, value *big.Int) (*big.Int, error)
}

type Sample struct {
	Value    *big.Int
	Fee      *big.Int
	Expected *big.Int
}

// Profile is the result of sampling a token's fee function.
type Profile struct {
	Rate      *big.Int
	Slope     float64
	Intercept float64
	R2        float64
	Samples   []Sample
	// Mismatches counts samples whose fee differs from value*rate/Unit rounded down.
	Mismatches int
}

// ExpectedFee applies the floor rule of 18 decimal fixed point multiplication.
func ExpectedFee(value, rate *big.Int) *big.Int {
	fee := new(big.Int).Mul(value, rate)
	return fee.Div(fee, Unit)
}

// DefaultValues spans several orders of magnitude of token base units.
func DefaultValues() []*big.Int {
	values := make([]*big.Int, 0, 8)
	v := big.NewInt(997)
	for i := 0; i < 8; i++ {
		values = append(values, new(big.Int).Set(v))
		v.Mul(v, big.NewInt(7))
	}
	return values
}

// Run samples the quoter at every value and fits fee = Intercept + Slope*value.
func Run(ctx context.Context, quoter FeeQuoter, values []*big.Int) (*Profile, error) {
	if len(values) < 3 {
		return nil, ErrNotEnoughSamples
	}
	rate, err := quoter.TransferFeeRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get transfer fee rate: %w", err)
	}

	p := &Profile{
		Rate:    rate,
		Samples: make([]Sample, 0, len(values)),
	}
	r := new(regression.Regression)
	r.SetObserved("transfer fee")
	r.SetVar(0, "transfer value")
	for _, v := range values {
		fee, err := quoter.TransferFeeIncurred(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("could not get fee for %s: %w", v, err)
		}
		expected := ExpectedFee(v, rate)
		if fee.Cmp(expected) != 0 {
			p.Mismatches++
			logger.Warnw("fee does not follow the floor rule", "value", v, "fee", fee, "expected", expected)
		}
		p.Samples = append(p.Samples, Sample{Value: v, Fee: fee, Expected: expected})

		feeF, _ := new(big.Float).SetInt(fee).Float64()
		valueF, _ := new(big.Float).SetInt(v).Float64()
		r.Train(regression.DataPoint(feeF, []float64{valueF}))
	}

	if rate.Sign() == 0 {
		// every fee is zero, there is nothing to fit
		return p, nil
	}
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("could not regress fees: %w", err)
	}
	p.Intercept = r.Coeff(0)
	p.Slope = r.Coeff(1)
	p.R2 = r.R2
	logger.Infow("fee profile", "rate", rate, "slope", p.Slope, "r2", p.R2, "mismatches", p.Mismatches)
	return p, nil
}

// RateFloat converts the fixed point rate to a fraction, for comparison with Slope.
func (p *Profile) RateFloat() float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(p.Rate), new(big.Float).SetInt(Unit)).Float64()
	return f
}
