package feeprofile

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuoter struct {
	rate *big.Int
	fee  func(value *big.Int) *big.Int
	err  error
}

func (q *fakeQuoter) TransferFeeRate(ctx context.Context) (*big.Int, error) {
	return q.rate, nil
}

func (q *fakeQuoter) TransferFeeIncurred(ctx context.Context, value *big.Int) (*big.Int, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.fee(value), nil
}

// 0.3%
var rate = big.NewInt(3_000_000_000_000_000)

func TestExpectedFee(t *testing.T) {
	assert.Equal(t, int64(3), ExpectedFee(big.NewInt(1000), rate).Int64())
	assert.Equal(t, int64(2), ExpectedFee(big.NewInt(999), rate).Int64())
	assert.Equal(t, int64(0), ExpectedFee(big.NewInt(333), rate).Int64())
}

func TestRun(t *testing.T) {
	ceil := func(value *big.Int) *big.Int {
		n := new(big.Int).Mul(value, rate)
		n.Add(n, new(big.Int).Sub(Unit, big.NewInt(1)))
		return n.Div(n, Unit)
	}

	tests := []struct {
		name           string
		quoter         *fakeQuoter
		values         []*big.Int
		wantMismatches int
		wantErr        assert.ErrorAssertionFunc
	}{
		{
			name:    "floor rounding",
			quoter:  &fakeQuoter{rate: rate, fee: func(v *big.Int) *big.Int { return ExpectedFee(v, rate) }},
			values:  DefaultValues(),
			wantErr: assert.NoError,
		},
		{
			name:           "ceiling rounding",
			quoter:         &fakeQuoter{rate: rate, fee: ceil},
			values:         DefaultValues(),
			wantMismatches: 8,
			wantErr:        assert.NoError,
		},
		{
			name:    "too few values",
			quoter:  &fakeQuoter{rate: rate},
			values:  []*big.Int{big.NewInt(1)},
			wantErr: assert.Error,
		},
		{
			name:    "quoter fails",
			quoter:  &fakeQuoter{rate: rate, err: errors.New("boom")},
			values:  DefaultValues(),
			wantErr: assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Run(context.Background(), tt.quoter, tt.values)
			if !tt.wantErr(t, err) || err != nil {
				return
			}
			assert.Equal(t, tt.wantMismatches, p.Mismatches)
			assert.Len(t, p.Samples, len(tt.values))
			assert.InDelta(t, p.RateFloat(), p.Slope, 1e-4)
			assert.Greater(t, p.R2, 0.99)
		})
	}
}

func TestRun_ZeroRate(t *testing.T) {
	q := &fakeQuoter{rate: new(big.Int), fee: func(*big.Int) *big.Int { return new(big.Int) }}

	p, err := Run(context.Background(), q, DefaultValues())
	require.NoError(t, err)
	assert.Zero(t, p.Mismatches)
	assert.Zero(t, p.Slope)
	assert.Zero(t, p.RateFloat())
}
