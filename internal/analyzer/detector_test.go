package analyzer

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bi(v int64) *big.Int { return big.NewInt(v) }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		threshold string
		prev      *big.Int // nil = first sighting
		cur       *big.Int
		want      Classification
		wantSold  *big.Int
	}{
		{
			name:      "first sighting is seed regardless of value",
			threshold: "0.5",
			prev:      nil,
			cur:       bi(500),
			want:      Seed,
		},
		{
			name:      "increase",
			threshold: "0.5",
			prev:      bi(1000),
			cur:       bi(1500),
			want:      Increase,
		},
		{
			name:      "unchanged",
			threshold: "0.5",
			prev:      bi(1000),
			cur:       bi(1000),
			want:      Unchanged,
		},
		{
			name:      "zero to zero is unchanged, never alertable",
			threshold: "0.5",
			prev:      bi(0),
			cur:       bi(0),
			want:      Unchanged,
		},
		{
			name:      "drop past threshold",
			threshold: "0.5",
			prev:      bi(1_000_000),
			cur:       bi(994_000),
			want:      AlertableDecrease,
			wantSold:  bi(6_000),
		},
		{
			name:      "drop below threshold",
			threshold: "0.5",
			prev:      bi(1_000_000),
			cur:       bi(998_000),
			want:      SmallDecrease,
			wantSold:  bi(2_000),
		},
		{
			name:      "drop exactly at threshold is alertable",
			threshold: "0.5",
			prev:      bi(1000),
			cur:       bi(995),
			want:      AlertableDecrease,
			wantSold:  bi(5),
		},
		{
			name:      "drop one base unit short of the threshold",
			threshold: "0.5",
			prev:      bi(1000),
			cur:       bi(996),
			want:      SmallDecrease,
			wantSold:  bi(4),
		},
		{
			name:      "zero threshold alerts on any drop",
			threshold: "0",
			prev:      bi(1000),
			cur:       bi(999),
			want:      AlertableDecrease,
			wantSold:  bi(1),
		},
		{
			name:      "full drain",
			threshold: "5",
			prev:      bi(123_456_789),
			cur:       bi(0),
			want:      AlertableDecrease,
			wantSold:  bi(123_456_789),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(dec(tt.threshold))
			ch := d.Classify(tt.prev, tt.cur)
			assert.Equal(t, tt.want, ch.Class)
			if tt.wantSold != nil {
				require.NotNil(t, ch.Sold)
				assert.Zero(t, tt.wantSold.Cmp(ch.Sold), "sold = %s, want %s", ch.Sold, tt.wantSold)
			}
		})
	}
}

func TestClassifyPct(t *testing.T) {
	d := NewDetector(dec("0.5"))

	ch := d.Classify(bi(1_000_000), bi(994_000))
	assert.Equal(t, AlertableDecrease, ch.Class)
	assert.Equal(t, "0.60", ch.Pct.StringFixed(2))

	ch = d.Classify(bi(1_000_000), bi(998_000))
	assert.Equal(t, SmallDecrease, ch.Class)
	assert.Equal(t, "0.20", ch.Pct.StringFixed(2))
}

// Balances beyond int64 range must classify exactly; this is why balances
// are big.Int and the boundary compare is cross-multiplied.
func TestClassifyHugeBalances(t *testing.T) {
	prev, ok := new(big.Int).SetString("100000000000000000000000000000000000000", 10)
	require.True(t, ok)

	// Exactly 1% drop of a 10^38-scale balance.
	drop := new(big.Int).Div(prev, big.NewInt(100))
	cur := new(big.Int).Sub(prev, drop)

	d := NewDetector(dec("1"))
	ch := d.Classify(prev, cur)
	assert.Equal(t, AlertableDecrease, ch.Class)
	assert.Zero(t, drop.Cmp(ch.Sold))

	// One base unit less than the 1% boundary stays small.
	curAbove := new(big.Int).Add(cur, big.NewInt(1))
	ch = d.Classify(prev, curAbove)
	assert.Equal(t, SmallDecrease, ch.Class)
}
