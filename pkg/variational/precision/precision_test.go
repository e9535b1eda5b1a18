package precision

import (
	"math/rand/v2"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRoundToRequirements(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0", "0"},
		{"0.1", "0.1"},
		{"0.00100", "0.001"},
		{"0.0011230", "0.001123"},
		{"-0.0011231", "-0.001123"},
		{"0.00123456", "0.001235"},
		{"-0.00123456", "-0.001235"},
		{"0.654321", "0.6543"},
		{"12.3456", "12.3456"},
		{"12.34567", "12.3457"},
		{"123", "123"},
		{"123456.1", "123456.1"},
		{"12345678.99", "12345678.99"},
		{"1.123456789123456789", "1.12346"},
		{"1000000", "1000000"},
		{"1.5E+3", "1500"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := RoundToRequirements(d(tc.in), DefaultRequirements)
			assert.Truef(t, d(tc.want).Equal(got), "got %s want %s", got, tc.want)
		})
	}
}

func TestRoundToRequirementsHalfAwayFromZero(t *testing.T) {
	req := Requirements{MinDecimalFigures: 0, MaxDecimalOnlyFigures: 2, MaxSignificantFigures: 3}
	assert.True(t, d("0.13").Equal(RoundToRequirements(d("0.125"), req)))
	assert.True(t, d("-0.13").Equal(RoundToRequirements(d("-0.125"), req)))
	assert.True(t, d("12.4").Equal(RoundToRequirements(d("12.35"), req)))
	// integers are never trimmed below the decimal point
	assert.True(t, d("1235").Equal(RoundToRequirements(d("1235"), req)))
}

func TestRoundToRequirementsKeepsMinDecimals(t *testing.T) {
	req := Requirements{MinDecimalFigures: 3, MaxDecimalOnlyFigures: 4, MaxSignificantFigures: 4}
	// allowed scale would drop to 0 places, but three are always kept
	got := RoundToRequirements(d("98765.43219"), req)
	assert.True(t, d("98765.432").Equal(got), got.String())
}

func TestRoundToRequirementsIsIdempotent(t *testing.T) {
	reqs := []Requirements{
		DefaultRequirements,
		{MinDecimalFigures: 0, MaxDecimalOnlyFigures: 1, MaxSignificantFigures: 1},
		{MinDecimalFigures: 4, MaxDecimalOnlyFigures: 8, MaxSignificantFigures: 10},
	}
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 500; i++ {
		v := decimal.New(rng.Int64N(2_000_000_000)-1_000_000_000, -int32(rng.IntN(14)))
		for _, req := range reqs {
			once := RoundToRequirements(v, req)
			twice := RoundToRequirements(once, req)
			require.Truef(t, once.Equal(twice), "value %s req %+v: %s then %s", v, req, once, twice)
		}
	}
}

func TestLog10Ceil(t *testing.T) {
	for in, want := range map[string]int{"1": 0, "9": 1, "10": 1, "11": 2, "100": 2, "999": 3, "1000": 3} {
		assert.Equal(t, want, log10Ceil(d(in).Coefficient()), in)
	}
}

func TestDefaultMinQtyTick(t *testing.T) {
	notional := d("0.1")
	cases := map[string]string{
		"0":          "1",
		"-5":         "1",
		"456":        "0.0001",
		"68000":      "0.000001",
		"0.00002528": "1",
		"0.1":        "1",
		"0.2":        "0.1",
		"1":          "0.1",
	}
	for price, want := range cases {
		got := DefaultMinQtyTick(notional, d(price))
		assert.Truef(t, d(want).Equal(got), "price %s: got %s want %s", price, got, want)
	}
	assert.True(t, decimal.NewFromInt(1).Equal(DefaultMinQtyTick(decimal.Zero, d("100"))))
}

func TestFindAssetDetails(t *testing.T) {
	tokenA := &models.DexTokenDetails{Network: models.DexNetworkETH, UnderlyingAddress: common.HexToAddress("0xaa")}
	tokenB := &models.DexTokenDetails{Network: models.DexNetworkBSC, UnderlyingAddress: common.HexToAddress("0xbb")}
	supported := models.SupportedAssets{
		"PEPE": {
			{Asset: "PEPE", Precision: 18, DexTokenDetails: tokenA},
			{Asset: "PEPE", Precision: 9, DexTokenDetails: tokenB},
		},
		"BTC": {
			{Asset: "WBTC", Precision: 8},
			{Asset: "BTC", Precision: 8},
		},
	}

	got, ok := FindAssetDetails(models.Spot("PEPE", &models.DexTokenDetails{Network: models.DexNetworkBSC, UnderlyingAddress: common.HexToAddress("0xbb")}), supported)
	require.True(t, ok)
	assert.Equal(t, 9, got.Precision)

	got, ok = FindAssetDetails(models.PerpetualFuture("PEPE", nil), supported)
	require.True(t, ok)
	assert.Equal(t, 18, got.Precision)

	got, ok = FindAssetDetails(models.PerpetualFuture("BTC", nil), supported)
	require.True(t, ok)
	assert.Equal(t, "BTC", got.Asset)

	_, ok = FindAssetDetails(models.Spot("PEPE", &models.DexTokenDetails{Network: models.DexNetworkSolana}), supported)
	assert.False(t, ok)

	_, ok = FindAssetDetails(models.Spot("DOGE", nil), supported)
	assert.False(t, ok)
}

func TestFormatKeepsExponent(t *testing.T) {
	assert.Equal(t, "1.50", Format(decimal.New(150, -2)))
	assert.Equal(t, "1500", Format(decimal.New(15, 2)))
	assert.Equal(t, "0.001235", Format(RoundToRequirements(decimal.RequireFromString("0.0012345"), DefaultRequirements)))
}
