package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// DefaultSettlementAsset is the only settlement asset the venue accepts.
const DefaultSettlementAsset = "USDC"

// DefaultFundingIntervalS is the perpetual funding interval in seconds.
const DefaultFundingIntervalS = 3600

// DexTokenDetails pins an underlying to an on-chain token.
type DexTokenDetails struct {
	Network           DexNetworkID   `json:"network"`
	UnderlyingAddress common.Address `json:"underlying_address"`
}

// Equal compares network and token address.
func (d *DexTokenDetails) Equal(other *DexTokenDetails) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Network == other.Network && d.UnderlyingAddress == other.UnderlyingAddress
}

// Instrument is the union of spot, dated future, perpetual future and vanilla
// option. InstrumentType selects which optional fields are meaningful.
type Instrument struct {
	InstrumentType  InstrumentType `json:"instrument_type"`
	Underlying      string         `json:"underlying"`
	SettlementAsset string         `json:"settlement_asset"`

	// Expiry is an RFC3339 date or a datetime at 08:00:00Z (dated future, option).
	Expiry string `json:"expiry,omitempty"`

	// Option fields.
	Strike   *decimal.Decimal `json:"strike,omitempty"`
	Payoff   PayoffType       `json:"payoff,omitempty"`
	Exercise ExerciseType     `json:"exercise,omitempty"`

	FundingIntervalS int              `json:"funding_interval_s,omitempty"`
	DexTokenDetails  *DexTokenDetails `json:"dex_token_details,omitempty"`
}

// Spot builds a spot instrument. dex may be nil for non-DEX underlyings.
func Spot(underlying string, dex *DexTokenDetails) Instrument {
	return Instrument{
		InstrumentType:  InstrumentSpot,
		Underlying:      underlying,
		SettlementAsset: DefaultSettlementAsset,
		DexTokenDetails: dex,
	}
}

// PerpetualFuture builds a perpetual with the standard funding interval.
func PerpetualFuture(underlying string, dex *DexTokenDetails) Instrument {
	return Instrument{
		InstrumentType:   InstrumentPerpetualFuture,
		Underlying:       underlying,
		SettlementAsset:  DefaultSettlementAsset,
		FundingIntervalS: DefaultFundingIntervalS,
		DexTokenDetails:  dex,
	}
}

func DatedFuture(underlying, expiry string) Instrument {
	return Instrument{
		InstrumentType:  InstrumentDatedFuture,
		Underlying:      underlying,
		SettlementAsset: DefaultSettlementAsset,
		Expiry:          expiry,
	}
}

func VanillaOption(underlying, expiry string, strike decimal.Decimal, payoff PayoffType, exercise ExerciseType) Instrument {
	return Instrument{
		InstrumentType:  InstrumentVanillaOption,
		Underlying:      underlying,
		SettlementAsset: DefaultSettlementAsset,
		Expiry:          expiry,
		Strike:          &strike,
		Payoff:          payoff,
		Exercise:        exercise,
	}
}

// Validate checks that the fields required by InstrumentType are present.
func (i Instrument) Validate() error {
	if strings.TrimSpace(i.Underlying) == "" {
		return fmt.Errorf("instrument: underlying is required")
	}
	switch i.InstrumentType {
	case InstrumentSpot:
		return nil
	case InstrumentPerpetualFuture:
		if i.FundingIntervalS <= 0 {
			return fmt.Errorf("instrument: perpetual %s requires funding_interval_s", i.Underlying)
		}
		return nil
	case InstrumentDatedFuture:
		if i.Expiry == "" {
			return fmt.Errorf("instrument: dated future %s requires expiry", i.Underlying)
		}
		return nil
	case InstrumentVanillaOption:
		if i.Expiry == "" {
			return fmt.Errorf("instrument: option %s requires expiry", i.Underlying)
		}
		if i.Strike == nil || !i.Strike.IsPositive() {
			return fmt.Errorf("instrument: option %s requires a positive strike", i.Underlying)
		}
		if i.Payoff != PayoffPut && i.Payoff != PayoffCall {
			return fmt.Errorf("instrument: option %s has invalid payoff %q", i.Underlying, i.Payoff)
		}
		if i.Exercise != ExerciseEuropean && i.Exercise != ExerciseAmerican {
			return fmt.Errorf("instrument: option %s has invalid exercise %q", i.Underlying, i.Exercise)
		}
		return nil
	default:
		return fmt.Errorf("instrument: unknown instrument_type %q", i.InstrumentType)
	}
}
