package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SimpleMarginAssetParam struct {
	FuturesInitialMargin     decimal.Decimal `json:"futures_initial_margin"`
	FuturesMaintenanceMargin decimal.Decimal `json:"futures_maintenance_margin"`
	FuturesLeverage          decimal.Decimal `json:"futures_leverage"`
	OptionInitialMargin      decimal.Decimal `json:"option_initial_margin"`
	OptionInitialMarginMin   decimal.Decimal `json:"option_initial_margin_min"`
	OptionMaintenanceMargin  decimal.Decimal `json:"option_maintenance_margin"`
}

type SimpleMarginParams struct {
	AssetParams        map[string]SimpleMarginAssetParam `json:"asset_params"`
	DefaultAssetParam  SimpleMarginAssetParam            `json:"default_asset_param"`
	LiquidationPenalty decimal.Decimal                   `json:"liquidation_penalty"`
	AutoLiquidation    bool                              `json:"auto_liquidation"`
}

type PortfolioMarginAssetParam struct {
	VolRangeUp         decimal.Decimal `json:"vol_range_up"`
	VolRangeDown       decimal.Decimal `json:"vol_range_down"`
	ShortVegaPower     decimal.Decimal `json:"short_vega_power"`
	LongVegaPower      decimal.Decimal `json:"long_vega_power"`
	PriceRange         decimal.Decimal `json:"price_range"`
	OptSumContingency  decimal.Decimal `json:"opt_sum_contingency"`
	OptContingency     decimal.Decimal `json:"opt_contingency"`
	FuturesContingency decimal.Decimal `json:"futures_contingency"`
	AtmRange           decimal.Decimal `json:"atm_range"`
}

type PortfolioMarginParams struct {
	AssetParams         map[string]PortfolioMarginAssetParam `json:"asset_params"`
	DefaultAssetParam   PortfolioMarginAssetParam            `json:"default_asset_param"`
	DecorrelationRisk   decimal.Decimal                      `json:"decorrelation_risk"`
	InitialMarginFactor decimal.Decimal                      `json:"initial_margin_factor"`
	LiquidationPenalty  decimal.Decimal                      `json:"liquidation_penalty"`
	AutoLiquidation     bool                                 `json:"auto_liquidation"`
}

// MarginParams is tagged on the wire as {"margin_mode": ..., "params": {...}}.
// Exactly one of Simple or Portfolio is set, matching Mode.
type MarginParams struct {
	Mode      MarginMode
	Simple    *SimpleMarginParams
	Portfolio *PortfolioMarginParams
}

func SimpleMargin(p SimpleMarginParams) MarginParams {
	return MarginParams{Mode: MarginModeSimple, Simple: &p}
}

func PortfolioMargin(p PortfolioMarginParams) MarginParams {
	return MarginParams{Mode: MarginModePortfolio, Portfolio: &p}
}

type marginParamsWire struct {
	MarginMode MarginMode      `json:"margin_mode"`
	Params     json.RawMessage `json:"params"`
}

func (m MarginParams) MarshalJSON() ([]byte, error) {
	var params any
	switch m.Mode {
	case MarginModeSimple:
		if m.Simple == nil {
			return nil, fmt.Errorf("margin params: simple mode without params")
		}
		params = m.Simple
	case MarginModePortfolio:
		if m.Portfolio == nil {
			return nil, fmt.Errorf("margin params: portfolio mode without params")
		}
		params = m.Portfolio
	default:
		return nil, fmt.Errorf("margin params: unknown margin_mode %q", m.Mode)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(marginParamsWire{MarginMode: m.Mode, Params: raw})
}

func (m *MarginParams) UnmarshalJSON(data []byte) error {
	var wire marginParamsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = MarginParams{Mode: wire.MarginMode}
	switch wire.MarginMode {
	case MarginModeSimple:
		m.Simple = new(SimpleMarginParams)
		return json.Unmarshal(wire.Params, m.Simple)
	case MarginModePortfolio:
		m.Portfolio = new(PortfolioMarginParams)
		return json.Unmarshal(wire.Params, m.Portfolio)
	default:
		return fmt.Errorf("margin params: unknown margin_mode %q", wire.MarginMode)
	}
}

// PoolStrategy either reuses a settlement pool or asks for a new one.
type PoolStrategy struct {
	Strategy      PoolStrategyType `json:"strategy"`
	PoolID        *uuid.UUID       `json:"pool_id,omitempty"`
	Name          string           `json:"name,omitempty"`
	CreatorParams *MarginParams    `json:"creator_params,omitempty"`
	OtherParams   *MarginParams    `json:"other_params,omitempty"`
}

func UseExistingPool(poolID uuid.UUID) PoolStrategy {
	return PoolStrategy{Strategy: PoolStrategyUseExisting, PoolID: &poolID}
}

// CreateNewPool names must be 1-50 characters.
func CreateNewPool(name string, creator, other MarginParams) PoolStrategy {
	return PoolStrategy{
		Strategy:      PoolStrategyCreateNew,
		Name:          name,
		CreatorParams: &creator,
		OtherParams:   &other,
	}
}

// Validate checks the fields required by Strategy.
func (p PoolStrategy) Validate() error {
	switch p.Strategy {
	case PoolStrategyUseExisting:
		if p.PoolID == nil || *p.PoolID == uuid.Nil {
			return fmt.Errorf("pool strategy: use_existing requires pool_id")
		}
	case PoolStrategyCreateNew:
		if n := len([]rune(p.Name)); n < 1 || n > 50 {
			return fmt.Errorf("pool strategy: name length must be within [1, 50], got %d", n)
		}
		if p.CreatorParams == nil || p.OtherParams == nil {
			return fmt.Errorf("pool strategy: create_new requires creator_params and other_params")
		}
	default:
		return fmt.Errorf("pool strategy: unknown strategy %q", p.Strategy)
	}
	return nil
}

// Allowance is the spending cap requested in a transfer permit. Base amounts
// are integers in token base units and travel as JSON numbers; decimal amounts
// travel as strings.
type Allowance struct {
	Type  AllowanceType
	Value decimal.Decimal
}

func BaseAllowance(units int64) Allowance {
	return Allowance{Type: AllowanceBase, Value: decimal.NewFromInt(units)}
}

func DecimalAllowance(v decimal.Decimal) Allowance {
	return Allowance{Type: AllowanceDecimal, Value: v}
}

type allowanceWire struct {
	Type  AllowanceType   `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (a Allowance) MarshalJSON() ([]byte, error) {
	var value string
	switch a.Type {
	case AllowanceBase:
		if !a.Value.IsInteger() {
			return nil, fmt.Errorf("allowance: base value %s is not an integer", a.Value)
		}
		value = a.Value.String()
	case AllowanceDecimal:
		quoted, err := json.Marshal(a.Value.String())
		if err != nil {
			return nil, err
		}
		value = string(quoted)
	default:
		return nil, fmt.Errorf("allowance: unknown type %q", a.Type)
	}
	return json.Marshal(allowanceWire{Type: a.Type, Value: json.RawMessage(value)})
}

func (a *Allowance) UnmarshalJSON(data []byte) error {
	var wire allowanceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(wire.Value); err != nil {
		return fmt.Errorf("allowance: decode value: %w", err)
	}
	*a = Allowance{Type: wire.Type, Value: v}
	return nil
}
