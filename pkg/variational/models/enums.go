package models

// ApiRole is the permission level attached to an API key.
type ApiRole string

const (
	ApiRoleReader ApiRole = "reader"
	ApiRoleWriter ApiRole = "writer"
)

// AllowanceType selects how an allowance value is interpreted.
type AllowanceType string

const (
	AllowanceBase    AllowanceType = "base"
	AllowanceDecimal AllowanceType = "decimal"
)

// DexNetworkID identifies the chain a DEX token lives on.
type DexNetworkID string

const (
	DexNetworkETH    DexNetworkID = "eth"
	DexNetworkBSC    DexNetworkID = "bsc"
	DexNetworkSolana DexNetworkID = "solana"
)

type ExerciseType string

const (
	ExerciseEuropean ExerciseType = "european"
	ExerciseAmerican ExerciseType = "american"
)

// InstrumentType discriminates the Instrument union.
type InstrumentType string

const (
	InstrumentSpot            InstrumentType = "spot"
	InstrumentDatedFuture     InstrumentType = "dated_future"
	InstrumentPerpetualFuture InstrumentType = "perpetual_future"
	InstrumentVanillaOption   InstrumentType = "vanilla_option"
)

// MarginMode discriminates the MarginParams union.
type MarginMode string

const (
	MarginModeSimple    MarginMode = "simple"
	MarginModePortfolio MarginMode = "portfolio"
)

type PayoffType string

const (
	PayoffPut  PayoffType = "put"
	PayoffCall PayoffType = "call"
)

// PoolStrategyType discriminates the PoolStrategy union.
type PoolStrategyType string

const (
	PoolStrategyUseExisting PoolStrategyType = "use_existing"
	PoolStrategyCreateNew   PoolStrategyType = "create_new"
)

type RFQStatus string

const (
	RFQStatusOpen     RFQStatus = "open"
	RFQStatusExpired  RFQStatus = "expired"
	RFQStatusCanceled RFQStatus = "canceled"
	RFQStatusClosed   RFQStatus = "closed"
)

// RequestAction is the maker's answer during last look.
type RequestAction string

const (
	RequestReject RequestAction = "reject"
	RequestAccept RequestAction = "accept"
)

type SettlementPoolStatus string

const (
	SettlementPoolOpen     SettlementPoolStatus = "open"
	SettlementPoolPending  SettlementPoolStatus = "pending"
	SettlementPoolCanceled SettlementPoolStatus = "canceled"
)

// IsFinal reports whether the pool can no longer change status.
func (s SettlementPoolStatus) IsFinal() bool {
	return s == SettlementPoolOpen || s == SettlementPoolCanceled
}

type TradeRole string

const (
	TradeRoleMaker TradeRole = "maker"
	TradeRoleTaker TradeRole = "taker"
)

type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

type TradeType string

const (
	TradeTypeTrade       TradeType = "trade"
	TradeTypeSettlement  TradeType = "settlement"
	TradeTypeLiquidation TradeType = "liquidation"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferFailed    TransferStatus = "failed"
	TransferConfirmed TransferStatus = "confirmed"
)

// IsFinal reports whether the transfer has settled either way.
func (s TransferStatus) IsFinal() bool {
	return s == TransferConfirmed || s == TransferFailed
}

type TransferType string

const (
	TransferPremium       TransferType = "premium"
	TransferDeposit       TransferType = "deposit"
	TransferWithdrawal    TransferType = "withdrawal"
	TransferSettlement    TransferType = "settlement"
	TransferLiquidation   TransferType = "liquidation"
	TransferRealizedPnL   TransferType = "realized_pnl"
	TransferInitialMargin TransferType = "initial_margin"
)
