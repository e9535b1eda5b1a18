package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClearingEvent struct {
	RFQID         uuid.UUID      `json:"rfq_id"`
	ParentQuoteID uuid.UUID      `json:"parent_quote_id"`
	Status        ClearingStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	TakerSide     *TradeSide     `json:"taker_side"`
}

type FundingRateParams struct {
	NormalThreshold       decimal.Decimal `json:"normal_threshold"`
	HighThreshold         decimal.Decimal `json:"high_threshold"`
	ExtremeThreshold      decimal.Decimal `json:"extreme_threshold"`
	NormalSlope           decimal.Decimal `json:"normal_slope"`
	HighSlope             decimal.Decimal `json:"high_slope"`
	ExtremeSlope          decimal.Decimal `json:"extreme_slope"`
	MinImbalanceDollars   decimal.Decimal `json:"min_imbalance_dollars"`
	FundingExponentFactor decimal.Decimal `json:"funding_exponent_factor"`
}

// Leg is one instrument of a structure; Ratio is at least 1.
type Leg struct {
	Side       TradeSide  `json:"side"`
	Ratio      int        `json:"ratio"`
	Instrument Instrument `json:"instrument"`
}

type Structure struct {
	Legs []Leg `json:"legs"`
}

type MarginUsage struct {
	InitialMargin     decimal.Decimal `json:"initial_margin"`
	MaintenanceMargin decimal.Decimal `json:"maintenance_margin"`
}

type PoolMarginUsageStats struct {
	Company      uuid.UUID       `json:"company"`
	Balance      decimal.Decimal `json:"balance"`
	MarginParams MarginParams    `json:"margin_params"`
	MarginUsage  MarginUsage     `json:"margin_usage"`
}

type QuoteCommonMetadata struct {
	ParentQuoteID      uuid.UUID       `json:"parent_quote_id"`
	MakerCompany       uuid.UUID       `json:"maker_company"`
	ClearingStatus     *ClearingStatus `json:"clearing_status"`
	ExpiresAt          time.Time       `json:"expires_at"`
	PoolLocation       *uuid.UUID      `json:"pool_location"`
	NewPoolName        *string         `json:"new_pool_name"`
	CreatorParams      *MarginParams   `json:"creator_params"`
	OtherParams        *MarginParams   `json:"other_params"`
	PoolCreatorCompany *uuid.UUID      `json:"pool_creator_company"`
	PoolOtherCompany   *uuid.UUID      `json:"pool_other_company"`
	PoolCreatorParams  *MarginParams   `json:"pool_creator_params"`
	PoolOtherParams    *MarginParams   `json:"pool_other_params"`
	ClearingEvents     []ClearingEvent `json:"clearing_events"`
}

type QuoteWithMarginRequirements struct {
	ParentQuoteID                             uuid.UUID       `json:"parent_quote_id"`
	QuotePrice                                decimal.Decimal `json:"quote_price"`
	CounterFactualMarginRequirements          *MarginUsage    `json:"counter_factual_margin_requirements"`
	ExistingMarginRequirements                *MarginUsage    `json:"existing_margin_requirements"`
	AdditionalMarginRequirements              *MarginUsage    `json:"additional_margin_requirements"`
	MarginRequirementsCounterFactualRequestID uuid.UUID       `json:"margin_requirements_counter_factual_request_id"`
	ExistingMarginRequirementsRequestID       uuid.UUID       `json:"existing_margin_requirements_request_id"`
}

type RFQLeg struct {
	RFQLegID   uuid.UUID       `json:"rfq_leg_id"`
	RFQID      uuid.UUID       `json:"rfq_id"`
	Instrument Instrument      `json:"instrument"`
	Side       TradeSide       `json:"side"`
	Qty        decimal.Decimal `json:"qty"`
}

type SettlementPoolData struct {
	Status                    SettlementPoolStatus `json:"status"`
	PoolName                  string               `json:"pool_name"`
	PoolAddress               *common.Address      `json:"pool_address"`
	CreatorAddress            common.Address       `json:"creator_address"`
	OtherAddress              common.Address       `json:"other_address"`
	Positions                 []AggregatedPosition `json:"positions"`
	CreatorCompanyMarginUsage PoolMarginUsageStats `json:"creator_company_margin_usage"`
	OtherCompanyMarginUsage   PoolMarginUsageStats `json:"other_company_margin_usage"`
}

type StructurePrice struct {
	Price       decimal.Decimal `json:"price"`
	NativePrice decimal.Decimal `json:"native_price"`
	Delta       decimal.Decimal `json:"delta"`
	Gamma       decimal.Decimal `json:"gamma"`
	Theta       decimal.Decimal `json:"theta"`
	Vega        decimal.Decimal `json:"vega"`
	Rho         decimal.Decimal `json:"rho"`
	Timestamp   time.Time       `json:"timestamp"`
}

type Address struct {
	CreatedAt *time.Time     `json:"created_at"`
	Company   uuid.UUID      `json:"company"`
	Address   common.Address `json:"address"`
	Enabled   bool           `json:"enabled"`
}

type Position struct {
	Company       uuid.UUID       `json:"company"`
	PoolLocation  uuid.UUID       `json:"pool_location"`
	Instrument    Instrument      `json:"instrument"`
	UpdatedAt     *time.Time      `json:"updated_at"`
	Qty           decimal.Decimal `json:"qty"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
}

type AggregatedPosition struct {
	Price           decimal.Decimal `json:"price"`
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	IV              decimal.Decimal `json:"iv"`
	SumDelta        decimal.Decimal `json:"sum_delta"`
	SumGamma        decimal.Decimal `json:"sum_gamma"`
	UPnL            decimal.Decimal `json:"upnl"`
	Notional        decimal.Decimal `json:"notional"`
	SumRho          decimal.Decimal `json:"sum_rho"`
	SumTheta        decimal.Decimal `json:"sum_theta"`
	SumVega         decimal.Decimal `json:"sum_vega"`
	PositionInfo    Position        `json:"position_info"`
}

type Asset struct {
	Company      uuid.UUID       `json:"company"`
	PoolLocation uuid.UUID       `json:"pool_location"`
	Asset        string          `json:"asset"`
	Qty          decimal.Decimal `json:"qty"`
}

type AuthContext struct {
	KeyID     uuid.UUID `json:"key_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Role      ApiRole   `json:"role"`
}

type Company struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt *time.Time `json:"created_at"`
	LegalName string     `json:"legal_name"`
	ShortName string     `json:"short_name"`
	IsLP      bool       `json:"is_lp"`
}

type InstrumentPrice struct {
	Price           decimal.Decimal `json:"price"`
	NativePrice     decimal.Decimal `json:"native_price"`
	Delta           decimal.Decimal `json:"delta"`
	Gamma           decimal.Decimal `json:"gamma"`
	Theta           decimal.Decimal `json:"theta"`
	Vega            decimal.Decimal `json:"vega"`
	Rho             decimal.Decimal `json:"rho"`
	IV              decimal.Decimal `json:"iv"`
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	Timestamp       time.Time       `json:"timestamp"`
}

// LegQuote prices one RFQ leg. Ask and bid, when set, are positive.
type LegQuote struct {
	TargetRFQLegID uuid.UUID           `json:"target_rfq_leg_id"`
	Ask            decimal.NullDecimal `json:"ask"`
	Bid            decimal.NullDecimal `json:"bid"`
}

type MakerLastLookResponse struct {
	NewClearingStatus     ClearingStatus  `json:"new_clearing_status"`
	PendingDepositsSumQty decimal.Decimal `json:"pending_deposits_sum_qty"`
	SettlementPoolAddress common.Address  `json:"settlement_pool_address"`
}

type PortfolioSummary struct {
	SumBalance     decimal.Decimal `json:"sum_balance"`
	SumDelta       decimal.Decimal `json:"sum_delta"`
	SumGamma       decimal.Decimal `json:"sum_gamma"`
	SumUPnL        decimal.Decimal `json:"sum_upnl"`
	SumNotional    decimal.Decimal `json:"sum_notional"`
	SumRho         decimal.Decimal `json:"sum_rho"`
	SumTheta       decimal.Decimal `json:"sum_theta"`
	SumVega        decimal.Decimal `json:"sum_vega"`
	SumDollarDelta decimal.Decimal `json:"sum_dollar_delta"`
	SumDollarGamma decimal.Decimal `json:"sum_dollar_gamma"`
}

type Quote struct {
	ParentQuoteID  uuid.UUID           `json:"parent_quote_id"`
	TargetRFQID    uuid.UUID           `json:"target_rfq_id"`
	MakerCompany   uuid.UUID           `json:"maker_company"`
	ExpiresAt      time.Time           `json:"expires_at"`
	AggregatedBid  decimal.NullDecimal `json:"aggregated_bid"`
	AggregatedAsk  decimal.NullDecimal `json:"aggregated_ask"`
	ClearingStatus ClearingStatus      `json:"clearing_status"`
	ClearingEvents []ClearingEvent     `json:"clearing_events"`
	NewPoolName    *string             `json:"new_pool_name"`
	CreatorParams  *MarginParams       `json:"creator_params"`
	OtherParams    *MarginParams       `json:"other_params"`
	PoolLocation   *uuid.UUID          `json:"pool_location"`
	PerLegQuotes   []LegQuote          `json:"per_leg_quotes"`
}

type QuoteAcceptResponse struct {
	PendingDepositsSumQty decimal.Decimal `json:"pending_deposits_sum_qty"`
	PendingSettlementPool *SettlementPool `json:"pending_settlement_pool"`
	NewClearingStatus     ClearingStatus  `json:"new_clearing_status"`
}

// RFQ clearing status stays nil until a quote is accepted.
type RFQ struct {
	RFQID                uuid.UUID                         `json:"rfq_id"`
	CreatedAt            time.Time                         `json:"created_at"`
	ClearingStatus       *ClearingStatus                   `json:"clearing_status"`
	Structure            Structure                         `json:"structure"`
	StructurePrice       *StructurePrice                   `json:"structure_price"`
	RFQExpiresAt         time.Time                         `json:"rfq_expires_at"`
	TakerCompany         uuid.UUID                         `json:"taker_company"`
	RFQStatus            RFQStatus                         `json:"rfq_status"`
	Qty                  decimal.Decimal                   `json:"qty"`
	RFQLegs              []RFQLeg                          `json:"rfq_legs"`
	QuotesCommonMetadata map[uuid.UUID]QuoteCommonMetadata `json:"quotes_common_metadata"`
	Bids                 []QuoteWithMarginRequirements     `json:"bids"`
	Asks                 []QuoteWithMarginRequirements     `json:"asks"`
}

// CurrentClearingStatus returns the clearing status or "" while unset.
func (r RFQ) CurrentClearingStatus() ClearingStatus {
	if r.ClearingStatus == nil {
		return ""
	}
	return *r.ClearingStatus
}

type SettlementPool struct {
	PoolID    uuid.UUID           `json:"pool_id"`
	CompanyID uuid.UUID           `json:"company_id"`
	Data      *SettlementPoolData `json:"data"`
	Error     *string             `json:"error"`
}

// Status returns the pool status or "" when the pool carries no data yet.
func (p SettlementPool) Status() SettlementPoolStatus {
	if p.Data == nil {
		return ""
	}
	return p.Data.Status
}

type Status struct {
	Auth              *AuthContext `json:"auth"`
	ServerTimestampMs int64        `json:"server_timestamp_ms"`
}

// ServerTime converts ServerTimestampMs to a time.Time.
func (s Status) ServerTime() time.Time {
	return time.UnixMilli(s.ServerTimestampMs)
}

type StructurePriceResponse struct {
	Legs      []InstrumentPrice `json:"legs"`
	Structure StructurePrice    `json:"structure"`
}

// SupportedAssetDetails describes a tradable asset. DEX tokens carry
// DexTokenDetails so instruments can be matched against the right token.
type SupportedAssetDetails struct {
	Asset                        string            `json:"asset"`
	AssetName                    string            `json:"asset_name"`
	IsDex                        bool              `json:"is_dex"`
	Address                      *common.Address   `json:"address"`
	Verified                     *bool             `json:"verified"`
	Precision                    int               `json:"precision"`
	LastUpdatedAt                time.Time         `json:"last_updated_at"`
	VariationalFundingRateParams FundingRateParams `json:"variational_funding_rate_params"`
	DexTokenDetails              *DexTokenDetails  `json:"dex_token_details,omitempty"`
}

// SupportedAssets maps an asset symbol to every listing for that symbol.
type SupportedAssets map[string][]SupportedAssetDetails

type Trade struct {
	ID             uuid.UUID       `json:"id"`
	SourceRFQ      *uuid.UUID      `json:"source_rfq"`
	SourceRFQLegID *uuid.UUID      `json:"source_rfq_leg_id"`
	SourceQuote    *uuid.UUID      `json:"source_quote"`
	Company        uuid.UUID       `json:"company"`
	CreatedAt      *time.Time      `json:"created_at"`
	Side           TradeSide       `json:"side"`
	Instrument     Instrument      `json:"instrument"`
	Price          decimal.Decimal `json:"price"`
	Qty            decimal.Decimal `json:"qty"`
	PoolLocation   uuid.UUID       `json:"pool_location"`
	Role           TradeRole       `json:"role"`
	TradeType      TradeType       `json:"trade_type"`
}

type Transfer struct {
	ID                 uuid.UUID       `json:"id"`
	RFQID              *uuid.UUID      `json:"rfq_id"`
	ParentQuoteID      *uuid.UUID      `json:"parent_quote_id"`
	OracleRequestID    *uuid.UUID      `json:"oracle_request_id"`
	CreatedAt          time.Time       `json:"created_at"`
	Company            uuid.UUID       `json:"company"`
	Qty                decimal.Decimal `json:"qty"`
	Asset              string          `json:"asset"`
	TargetPoolLocation uuid.UUID       `json:"target_pool_location"`
	TransferType       TransferType    `json:"transfer_type"`
	Status             TransferStatus  `json:"status"`
}
