package client

import (
	"fmt"

	"github.com/betkit/polytrade/clob/types"
)

// ContractConfig holds the verified contract addresses for one chain.
// Addresses are configuration, not invariants: they are pinned here per
// chain id and can be overridden at construction for test deployments.
type ContractConfig struct {
	Exchange          string // standard exchange
	NegRiskExchange   string // neg-risk exchange variant
	NegRiskAdapter    string // neg-risk wrapper over the conditional tokens
	Collateral        string // collateral token (USDC)
	ConditionalTokens string // outcome-token contract, also the support contract collateral approvals target
	ProxyFactory      string // deterministic proxy account factory
	ExplorerTx        string // block explorer tx URL prefix
}

const (
	// FixedPointDecimals is the scale of on-chain order amounts.
	FixedPointDecimals = 18

	// CollateralTokenDecimals is the collateral token's own scale,
	// used for balance and allowance comparisons.
	CollateralTokenDecimals = 6

	// ConditionalTokenDecimals is the outcome-token scale.
	ConditionalTokenDecimals = 6
)

// PolygonMainnetContracts are the Polygon mainnet addresses.
var PolygonMainnetContracts = ContractConfig{
	Exchange:          "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
	NegRiskExchange:   "0xC5d563A36AE78145C45a50134d48A1215220f80a",
	NegRiskAdapter:    "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296",
	Collateral:        "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
	ConditionalTokens: "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045",
	ProxyFactory:      "0xaB45c5A4B0c941a2F231C04C3f49182e1A254052",
	ExplorerTx:        "https://polygonscan.com/tx/",
}

// AmoyTestnetContracts are the Amoy testnet addresses.
var AmoyTestnetContracts = ContractConfig{
	Exchange:          "0xdFE02Eb6733538f8Ea35D585af8DE5958AD99E40",
	NegRiskExchange:   "0xC5d563A36AE78145C45a50134d48A1215220f80a",
	NegRiskAdapter:    "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296",
	Collateral:        "0x9c4e1703476e875070ee25b56a58b008cfb8fa78",
	ConditionalTokens: "0x69308FB512518e39F9b16112fA8d994F4e2Bf8bB",
	ProxyFactory:      "0xaB45c5A4B0c941a2F231C04C3f49182e1A254052",
	ExplorerTx:        "https://amoy.polygonscan.com/tx/",
}

// GetContractConfig returns the address set for a chain id.
func GetContractConfig(chainID types.Chain) (*ContractConfig, error) {
	switch chainID {
	case types.ChainPolygon:
		cfg := PolygonMainnetContracts
		return &cfg, nil
	case types.ChainAmoy:
		cfg := AmoyTestnetContracts
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unsupported chain id: %d", chainID)
	}
}

// Venue is the capability interface over exchange variants. Each
// implementation is fixed; selection happens once through the registry,
// never by inspecting types at runtime.
type Venue interface {
	// Name is the registry key.
	Name() string
	// ExchangeAddress picks the verifying exchange contract.
	ExchangeAddress(cfg *ContractConfig) string
	// OperatorAddresses lists the contracts that need outcome-token
	// operator approval for orders to settle on this venue.
	OperatorAddresses(cfg *ContractConfig) []string
	// DefaultFeeRateBps is the venue's static fee schedule.
	DefaultFeeRateBps() int64
}

type ctfVenue struct{}

func (ctfVenue) Name() string { return "ctf" }
func (ctfVenue) ExchangeAddress(cfg *ContractConfig) string {
	return cfg.Exchange
}
func (ctfVenue) OperatorAddresses(cfg *ContractConfig) []string {
	return []string{cfg.Exchange}
}
func (ctfVenue) DefaultFeeRateBps() int64 { return 0 }

type negRiskVenue struct{}

func (negRiskVenue) Name() string { return "neg-risk" }
func (negRiskVenue) ExchangeAddress(cfg *ContractConfig) string {
	return cfg.NegRiskExchange
}
func (negRiskVenue) OperatorAddresses(cfg *ContractConfig) []string {
	return []string{cfg.NegRiskExchange, cfg.NegRiskAdapter}
}
func (negRiskVenue) DefaultFeeRateBps() int64 { return 0 }

// venueRegistry holds the fixed venue implementations.
var venueRegistry = map[string]Venue{
	"ctf":      ctfVenue{},
	"neg-risk": negRiskVenue{},
}

// VenueFor looks a venue up by name.
func VenueFor(name string) (Venue, error) {
	v, ok := venueRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown venue %q", name)
	}
	return v, nil
}
