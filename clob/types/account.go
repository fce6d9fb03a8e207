package types

// DeploymentState is the known deployment state of a proxy account.
type DeploymentState int

const (
	DeploymentUnknown DeploymentState = iota
	DeploymentMissing
	DeploymentDeployed
)

func (s DeploymentState) String() string {
	switch s {
	case DeploymentMissing:
		return "not-deployed"
	case DeploymentDeployed:
		return "deployed"
	default:
		return "unknown"
	}
}

// ProxyAccount is the delegated-custody account derived from an owner
// wallet. The address is a pure function of the owner and is valid before
// deployment; State transitions not-deployed -> deployed exactly once.
type ProxyAccount struct {
	Owner   string
	Address string
	State   DeploymentState

	// Nonce is the proxy's on-chain replay counter as last read. It is
	// re-read immediately before every relayed call, never trusted stale.
	Nonce int64
}

// ApprovalStatus holds the three independent needs-approval flags. It is
// always re-derived from chain reads, never mutated in place.
type ApprovalStatus struct {
	// NeedsCollateralSupport: collateral spend approval for the support
	// contract that splits collateral into outcome tokens.
	NeedsCollateralSupport bool
	// NeedsCollateralExchange: collateral spend approval for the exchange.
	NeedsCollateralExchange bool
	// NeedsOutcomeExchange: outcome-token operator approval for the
	// exchange.
	NeedsOutcomeExchange bool
}

// AllApproved reports whether no approval is missing.
func (s ApprovalStatus) AllApproved() bool {
	return !s.NeedsCollateralSupport && !s.NeedsCollateralExchange && !s.NeedsOutcomeExchange
}

// Missing counts the approvals still to grant.
func (s ApprovalStatus) Missing() int {
	n := 0
	if s.NeedsCollateralSupport {
		n++
	}
	if s.NeedsCollateralExchange {
		n++
	}
	if s.NeedsOutcomeExchange {
		n++
	}
	return n
}
