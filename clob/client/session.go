package client

import (
	"sync"
	"time"

	"github.com/betkit/polytrade/clob/types"
)

// Session carries the per-account state the client accumulates while
// trading: API credentials, the resolved proxy account, and the last
// known approval status. Switching accounts drops all of it.
type Session struct {
	mu sync.RWMutex

	address     string
	accountType types.AccountType

	creds         *types.ApiKeyCreds
	credentialTTL time.Duration

	proxy     *types.ProxyAccount
	approvals *types.ApprovalStatus
}

func NewSession(address string, accountType types.AccountType, credentialTTL time.Duration) *Session {
	return &Session{
		address:       address,
		accountType:   accountType,
		credentialTTL: credentialTTL,
	}
}

func (s *Session) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

func (s *Session) AccountType() types.AccountType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountType
}

// SetAccount switches the session to a new signing account. Cached
// credentials, proxy state and approvals belong to the old account and
// are discarded.
func (s *Session) SetAccount(address string, accountType types.AccountType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address == address && s.accountType == accountType {
		return
	}
	s.address = address
	s.accountType = accountType
	s.creds = nil
	s.proxy = nil
	s.approvals = nil
}

// Creds returns the cached credentials, or nil when absent or stale.
func (s *Session) Creds() *types.ApiKeyCreds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil || s.creds.Stale(s.credentialTTL, time.Now()) {
		return nil
	}
	return s.creds
}

// RawCreds returns whatever credentials are cached regardless of age.
func (s *Session) RawCreds() *types.ApiKeyCreds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *Session) SetCreds(creds *types.ApiKeyCreds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
}

func (s *Session) DropCreds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
}

func (s *Session) Proxy() *types.ProxyAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proxy
}

func (s *Session) SetProxy(p *types.ProxyAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proxy = p
}

func (s *Session) Approvals() *types.ApprovalStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.approvals
}

func (s *Session) SetApprovals(a *types.ApprovalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals = a
}

// FundingAddress is the address that holds collateral and receives
// fills: the proxy when one is in use, otherwise the signing account.
func (s *Session) FundingAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accountType == types.AccountTypeProxy && s.proxy != nil {
		return s.proxy.Address
	}
	return s.address
}
