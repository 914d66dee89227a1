package restapi

import (
	"fmt"
	"math/big"
	"sync"

	"multisend/internal/domain/entity"
	"multisend/internal/pkg/utils"
)

// maxLogEntries caps the in-memory activity log; older entries are dropped.
const maxLogEntries = 500

// Session holds the server's working set: the hydrated wallets of the most
// recent import plus an activity log. State lives only in memory and only
// one batch mutates it at a time, so a single lock is enough.
type Session struct {
	mu      sync.RWMutex
	wallets []entity.WalletInfo
	logs    []string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// ReplaceWallets swaps in a freshly imported wallet set.
func (s *Session) ReplaceWallets(wallets []entity.WalletInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets = wallets
}

// Wallets returns a copy of the wallet set. Token slices are copied too:
// ApplyBalance rewrites entries in place under the lock, so a returned
// wallet must not share its Tokens backing array with the session.
func (s *Session) Wallets() []entity.WalletInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.WalletInfo, len(s.wallets))
	for i, wallet := range s.wallets {
		tokens := make([]entity.TokenEntry, len(wallet.Tokens))
		copy(tokens, wallet.Tokens)
		wallet.Tokens = tokens
		out[i] = wallet
	}
	return out
}

// SetSelection toggles one token's selection. Tokens without a positive
// balance stay unselectable.
func (s *Session) SetSelection(walletID, tokenID string, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for wi := range s.wallets {
		if s.wallets[wi].ID != walletID {
			continue
		}
		for ti := range s.wallets[wi].Tokens {
			token := &s.wallets[wi].Tokens[ti]
			if token.ID != tokenID {
				continue
			}
			if selected && !token.HasBalance() {
				return fmt.Errorf("token %s has no balance to select", tokenID)
			}
			token.Selected = selected
			return nil
		}
		return fmt.Errorf("token %s not found in wallet %s", tokenID, walletID)
	}
	return fmt.Errorf("wallet %s not found", walletID)
}

// AppendLog records one activity log entry.
func (s *Session) AppendLog(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[len(s.logs)-maxLogEntries:]
	}
}

// Logs returns a copy of the activity log.
func (s *Session) Logs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.logs))
	copy(out, s.logs)
	return out
}

// ApplyBalance overwrites one token's balance after a confirmed transfer and
// deselects it once drained.
func (s *Session) ApplyBalance(walletID, tokenID string, rawAmount *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for wi := range s.wallets {
		if s.wallets[wi].ID != walletID {
			continue
		}
		for ti := range s.wallets[wi].Tokens {
			token := &s.wallets[wi].Tokens[ti]
			if token.ID != tokenID {
				continue
			}
			token.RawAmount = new(big.Int).Set(rawAmount)
			token.Formatted = utils.FormatTokenAmount(token.RawAmount, token.Decimals)
			if !token.HasBalance() {
				token.Selected = false
			}
			return
		}
		return
	}
}
