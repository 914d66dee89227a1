package restapi

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multisend/internal/domain/entity"
)

func sessionWallet() entity.WalletInfo {
	return entity.WalletInfo{
		WalletCandidate: entity.WalletCandidate{ID: "w1", Chain: entity.ChainAccountModel},
		Address:         "addr1",
		Tokens: []entity.TokenEntry{
			{ID: "t1", Kind: entity.TokenNative, RawAmount: big.NewInt(100), Decimals: 2, Formatted: "1", Selected: true},
			{ID: "t2", Kind: entity.TokenAccountModel, RawAmount: big.NewInt(0), Decimals: 2, Formatted: "0", Status: "zero balance"},
		},
	}
}

func TestSessionSelection(t *testing.T) {
	s := NewSession()
	s.ReplaceWallets([]entity.WalletInfo{sessionWallet()})

	t.Run("deselect and reselect a funded token", func(t *testing.T) {
		require.NoError(t, s.SetSelection("w1", "t1", false))
		assert.False(t, s.Wallets()[0].Tokens[0].Selected)
		require.NoError(t, s.SetSelection("w1", "t1", true))
		assert.True(t, s.Wallets()[0].Tokens[0].Selected)
	})

	t.Run("zero-balance token cannot be selected", func(t *testing.T) {
		err := s.SetSelection("w1", "t2", true)
		assert.Error(t, err)
		assert.False(t, s.Wallets()[0].Tokens[1].Selected)
	})

	t.Run("unknown wallet and token", func(t *testing.T) {
		assert.Error(t, s.SetSelection("nope", "t1", true))
		assert.Error(t, s.SetSelection("w1", "nope", true))
	})
}

func TestSessionApplyBalance(t *testing.T) {
	s := NewSession()
	s.ReplaceWallets([]entity.WalletInfo{sessionWallet()})

	s.ApplyBalance("w1", "t1", big.NewInt(0))

	token := s.Wallets()[0].Tokens[0]
	assert.Zero(t, token.RawAmount.Sign())
	assert.Equal(t, "0", token.Formatted)
	assert.False(t, token.Selected)
}

func TestSessionWalletsReturnsCopy(t *testing.T) {
	t.Run("wallet fields", func(t *testing.T) {
		s := NewSession()
		s.ReplaceWallets([]entity.WalletInfo{sessionWallet()})

		wallets := s.Wallets()
		wallets[0].Address = "mutated"
		assert.Equal(t, "addr1", s.Wallets()[0].Address)
	})

	t.Run("token slices do not alias the session", func(t *testing.T) {
		s := NewSession()
		s.ReplaceWallets([]entity.WalletInfo{sessionWallet()})

		before := s.Wallets()
		s.ApplyBalance("w1", "t1", big.NewInt(0))
		assert.Equal(t, int64(100), before[0].Tokens[0].RawAmount.Int64())
		assert.True(t, before[0].Tokens[0].Selected)

		after := s.Wallets()
		after[0].Tokens[0].Formatted = "mutated"
		assert.Equal(t, "0", s.Wallets()[0].Tokens[0].Formatted)
	})
}

// Readers hold wallet snapshots while confirmed transfers rewrite balances;
// the snapshots must stay safe to read concurrently.
func TestSessionConcurrentReadsDuringBalanceUpdates(t *testing.T) {
	s := NewSession()
	s.ReplaceWallets([]entity.WalletInfo{sessionWallet()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.ApplyBalance("w1", "t1", big.NewInt(int64(i)))
		}
	}()

	for i := 0; i < 200; i++ {
		for _, wallet := range s.Wallets() {
			for _, token := range wallet.Tokens {
				_ = token.RawAmount.Sign()
				_ = token.Formatted
			}
		}
	}
	<-done
}

func TestSessionLogCap(t *testing.T) {
	s := NewSession()
	for i := 0; i < maxLogEntries+50; i++ {
		s.AppendLog(fmt.Sprintf("entry %d", i))
	}
	logs := s.Logs()
	require.Len(t, logs, maxLogEntries)
	assert.Equal(t, "entry 50", logs[0])
}
