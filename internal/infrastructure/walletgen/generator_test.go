package walletgen

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multisend/internal/domain/entity"
	"multisend/internal/infrastructure/rowio"
)

// Published SLIP-0010 ed25519 test vector 1.
func TestDeriveEd25519Vectors(t *testing.T) {
	seed, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)

	cases := []struct {
		path string
		key  string
	}{
		{"m", "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7"},
		{"m/0'", "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3"},
		{"m/0'/1'", "b1d0bad404bf35da785a64ca1ac54b2617211d2777696fbffaf208f746ae84f2"},
		{"m/0'/1'/2'", "92a5b23c0b8a99e37d07df3fb9966917f5d06e02ddbd909c7e184371463e9fc9"},
	}
	for _, tc := range cases {
		key, err := deriveEd25519(seed, tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.key, hex.EncodeToString(key), tc.path)
	}
}

func TestDeriveEd25519RejectsNonHardenedSegments(t *testing.T) {
	seed := make([]byte, 64)
	_, err := deriveEd25519(seed, "m/44'/501'/0'/0")
	assert.Error(t, err)
}

func TestGenerateAccountWallet(t *testing.T) {
	wallet, err := GenerateAccountWallet()
	require.NoError(t, err)

	assert.Equal(t, "SOL-mainnet", wallet.NetworkLabel)
	assert.NotEmpty(t, wallet.Mnemonic)
	assert.Len(t, strings.Fields(wallet.Mnemonic), 12)

	secret, err := base58.Decode(wallet.PrivateKey)
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	public, err := base58.Decode(wallet.Address)
	require.NoError(t, err)
	assert.Equal(t, secret[32:], public)
}

func TestAccountWalletFromMnemonicIsDeterministic(t *testing.T) {
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	first, err := AccountWalletFromMnemonic(mnemonic)
	require.NoError(t, err)
	second, err := AccountWalletFromMnemonic(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
	assert.Equal(t, first.Address, second.Address)
}

func TestGenerateContractWallet(t *testing.T) {
	wallet, err := GenerateContractWallet()
	require.NoError(t, err)

	assert.Equal(t, "BSC", wallet.NetworkLabel)
	assert.Len(t, wallet.PrivateKey, 64)
	assert.True(t, strings.HasPrefix(wallet.Address, "0x"))
	assert.Len(t, wallet.Address, 42)
	assert.Empty(t, wallet.Mnemonic)
}

func TestGenerateCountBounds(t *testing.T) {
	_, err := Generate(entity.ChainAccountModel, 0)
	assert.Error(t, err)
	_, err = Generate(entity.ChainAccountModel, 1001)
	assert.Error(t, err)

	wallets, err := Generate(entity.ChainContractModel, 3)
	require.NoError(t, err)
	assert.Len(t, wallets, 3)
}

func TestExportCSVRoundTripsThroughImporter(t *testing.T) {
	wallets, err := Generate(entity.ChainContractModel, 2)
	require.NoError(t, err)

	rows, problems, err := rowio.ReadRows(strings.NewReader(ExportCSV(wallets)))
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, rows, 2)
	assert.Equal(t, wallets[0].PrivateKey, rows[0].PrivateKey)
}
