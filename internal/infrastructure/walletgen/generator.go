package walletgen

import (
	"crypto/ed25519"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strings"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"

	"multisend/internal/domain/entity"
)

// Account-model wallets follow the standard registered coin type so the
// generated keys line up with what browser wallets derive from the same
// mnemonic.
const accountDerivationPath = "m/44'/501'/0'/0'"

const mnemonicEntropyBits = 128

// GeneratedWallet is one freshly created keypair, ready for CSV export in the
// same row shape the importer accepts.
type GeneratedWallet struct {
	NetworkLabel string `json:"network"`
	Address      string `json:"address"`
	PrivateKey   string `json:"privateKey"`
	Mnemonic     string `json:"mnemonic,omitempty"`
}

// GenerateAccountWallet creates a 12-word mnemonic and derives the ed25519
// keypair at the standard path. The returned private key is the 64-byte
// secret (seed plus public key) in base58, the encoding the import path
// expects.
func GenerateAccountWallet() (GeneratedWallet, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return GeneratedWallet{}, fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return GeneratedWallet{}, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	wallet, err := AccountWalletFromMnemonic(mnemonic)
	if err != nil {
		return GeneratedWallet{}, err
	}
	return wallet, nil
}

// AccountWalletFromMnemonic derives the account-model wallet a mnemonic
// corresponds to.
func AccountWalletFromMnemonic(mnemonic string) (GeneratedWallet, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return GeneratedWallet{}, fmt.Errorf("invalid mnemonic: %w", err)
	}
	keyMaterial, err := deriveEd25519(seed, accountDerivationPath)
	if err != nil {
		return GeneratedWallet{}, fmt.Errorf("key derivation failed: %w", err)
	}

	secret := ed25519.NewKeyFromSeed(keyMaterial)
	public := secret.Public().(ed25519.PublicKey)
	return GeneratedWallet{
		NetworkLabel: "SOL-mainnet",
		Address:      base58.Encode(public),
		PrivateKey:   base58.Encode(secret),
		Mnemonic:     mnemonic,
	}, nil
}

// GenerateContractWallet creates a random secp256k1 keypair for the
// contract-model chain. No mnemonic: the hex key itself is the import
// format.
func GenerateContractWallet() (GeneratedWallet, error) {
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		return GeneratedWallet{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return GeneratedWallet{
		NetworkLabel: "BSC",
		Address:      gethcrypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey:   hex.EncodeToString(gethcrypto.FromECDSA(key)),
	}, nil
}

// Generate creates count wallets of the given chain family.
func Generate(kind entity.ChainKind, count int) ([]GeneratedWallet, error) {
	if count <= 0 || count > 1000 {
		return nil, fmt.Errorf("count must be between 1 and 1000, got %d", count)
	}
	wallets := make([]GeneratedWallet, 0, count)
	for i := 0; i < count; i++ {
		var (
			wallet GeneratedWallet
			err    error
		)
		switch kind {
		case entity.ChainAccountModel:
			wallet, err = GenerateAccountWallet()
		case entity.ChainContractModel:
			wallet, err = GenerateContractWallet()
		default:
			return nil, fmt.Errorf("unsupported chain family %q", kind)
		}
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, nil
}

// ExportCSV renders wallets as a CSV the row importer can read back, with
// address and mnemonic columns appended for the user's records.
func ExportCSV(wallets []GeneratedWallet) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"network", "privateKey", "token", "address", "mnemonic"})
	for _, wallet := range wallets {
		_ = w.Write([]string{wallet.NetworkLabel, wallet.PrivateKey, "", wallet.Address, wallet.Mnemonic})
	}
	w.Flush()
	return b.String()
}
