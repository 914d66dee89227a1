package solana

import (
	"context"
	"fmt"
	"math/big"
	"time"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	ata "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/patrickmn/go-cache"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
)

// feeReserveLamports is kept back from every native sweep to cover the
// transaction fee. A single-signature transfer costs 5000 lamports; the
// reserve doubles that for priority-fee headroom.
const feeReserveLamports = 10000

const (
	metadataCacheTTL = 30 * time.Minute
	confirmPollEvery = 2 * time.Second
)

// Adapter implements port.ChainAdapter for the account-model chain. Balances
// live in per-mint token accounts owned by the wallet, which is also what
// makes full holdings enumeration possible here.
type Adapter struct {
	client         *rpc.Client
	env            entity.Environment
	rpcCallTimeout time.Duration
	confirmTimeout time.Duration
	logger         port.Logger
	labelCache     *cache.Cache
	decimalsCache  *cache.Cache
}

// Config carries everything the adapter needs for one environment.
type Config struct {
	RPCURL         string
	Environment    entity.Environment
	RPCCallTimeout time.Duration
	ConfirmTimeout time.Duration
}

// NewAdapter returns a ready adapter. The RPC client is lazy, so no I/O
// happens here.
func NewAdapter(cfg Config, logger port.Logger) *Adapter {
	return &Adapter{
		client:         rpc.New(cfg.RPCURL),
		env:            cfg.Environment,
		rpcCallTimeout: cfg.RPCCallTimeout,
		confirmTimeout: cfg.ConfirmTimeout,
		logger:         logger,
		labelCache:     cache.New(metadataCacheTTL, metadataCacheTTL),
		decimalsCache:  cache.New(metadataCacheTTL, metadataCacheTTL),
	}
}

func (a *Adapter) Kind() entity.ChainKind          { return entity.ChainAccountModel }
func (a *Adapter) Environment() entity.Environment { return a.env }
func (a *Adapter) NativeSymbol() string            { return "SOL" }
func (a *Adapter) NativeDecimals() uint8           { return 9 }

// DeriveAddress decodes a base58 64-byte ed25519 secret key and returns its
// public key in base58.
func (a *Adapter) DeriveAddress(privateKey string) (string, error) {
	key, err := solanago.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	if len(key) != 64 {
		return "", fmt.Errorf("private key must decode to 64 bytes, got %d", len(key))
	}
	return key.PublicKey().String(), nil
}

func (a *Adapter) ValidateDestination(address string) error {
	if _, err := solanago.PublicKeyFromBase58(address); err != nil {
		return port.ErrInvalidDestination
	}
	return nil
}

func (a *Adapter) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	owner, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()

	out, err := a.client.GetBalance(callCtx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("getBalance failed: %w", err)
	}
	return new(big.Int).SetUint64(out.Value), nil
}

// TokenBalance sums every token account the owner holds for the requested
// mint, across both token-program variants. A wallet with no account for the
// mint is reported with Exists=false and a zero amount, not an error.
func (a *Adapter) TokenBalance(ctx context.Context, owner, tokenAddress string) (entity.TokenBalance, error) {
	ownerKey, err := solanago.PublicKeyFromBase58(owner)
	if err != nil {
		return entity.TokenBalance{}, fmt.Errorf("invalid owner address %q: %w", owner, err)
	}
	mint, err := solanago.PublicKeyFromBase58(tokenAddress)
	if err != nil {
		return entity.TokenBalance{}, fmt.Errorf("invalid mint address %q: %w", tokenAddress, err)
	}

	accounts, err := a.tokenAccounts(ctx, ownerKey, &rpc.GetTokenAccountsConfig{Mint: &mint})
	if err != nil {
		return entity.TokenBalance{}, err
	}

	total := uint64(0)
	for _, acct := range accounts {
		total += acct.Amount
	}
	decimals, err := a.mintDecimals(ctx, mint)
	if err != nil {
		return entity.TokenBalance{}, err
	}
	return entity.TokenBalance{
		TokenAddress: tokenAddress,
		Amount:       new(big.Int).SetUint64(total),
		Decimals:     decimals,
		Exists:       len(accounts) > 0,
	}, nil
}

// CanEnumerateHoldings is true: getTokenAccountsByOwner lists every token
// account in one call.
func (a *Adapter) CanEnumerateHoldings() bool { return true }

// EnumerateHoldings lists the owner's fungible balances merged per mint
// across the legacy and 2022 token programs.
func (a *Adapter) EnumerateHoldings(ctx context.Context, owner string) ([]entity.TokenBalance, error) {
	ownerKey, err := solanago.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner address %q: %w", owner, err)
	}

	merged := make(map[solanago.PublicKey]uint64)
	var order []solanago.PublicKey
	for _, program := range []solanago.PublicKey{solanago.TokenProgramID, solanago.Token2022ProgramID} {
		programID := program
		accounts, err := a.tokenAccounts(ctx, ownerKey, &rpc.GetTokenAccountsConfig{ProgramId: &programID})
		if err != nil {
			return nil, err
		}
		for _, acct := range accounts {
			if _, seen := merged[acct.Mint]; !seen {
				order = append(order, acct.Mint)
			}
			merged[acct.Mint] += acct.Amount
		}
	}

	var out []entity.TokenBalance
	for _, mint := range order {
		amount := merged[mint]
		if amount == 0 {
			continue
		}
		decimals, err := a.mintDecimals(ctx, mint)
		if err != nil {
			a.logger.Warn("Could not read mint decimals, skipping holding", "mint", mint.String(), "error", err)
			continue
		}
		out = append(out, entity.TokenBalance{
			TokenAddress: mint.String(),
			Amount:       new(big.Int).SetUint64(amount),
			Decimals:     decimals,
			Exists:       true,
		})
	}
	return out, nil
}

// SendNative sweeps rawAmount minus the fee reserve to the destination.
func (a *Adapter) SendNative(ctx context.Context, privateKey, destination string, rawAmount *big.Int) (entity.TransferReceipt, error) {
	key, err := solanago.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("invalid private key: %w", err)
	}
	dest, err := solanago.PublicKeyFromBase58(destination)
	if err != nil {
		return entity.TransferReceipt{}, port.ErrInvalidDestination
	}

	amount := new(big.Int).Sub(rawAmount, big.NewInt(feeReserveLamports))
	if amount.Sign() <= 0 {
		return entity.TransferReceipt{}, port.ErrInsufficientForFee
	}
	if !amount.IsUint64() {
		return entity.TransferReceipt{}, fmt.Errorf("amount %s exceeds the lamport range", amount)
	}

	instruction := system.NewTransferInstruction(amount.Uint64(), key.PublicKey(), dest).Build()
	sig, err := a.signAndSend(ctx, key, []solanago.Instruction{instruction})
	if err != nil {
		return entity.TransferReceipt{}, err
	}
	return entity.TransferReceipt{TxID: sig.String(), AmountSent: amount}, nil
}

// SendToken transfers the full rawAmount of a mint. When the destination has
// no associated token account yet, its creation is prepended to the same
// transaction so the transfer is atomic with it; the sender pays the rent.
func (a *Adapter) SendToken(ctx context.Context, privateKey, destination, tokenAddress string, rawAmount *big.Int) (entity.TransferReceipt, error) {
	key, err := solanago.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("invalid private key: %w", err)
	}
	dest, err := solanago.PublicKeyFromBase58(destination)
	if err != nil {
		return entity.TransferReceipt{}, port.ErrInvalidDestination
	}
	mint, err := solanago.PublicKeyFromBase58(tokenAddress)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("invalid mint address %q: %w", tokenAddress, err)
	}
	if !rawAmount.IsUint64() {
		return entity.TransferReceipt{}, fmt.Errorf("amount %s exceeds the token amount range", rawAmount)
	}

	sourceAta, _, err := solanago.FindAssociatedTokenAddress(key.PublicKey(), mint)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to derive source token account: %w", err)
	}
	destAta, _, err := solanago.FindAssociatedTokenAddress(dest, mint)
	if err != nil {
		return entity.TransferReceipt{}, fmt.Errorf("failed to derive destination token account: %w", err)
	}

	var instructions []solanago.Instruction
	exists, err := a.accountExists(ctx, destAta)
	if err != nil {
		return entity.TransferReceipt{}, err
	}
	if !exists {
		a.logger.Info("Destination token account missing, creating it", "mint", tokenAddress, "ata", destAta.String())
		instructions = append(instructions, ata.NewCreateInstruction(key.PublicKey(), dest, mint).Build())
	}
	instructions = append(instructions, token.NewTransferInstruction(
		rawAmount.Uint64(),
		sourceAta,
		destAta,
		key.PublicKey(),
		[]solanago.PublicKey{},
	).Build())

	sig, err := a.signAndSend(ctx, key, instructions)
	if err != nil {
		return entity.TransferReceipt{}, err
	}
	return entity.TransferReceipt{TxID: sig.String(), AmountSent: rawAmount}, nil
}

// tokenAccounts fetches and decodes every token account matching the config.
type tokenAccountView struct {
	Mint   solanago.PublicKey
	Amount uint64
}

func (a *Adapter) tokenAccounts(ctx context.Context, owner solanago.PublicKey, conf *rpc.GetTokenAccountsConfig) ([]tokenAccountView, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()

	out, err := a.client.GetTokenAccountsByOwner(callCtx, owner, conf, &rpc.GetTokenAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solanago.EncodingBase64,
	})
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner failed: %w", err)
	}

	views := make([]tokenAccountView, 0, len(out.Value))
	for _, raw := range out.Value {
		var acct token.Account
		if err := bin.NewBinDecoder(raw.Account.Data.GetBinary()).Decode(&acct); err != nil {
			a.logger.Warn("Skipping undecodable token account", "account", raw.Pubkey.String(), "error", err)
			continue
		}
		views = append(views, tokenAccountView{Mint: acct.Mint, Amount: acct.Amount})
	}
	return views, nil
}

// mintDecimals reads (and caches) the decimals field of a mint account.
func (a *Adapter) mintDecimals(ctx context.Context, mint solanago.PublicKey) (uint8, error) {
	if cached, found := a.decimalsCache.Get(mint.String()); found {
		return cached.(uint8), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()

	acc, err := a.client.GetAccountInfo(callCtx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch mint %s: %w", mint.String(), err)
	}
	var mintData token.Mint
	if err := bin.NewBinDecoder(acc.GetBinary()).Decode(&mintData); err != nil {
		return 0, fmt.Errorf("failed to decode mint %s: %w", mint.String(), err)
	}
	a.decimalsCache.Set(mint.String(), mintData.Decimals, cache.DefaultExpiration)
	return mintData.Decimals, nil
}

func (a *Adapter) accountExists(ctx context.Context, account solanago.PublicKey) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancel()

	out, err := a.client.GetAccountInfo(callCtx, account)
	if err != nil {
		if err == rpc.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check account %s: %w", account.String(), err)
	}
	return out != nil && out.Value != nil, nil
}

// signAndSend builds, signs, submits and confirms a transaction made of the
// supplied instructions, with the key as both signer and fee payer.
func (a *Adapter) signAndSend(ctx context.Context, key solanago.PrivateKey, instructions []solanago.Instruction) (solanago.Signature, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.rpcCallTimeout)
	recent, err := a.client.GetLatestBlockhash(callCtx, rpc.CommitmentConfirmed)
	cancel()
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("failed to fetch latest blockhash: %w", err)
	}

	tx, err := solanago.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solanago.TransactionPayer(key.PublicKey()),
	)
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(pub solanago.PublicKey) *solanago.PrivateKey {
		if pub.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	}); err != nil {
		return solanago.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sendCtx, cancelSend := context.WithTimeout(ctx, a.rpcCallTimeout)
	defer cancelSend()
	sig, err := a.client.SendTransactionWithOpts(sendCtx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	if err := a.awaitConfirmation(ctx, sig); err != nil {
		return solanago.Signature{}, err
	}
	return sig, nil
}

// awaitConfirmation polls signature statuses until the transaction reaches
// confirmed commitment or the confirm timeout elapses.
func (a *Adapter) awaitConfirmation(ctx context.Context, sig solanago.Signature) error {
	pollCtx, cancel := context.WithTimeout(ctx, a.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(confirmPollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return fmt.Errorf("transaction %s was not confirmed in time: %w", sig.String(), pollCtx.Err())
		case <-ticker.C:
		}

		out, err := a.client.GetSignatureStatuses(pollCtx, true, sig)
		if err != nil {
			a.logger.Debug("Signature status poll failed, retrying", "signature", sig.String(), "error", err)
			continue
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}
		status := out.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction %s failed on chain: %v", sig.String(), status.Err)
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return nil
		}
	}
}
