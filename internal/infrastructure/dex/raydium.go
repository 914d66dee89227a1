package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"multisend/internal/app/port"
	"multisend/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wrappedNativeMint is the pseudo-mint the trade API uses for the native
// asset.
const wrappedNativeMint = "So11111111111111111111111111111111111111112"

const tradeAPITxVersion = "V0"

// RaydiumClient quotes account-model swaps through the Raydium trade API.
// The API both computes the route and, when a wallet is supplied, builds the
// serialized transactions for it; signing stays with the caller.
type RaydiumClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// computeResponse is the subset of /compute/swap-base-in we consume. The
// full payload is retained raw because /transaction/swap-base-in wants it
// echoed back verbatim.
type computeResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    struct {
		OutputAmount         string `json:"outputAmount"`
		OtherAmountThreshold string `json:"otherAmountThreshold"`
	} `json:"data"`
}

type transactionResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    []struct {
		Transaction string `json:"transaction"`
	} `json:"data"`
}

// NewRaydiumClient creates a new RaydiumClient.
func NewRaydiumClient(baseURL string, timeout time.Duration, logger *zap.Logger) port.SwapQuoter {
	return &RaydiumClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("RaydiumClient"),
	}
}

// Quote asks the trade API for a swap-base-in quote. With a wallet in the
// request it also fetches the server-built transaction for that wallet.
func (c *RaydiumClient) Quote(ctx context.Context, req entity.SwapQuoteRequest) (entity.SwapQuote, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return entity.SwapQuote{}, fmt.Errorf("amountIn must be positive")
	}
	inputMint := req.InputToken
	if inputMint == "" {
		inputMint = wrappedNativeMint
	}

	quoteURL := fmt.Sprintf("%s/compute/swap-base-in?inputMint=%s&outputMint=%s&amount=%s&slippageBps=%d&txVersion=%s",
		c.baseURL, inputMint, req.OutputToken, req.AmountIn.String(), req.SlippageBps, tradeAPITxVersion)

	c.logger.Debug("Requesting swap quote", zap.String("url", quoteURL))
	rawQuote, err := c.do(ctx, fasthttp.MethodGet, quoteURL, nil)
	if err != nil {
		return entity.SwapQuote{}, err
	}

	var computed computeResponse
	if err := json.Unmarshal(rawQuote, &computed); err != nil {
		return entity.SwapQuote{}, fmt.Errorf("failed to unmarshal quote response: %w", err)
	}
	if !computed.Success {
		return entity.SwapQuote{}, fmt.Errorf("trade API rejected the quote: %s", computed.Msg)
	}

	amountOut, ok := new(big.Int).SetString(computed.Data.OutputAmount, 10)
	if !ok {
		return entity.SwapQuote{}, fmt.Errorf("trade API returned a non-numeric output amount %q", computed.Data.OutputAmount)
	}
	minAmountOut, ok := new(big.Int).SetString(computed.Data.OtherAmountThreshold, 10)
	if !ok {
		minAmountOut = amountOut
	}

	quote := entity.SwapQuote{
		AmountOut:    amountOut,
		MinAmountOut: minAmountOut,
		Venue:        "raydium",
	}

	if req.Wallet != "" {
		unsignedTx, err := c.buildTransaction(ctx, rawQuote, req.Wallet)
		if err != nil {
			return entity.SwapQuote{}, err
		}
		quote.UnsignedTx = unsignedTx
	}
	return quote, nil
}

// buildTransaction posts the raw compute response back to the API, which
// returns base64 transactions ready for signing.
func (c *RaydiumClient) buildTransaction(ctx context.Context, rawQuote []byte, wallet string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"swapResponse": jsoniter.RawMessage(rawQuote),
		"txVersion":    tradeAPITxVersion,
		"wallet":       wallet,
		"wrapSol":      true,
		"unwrapSol":    false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction request: %w", err)
	}

	txURL := c.baseURL + "/transaction/swap-base-in"
	c.logger.Debug("Requesting serialized swap transaction", zap.String("url", txURL), zap.String("wallet", wallet))
	rawTx, err := c.do(ctx, fasthttp.MethodPost, txURL, payload)
	if err != nil {
		return "", err
	}

	var built transactionResponse
	if err := json.Unmarshal(rawTx, &built); err != nil {
		return "", fmt.Errorf("failed to unmarshal transaction response: %w", err)
	}
	if !built.Success || len(built.Data) == 0 {
		return "", fmt.Errorf("trade API returned no transaction: %s", built.Msg)
	}
	return built.Data[0].Transaction, nil
}

func (c *RaydiumClient) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	if body != nil {
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Trade API request failed", zap.String("url", url), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", url, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Trade API request failed (default timeout)", zap.String("url", url), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", url, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Trade API request returned non-OK status",
			zap.String("url", url),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return nil, fmt.Errorf("trade API request to %s failed with status %d", url, resp.StatusCode())
	}

	body = append([]byte(nil), resp.Body()...)
	return body, nil
}
