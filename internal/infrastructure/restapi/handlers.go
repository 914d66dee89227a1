package restapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"multisend/internal/app/port"
	"multisend/internal/app/service"
	"multisend/internal/domain/entity"
	"multisend/internal/infrastructure/rowio"
	"multisend/internal/infrastructure/walletgen"
)

// Handler wires the HTTP surface to the import/hydrate/transfer engine.
type Handler struct {
	session      *Session
	hydrator     *service.WalletHydrator
	orchestrator *service.BatchOrchestrator
	quoters      map[entity.ChainKind]port.SwapQuoter
	logger       *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(
	hydrator *service.WalletHydrator,
	orchestrator *service.BatchOrchestrator,
	quoters map[entity.ChainKind]port.SwapQuoter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		session:      NewSession(),
		hydrator:     hydrator,
		orchestrator: orchestrator,
		quoters:      quoters,
		logger:       logger.Named("Handler"),
	}
}

type importRequest struct {
	CSV string `json:"csv" binding:"required"`
}

type importResponse struct {
	Wallets  []entity.WalletInfo `json:"wallets"`
	Problems []string            `json:"problems,omitempty"`
	Log      []string            `json:"log"`
}

// ImportWallets parses the posted CSV, groups the rows into unique wallets
// and hydrates them sequentially. The previous session wallet set is
// replaced wholesale.
func (h *Handler) ImportWallets(c *gin.Context) {
	if h.orchestrator.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "a batch run is in progress; import is locked until it finishes"})
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a csv field"})
		return
	}

	rows, problems, err := rowio.ReadRows(strings.NewReader(req.CSV))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidates := service.GroupIntoCandidates(rows, h.session.AppendLog)
	h.logger.Info("Import parsed", zap.Int("rows", len(rows)), zap.Int("wallets", len(candidates)), zap.Int("problems", len(problems)))

	wallets := make([]entity.WalletInfo, 0, len(candidates))
	for _, candidate := range candidates {
		wallets = append(wallets, h.hydrator.Hydrate(c.Request.Context(), candidate, h.session.AppendLog))
	}
	h.session.ReplaceWallets(wallets)

	c.JSON(http.StatusOK, importResponse{
		Wallets:  wallets,
		Problems: problems,
		Log:      h.session.Logs(),
	})
}

// GetWallets returns the current session wallet set and activity log.
func (h *Handler) GetWallets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"wallets": h.session.Wallets(),
		"log":     h.session.Logs(),
	})
}

type selectionRequest struct {
	WalletID string `json:"walletId" binding:"required"`
	TokenID  string `json:"tokenId" binding:"required"`
	Selected bool   `json:"selected"`
}

// SetSelection toggles whether a token participates in the next batch.
func (h *Handler) SetSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "walletId and tokenId are required"})
		return
	}
	if err := h.session.SetSelection(req.WalletID, req.TokenID, req.Selected); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type transferRequest struct {
	Destination string `json:"destination" binding:"required"`
}

// RunTransfers executes the batch against the session wallet set. The call
// blocks until the batch finishes or the client disconnects; disconnecting
// cancels further submissions at the next wallet/token boundary.
func (h *Handler) RunTransfers(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination is required"})
		return
	}

	summary, err := h.orchestrator.Run(
		c.Request.Context(),
		h.session.Wallets(),
		req.Destination,
		h.session.AppendLog,
		h.session.ApplyBalance,
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoDestination), errors.Is(err, service.ErrNothingSelected):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Batch run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"wallets": h.session.Wallets(),
		"log":     h.session.Logs(),
	})
}

// GetRowTemplate serves a CSV skeleton for the import format.
func (h *Handler) GetRowTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="wallets-template.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(rowio.Template()))
}

type generateRequest struct {
	Network string `json:"network" binding:"required"`
	Count   int    `json:"count" binding:"required"`
	Format  string `json:"format"`
}

// GenerateWallets creates fresh keypairs for the requested network family,
// as JSON or as a CSV in the import format.
func (h *Handler) GenerateWallets(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "network and count are required"})
		return
	}
	descriptor, ok := service.ClassifyNetwork(req.Network)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "network label is not supported"})
		return
	}

	wallets, err := walletgen.Generate(descriptor.Chain, req.Count)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("Generated wallets", zap.String("chain", string(descriptor.Chain)), zap.Int("count", len(wallets)))

	if strings.EqualFold(req.Format, "csv") {
		c.Header("Content-Disposition", `attachment; filename="wallets.csv"`)
		c.Data(http.StatusOK, "text/csv", []byte(walletgen.ExportCSV(wallets)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

// QuoteSwap routes a quote request to the venue serving the descriptor's
// chain family.
func (h *Handler) QuoteSwap(c *gin.Context) {
	var req entity.SwapQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed quote request"})
		return
	}
	quoter, ok := h.quoters[req.Descriptor.Chain]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no swap venue for this chain family"})
		return
	}

	quote, err := quoter.Quote(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Swap quote failed", zap.String("descriptor", req.Descriptor.String()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quote)
}
