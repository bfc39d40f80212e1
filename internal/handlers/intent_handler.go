package handlers

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"go-intents/internal/dto"
	"go-intents/internal/intents"
	"go-intents/internal/middleware"
	"go-intents/internal/models"
	"go-intents/internal/repository"
	"go-intents/internal/services"
	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SolutionSubmitter sends packed solutions to a network's entry point
type SolutionSubmitter interface {
	CurrentBlockNumber(ctx context.Context) (*big.Int, error)
	SubmitSolution(ctx context.Context, solution *intents.IntentSolution) (*services.SubmissionReceipt, error)
	SignerAddress() common.Address
}

// NetworkServices resolves the services of a configured network.
// An empty name selects the default network.
type NetworkServices interface {
	Intents(network string) (*services.IntentService, error)
	Submitter(network string) (SolutionSubmitter, error)
	Networks() []string
}

// IntentHandler serves intent encoding and solution submission
type IntentHandler struct {
	networks    NetworkServices
	submissions repository.SubmissionRepository
	logger      *logrus.Logger
}

// NewIntentHandler submissions may be nil
func NewIntentHandler(networks NetworkServices, submissions repository.SubmissionRepository, logger *logrus.Logger) *IntentHandler {
	return &IntentHandler{networks: networks, submissions: submissions, logger: logger}
}

// EncodeIntent builds an intent and returns its encodings
// POST /api/intents/encode
func (h *IntentHandler) EncodeIntent(c *gin.Context) {
	var req dto.EncodeIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.EncodeIntentResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}

	svc, err := h.networks.Intents(req.Network)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.EncodeIntentResponse{Success: false, Error: err.Error()})
		return
	}

	intent, err := svc.BuildIntent(c.Request.Context(), req.Intent)
	if err != nil {
		c.JSON(buildErrorStatus(err), dto.EncodeIntentResponse{Success: false, Error: err.Error()})
		return
	}

	encoded, err := svc.Describe(intent)
	if err != nil {
		c.JSON(buildErrorStatus(err), dto.EncodeIntentResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.EncodeIntentResponse{
		Success:    true,
		Network:    svc.Network(),
		ChainID:    int(svc.ChainID().Int64()),
		EntryPoint: svc.EntryPoint().Hex(),
		Intent:     encoded,
	})
}

// SubmitSolution builds a solution from intent descriptions and submits it
// POST /api/solutions/submit
func (h *IntentHandler) SubmitSolution(c *gin.Context) {
	var req dto.SubmitSolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.SubmitSolutionResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}

	svc, submitter, ok := h.resolve(c, req.Network)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var defaultBlock *big.Int
	if req.BlockNumber == "" {
		n, err := submitter.CurrentBlockNumber(ctx)
		if err != nil {
			c.JSON(http.StatusBadGateway, dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
			return
		}
		defaultBlock = n
	}

	solution, err := svc.BuildSolution(ctx, req, defaultBlock)
	if err != nil {
		c.JSON(buildErrorStatus(err), dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return
	}

	h.respondSolution(c, svc, submitter, solution, req.DryRun)
}

// TransferEth builds the transfer-eth scenario and optionally submits it
// POST /api/scenarios/transfer-eth
func (h *IntentHandler) TransferEth(c *gin.Context) {
	var req dto.TransferEthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.SubmitSolutionResponse{Success: false, Error: "invalid request: " + err.Error()})
		return
	}
	if req.Submit && req.Signature == "" {
		c.JSON(http.StatusBadRequest, dto.SubmitSolutionResponse{Success: false, Error: "signature is required to submit"})
		return
	}

	svc, submitter, ok := h.resolve(c, req.Network)
	if !ok {
		return
	}

	userIntent, err := svc.BuildTransferEthIntent(req)
	if err != nil {
		c.JSON(buildErrorStatus(err), dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return
	}
	solverIntent, err := svc.BuildTransferEthSolverIntent(submitter.SignerAddress(), req)
	if err != nil {
		c.JSON(buildErrorStatus(err), dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return
	}

	blockNumber, ok := h.blockNumber(c, submitter, req.BlockNumber)
	if !ok {
		return
	}

	solution, err := intents.NewIntentSolution(blockNumber, []*intents.UserIntent{userIntent, solverIntent}, nil)
	if err != nil {
		c.JSON(buildErrorStatus(err), dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return
	}
	h.respondSolution(c, svc, submitter, solution, !req.Submit)
}

// GetSubmission returns a stored submission
// GET /api/solutions/:id
func (h *IntentHandler) GetSubmission(c *gin.Context) {
	if h.submissions == nil {
		c.JSON(http.StatusServiceUnavailable, dto.SubmissionResponse{Success: false, Error: "submission storage is not configured"})
		return
	}

	submission, err := h.submissions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.SubmissionResponse{Success: false, Error: "submission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.SubmissionResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.SubmissionResponse{Success: true, Submission: submission})
}

// ListSubmissions returns the latest submissions, optionally for one network.
// tx_hash narrows the result to the submission that sent that transaction.
// GET /api/solutions?network=&limit=&tx_hash=
func (h *IntentHandler) ListSubmissions(c *gin.Context) {
	if h.submissions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "submission storage is not configured"})
		return
	}

	if txHash := c.Query("tx_hash"); txHash != "" {
		submission, err := h.submissions.GetByTxHash(c.Request.Context(), txHash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusOK, gin.H{"success": true, "submissions": []*models.SolutionSubmission{}, "count": 0})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "submissions": []*models.SolutionSubmission{submission}, "count": 1})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.submissions.ListRecent(c.Request.Context(), c.Query("network"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submissions": list, "count": len(list)})
}

// Health GET /health
func (h *IntentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "go-intents",
		"networks": h.networks.Networks(),
	})
}

func (h *IntentHandler) resolve(c *gin.Context, network string) (*services.IntentService, SolutionSubmitter, bool) {
	svc, err := h.networks.Intents(network)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return nil, nil, false
	}
	if claims, ok := middleware.OperatorFromContext(c); ok && !claims.AllowsNetwork(svc.Network()) {
		c.JSON(http.StatusForbidden, dto.SubmitSolutionResponse{Success: false, Error: "token is not valid for network " + svc.Network()})
		return nil, nil, false
	}
	submitter, err := h.networks.Submitter(svc.Network())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return nil, nil, false
	}
	return svc, submitter, true
}

func (h *IntentHandler) blockNumber(c *gin.Context, submitter SolutionSubmitter, raw string) (*big.Int, bool) {
	if raw != "" {
		n, ok := new(big.Int).SetString(raw, 10)
		if !ok || n.Sign() < 0 {
			c.JSON(http.StatusBadRequest, dto.SubmitSolutionResponse{Success: false, Error: "block_number: invalid unsigned integer"})
			return nil, false
		}
		return n, true
	}
	n, err := submitter.CurrentBlockNumber(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return nil, false
	}
	return n, true
}

func (h *IntentHandler) respondSolution(c *gin.Context, svc *services.IntentService, submitter SolutionSubmitter, solution *intents.IntentSolution, dryRun bool) {
	callData, err := solution.Pack()
	if err != nil {
		c.JSON(buildErrorStatus(err), dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
		return
	}

	resp := dto.SubmitSolutionResponse{
		Network:     svc.Network(),
		BlockNumber: solution.BlockNumber().String(),
		CallData:    hexutil.Encode(callData),
	}
	for _, intent := range solution.Intents() {
		encoded, err := svc.Describe(intent)
		if err != nil {
			c.JSON(buildErrorStatus(err), dto.SubmitSolutionResponse{Success: false, Error: err.Error()})
			return
		}
		resp.Intents = append(resp.Intents, *encoded)
	}

	if dryRun {
		resp.Success = true
		c.JSON(http.StatusOK, resp)
		return
	}

	receipt, err := submitter.SubmitSolution(c.Request.Context(), solution)
	if receipt != nil {
		resp.SubmissionID = receipt.SubmissionID
		resp.TxHash = receipt.TxHash.Hex()
		resp.Nonce = receipt.Nonce
		resp.GasLimit = receipt.GasLimit
		resp.MinedBlock = receipt.MinedBlock
		resp.GasUsed = receipt.GasUsed
		resp.Status = string(receipt.Status)
		if receipt.GasPrice != nil {
			resp.GasPrice = receipt.GasPrice.String()
		}
	}
	if err != nil {
		h.logger.WithError(err).WithField("network", svc.Network()).Warn("Solution submission failed")
		resp.Error = err.Error()
		status := http.StatusBadGateway
		if receipt != nil && receipt.Status == models.SubmissionStatusSubmitted {
			status = http.StatusAccepted
		} else if errors.Is(err, services.ErrSolutionReverted) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, resp)
		return
	}

	resp.Success = true
	c.JSON(http.StatusOK, resp)
}

// buildErrorStatus maps encoding-contract violations to 422 and other build
// failures to 400
func buildErrorStatus(err error) int {
	if types.IsEncodingContract(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
