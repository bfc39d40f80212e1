package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"go-intents/internal/config"
	"go-intents/internal/events"
	"go-intents/internal/intents"
	"go-intents/internal/metrics"
	"go-intents/internal/models"
	"go-intents/internal/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -destination=../mocks/mock_chain_client.go -package=mocks go-intents/internal/services ChainClient

var (
	// ErrSolutionReverted is returned when handleIntents was mined with a failed status
	ErrSolutionReverted = errors.New("solution transaction reverted")
	// ErrSenderMismatch is returned when the signed transaction does not recover to the signer address
	ErrSenderMismatch = errors.New("signed transaction sender mismatch")
)

var defaultGasPrice = big.NewInt(5_000_000_000) // 5 gwei

// ChainClient is the subset of ethclient.Client used to submit solutions
type ChainClient interface {
	// bind.DeployBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)

	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// TransactionSigner signs transaction hashes. Implemented by signer.PrivateKeySigner and signer.KMSSigner.
type TransactionSigner interface {
	Name() string
	Address() common.Address
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

// SubmissionRecorder persists submission progress
type SubmissionRecorder interface {
	Create(ctx context.Context, submission *models.SolutionSubmission) error
	Save(ctx context.Context, submission *models.SolutionSubmission) error
}

// SubmissionReceipt is the outcome of SubmitSolution
type SubmissionReceipt struct {
	SubmissionID string                  `json:"submission_id"`
	TxHash       common.Hash             `json:"tx_hash"`
	Nonce        uint64                  `json:"nonce"`
	GasPrice     *big.Int                `json:"gas_price"`
	GasLimit     uint64                  `json:"gas_limit"`
	MinedBlock   uint64                  `json:"mined_block,omitempty"`
	GasUsed      uint64                  `json:"gas_used,omitempty"`
	Status       models.SubmissionStatus `json:"status"`
}

// BlockchainTransactionService submits intent solutions to one entry point deployment
type BlockchainTransactionService struct {
	network    string
	cfg        config.NetworkConfig
	chainID    *big.Int
	chainLabel string
	entryPoint common.Address
	client     ChainClient
	signer     TransactionSigner
	recorder   SubmissionRecorder
	events     *events.SolutionEmitter
}

// NewBlockchainTransactionService wires a network's client and signer.
// recorder and emitter may be nil.
func NewBlockchainTransactionService(network string, cfg config.NetworkConfig, client ChainClient, signer TransactionSigner, recorder SubmissionRecorder, emitter *events.SolutionEmitter) (*BlockchainTransactionService, error) {
	if client == nil || signer == nil {
		return nil, fmt.Errorf("network %s: client and signer are required", network)
	}
	if !common.IsHexAddress(cfg.EntryPoint) {
		return nil, fmt.Errorf("network %s: invalid entry point address %q", network, cfg.EntryPoint)
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("network %s: chain id must be positive", network)
	}
	return &BlockchainTransactionService{
		network:    network,
		cfg:        cfg,
		chainID:    big.NewInt(int64(cfg.ChainID)),
		chainLabel: strconv.Itoa(cfg.ChainID),
		entryPoint: common.HexToAddress(cfg.EntryPoint),
		client:     client,
		signer:     signer,
		recorder:   recorder,
		events:     emitter,
	}, nil
}

func (b *BlockchainTransactionService) Network() string {
	return b.network
}

func (b *BlockchainTransactionService) ChainID() *big.Int {
	return new(big.Int).Set(b.chainID)
}

func (b *BlockchainTransactionService) EntryPoint() common.Address {
	return b.entryPoint
}

func (b *BlockchainTransactionService) SignerAddress() common.Address {
	return b.signer.Address()
}

// CurrentBlockNumber returns the latest block number
func (b *BlockchainTransactionService) CurrentBlockNumber(ctx context.Context) (*big.Int, error) {
	n, err := b.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get block number: %w", err)
	}
	return new(big.Int).SetUint64(n), nil
}

// RefreshSignerBalance exports the signer balance as a gauge
func (b *BlockchainTransactionService) RefreshSignerBalance(ctx context.Context) (*big.Int, error) {
	balance, err := b.client.BalanceAt(ctx, b.signer.Address(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance: %w", err)
	}
	f, _ := new(big.Float).SetInt(balance).Float64()
	metrics.SignerBalance.WithLabelValues(b.chainLabel, b.signer.Address().Hex()).Set(f)
	return balance, nil
}

// SubmitSolution packs the solution into handleIntents, signs and sends it,
// then waits for the receipt. A mined but reverted transaction returns the
// receipt together with ErrSolutionReverted.
func (b *BlockchainTransactionService) SubmitSolution(ctx context.Context, solution *intents.IntentSolution) (*SubmissionReceipt, error) {
	if solution == nil {
		return nil, fmt.Errorf("solution is nil")
	}
	start := time.Now()

	data, err := solution.Pack()
	if err != nil {
		if types.IsEncodingContract(err) {
			metrics.EncodingViolations.WithLabelValues("pack_solution").Inc()
		}
		return nil, fmt.Errorf("failed to pack solution: %w", err)
	}

	record := &models.SolutionSubmission{
		Network:     b.network,
		ChainID:     b.chainID.Uint64(),
		EntryPoint:  b.entryPoint.Hex(),
		Sender:      b.signer.Address().Hex(),
		Status:      models.SubmissionStatusPending,
		IntentCount: len(solution.Intents()),
		BlockNumber: solution.BlockNumber().Uint64(),
		CallData:    hexutil.Encode(data),
	}
	b.create(ctx, record)

	log := logrus.WithFields(logrus.Fields{
		"network":       b.network,
		"submission_id": record.ID,
		"signer":        b.signer.Name(),
	})

	tx, err := b.buildUnsignedTransaction(ctx, data)
	if err != nil {
		return nil, b.fail(ctx, record, err)
	}
	record.GasLimit = tx.Gas()
	record.GasPrice = tx.GasPrice().String()

	signedTx, err := b.signTransaction(ctx, tx)
	if err != nil {
		return nil, b.fail(ctx, record, err)
	}

	if err := b.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, b.fail(ctx, record, fmt.Errorf("failed to send transaction: %w", err))
	}

	receipt := &SubmissionReceipt{
		SubmissionID: record.ID,
		TxHash:       signedTx.Hash(),
		Nonce:        signedTx.Nonce(),
		GasPrice:     signedTx.GasPrice(),
		GasLimit:     signedTx.Gas(),
		Status:       models.SubmissionStatusSubmitted,
	}
	record.MarkSubmitted(signedTx.Hash().Hex(), signedTx.Nonce())
	b.save(ctx, record)
	b.events.Submitted(b.event(record))
	log.WithFields(logrus.Fields{
		"tx_hash":   receipt.TxHash.Hex(),
		"nonce":     receipt.Nonce,
		"gas_limit": receipt.GasLimit,
		"gas_price": receipt.GasPrice.String(),
	}).Info("Solution transaction sent")

	mined, err := b.waitForReceipt(ctx, signedTx)
	if err != nil {
		// still pending as far as we know; the record keeps the submitted status
		record.LastError = err.Error()
		b.save(ctx, record)
		metrics.SolutionsSubmitted.WithLabelValues(b.chainLabel, "timeout").Inc()
		return receipt, err
	}

	metrics.SolutionSubmitDuration.WithLabelValues(b.chainLabel).Observe(time.Since(start).Seconds())
	metrics.SolutionGasUsed.WithLabelValues(b.chainLabel).Observe(float64(mined.GasUsed))
	receipt.GasUsed = mined.GasUsed
	if mined.BlockNumber != nil {
		receipt.MinedBlock = mined.BlockNumber.Uint64()
	}

	if mined.Status == ethtypes.ReceiptStatusFailed {
		receipt.Status = models.SubmissionStatusFailed
		record.MinedBlock = &receipt.MinedBlock
		record.GasUsed = &receipt.GasUsed
		return receipt, b.fail(ctx, record, fmt.Errorf("%w: %s", ErrSolutionReverted, receipt.TxHash.Hex()))
	}

	receipt.Status = models.SubmissionStatusConfirmed
	record.MarkConfirmed(receipt.MinedBlock, receipt.GasUsed)
	b.save(ctx, record)
	metrics.SolutionsSubmitted.WithLabelValues(b.chainLabel, string(models.SubmissionStatusConfirmed)).Inc()
	b.events.Confirmed(b.event(record))
	log.WithFields(logrus.Fields{
		"tx_hash":     receipt.TxHash.Hex(),
		"mined_block": receipt.MinedBlock,
		"gas_used":    receipt.GasUsed,
	}).Info("Solution confirmed")

	return receipt, nil
}

func (b *BlockchainTransactionService) buildUnsignedTransaction(ctx context.Context, data []byte) (*ethtypes.Transaction, error) {
	from := b.signer.Address()

	nonce, err := b.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := b.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := b.cfg.GasLimit
	if gasLimit == 0 {
		estimated, err := b.client.EstimateGas(ctx, ethereum.CallMsg{
			From: from,
			To:   &b.entryPoint,
			Data: data,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
		gasLimit = estimated * 120 / 100
	}

	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &b.entryPoint,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	}), nil
}

// gasPrice uses the configured price, or the suggested price plus 20%
func (b *BlockchainTransactionService) gasPrice(ctx context.Context) (*big.Int, error) {
	if b.cfg.GasPrice != "" && b.cfg.GasPrice != "auto" {
		price, ok := new(big.Int).SetString(b.cfg.GasPrice, 10)
		if !ok || price.Sign() < 0 {
			return nil, fmt.Errorf("invalid gas price %q", b.cfg.GasPrice)
		}
		return price, nil
	}

	suggested, err := b.client.SuggestGasPrice(ctx)
	if err != nil {
		logrus.WithError(err).WithField("network", b.network).Warn("SuggestGasPrice failed, using default gas price")
		return new(big.Int).Set(defaultGasPrice), nil
	}
	price := new(big.Int).Mul(suggested, big.NewInt(120))
	return price.Div(price, big.NewInt(100)), nil
}

func (b *BlockchainTransactionService) signTransaction(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	txSigner := ethtypes.NewEIP155Signer(b.chainID)
	sigHash := txSigner.Hash(tx)

	signature, err := b.signer.SignHash(ctx, sigHash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with %s: %w", b.signer.Name(), err)
	}

	signedTx, err := tx.WithSignature(txSigner, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to apply signature: %w", err)
	}

	sender, err := ethtypes.Sender(txSigner, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender: %w", err)
	}
	if sender != b.signer.Address() {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrSenderMismatch, b.signer.Address().Hex(), sender.Hex())
	}
	return signedTx, nil
}

func (b *BlockchainTransactionService) waitForReceipt(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	timeout := time.Duration(b.cfg.ReceiptTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, b.client, tx)
	if err != nil {
		return nil, fmt.Errorf("transaction %s not confirmed: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}

func (b *BlockchainTransactionService) fail(ctx context.Context, record *models.SolutionSubmission, err error) error {
	record.MarkFailed(err)
	b.save(ctx, record)
	metrics.SolutionsSubmitted.WithLabelValues(b.chainLabel, string(models.SubmissionStatusFailed)).Inc()
	b.events.Failed(b.event(record))
	logrus.WithError(err).WithFields(logrus.Fields{
		"network":       b.network,
		"submission_id": record.ID,
		"tx_hash":       record.TxHash,
	}).Error("Solution submission failed")
	return err
}

func (b *BlockchainTransactionService) create(ctx context.Context, record *models.SolutionSubmission) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.Create(ctx, record); err != nil {
		logrus.WithError(err).Warn("failed to record solution submission")
	}
}

func (b *BlockchainTransactionService) save(ctx context.Context, record *models.SolutionSubmission) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.Save(ctx, record); err != nil {
		logrus.WithError(err).WithField("submission_id", record.ID).Warn("failed to update solution submission")
	}
}

func (b *BlockchainTransactionService) event(record *models.SolutionSubmission) events.SolutionEvent {
	evt := events.SolutionEvent{
		SubmissionID: record.ID,
		Network:      record.Network,
		ChainID:      record.ChainID,
		EntryPoint:   record.EntryPoint,
		TxHash:       record.TxHash,
		BlockNumber:  record.BlockNumber,
		IntentCount:  record.IntentCount,
		Status:       string(record.Status),
		Error:        record.LastError,
	}
	if record.GasUsed != nil {
		evt.GasUsed = *record.GasUsed
	}
	return evt
}

// DialChainClient connects to the first healthy RPC endpoint of a network
func DialChainClient(ctx context.Context, network string, cfg config.NetworkConfig) (*ethclient.Client, error) {
	if len(cfg.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("network %s has no rpc endpoints", network)
	}

	var lastErr error
	for i, endpoint := range cfg.RPCEndpoints {
		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			lastErr = err
			logrus.WithError(err).WithFields(logrus.Fields{"network": network, "endpoint": i}).Warn("Dial failed")
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		chainID, err := client.ChainID(checkCtx)
		cancel()
		if err != nil {
			lastErr = err
			client.Close()
			logrus.WithError(err).WithFields(logrus.Fields{"network": network, "endpoint": i}).Warn("ChainID check failed")
			continue
		}
		if chainID.Int64() != int64(cfg.ChainID) {
			lastErr = fmt.Errorf("endpoint reports chain id %s, expected %d", chainID, cfg.ChainID)
			client.Close()
			continue
		}

		logrus.WithFields(logrus.Fields{"network": network, "chain_id": cfg.ChainID}).Info("RPC connected")
		return client, nil
	}
	return nil, fmt.Errorf("failed to connect to %s network: %w", network, lastErr)
}
