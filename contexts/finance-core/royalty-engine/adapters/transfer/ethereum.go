package transfer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const valueTransferGas = 21000

// EVMClient is the subset of the Ethereum RPC needed to send a value transfer.
type EVMClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
}

type EthereumConfig struct {
	RPCURL        string
	PrivateKeyHex string
	// Decimals converts ledger amounts to base units; 18 pays in wei.
	Decimals int32
}

// EthereumGateway pays withdrawals as native value transfers signed by the
// platform key.
type EthereumGateway struct {
	client   EVMClient
	key      *ecdsa.PrivateKey
	from     common.Address
	decimals int32
	logger   *slog.Logger
}

// DialEthereum connects to cfg.RPCURL and loads the signing key.
func DialEthereum(ctx context.Context, cfg EthereumConfig, logger *slog.Logger) (*EthereumGateway, error) {
	endpoint := strings.TrimSpace(cfg.RPCURL)
	if endpoint == "" {
		return nil, fmt.Errorf("ethereum rpc url required")
	}
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum rpc: %w", err)
	}
	return NewEthereumGateway(client, cfg.PrivateKeyHex, cfg.Decimals, logger)
}

func NewEthereumGateway(client EVMClient, privateKeyHex string, decimals int32, logger *slog.Logger) (*EthereumGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("ethereum client required")
	}
	key, err := gethcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("load transfer key: %w", err)
	}
	if decimals <= 0 {
		decimals = 18
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EthereumGateway{
		client:   client,
		key:      key,
		from:     gethcrypto.PubkeyToAddress(key.PublicKey),
		decimals: decimals,
		logger:   logger,
	}, nil
}

func (g *EthereumGateway) Transfer(ctx context.Context, address string, amount decimal.Decimal) (ports.TransferResult, error) {
	address = strings.TrimSpace(address)
	result := ports.TransferResult{
		Status:        ports.TransferStatusFailed,
		WalletAddress: address,
		Amount:        amount,
	}
	if !common.IsHexAddress(address) {
		return result, fmt.Errorf("invalid wallet address %q", address)
	}
	value := amount.Shift(g.decimals).BigInt()
	if value.Sign() <= 0 {
		return result, errors.New("transfer value must be positive")
	}
	to := common.HexToAddress(address)

	nonce, err := g.client.PendingNonceAt(ctx, g.from)
	if err != nil {
		return result, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return result, fmt.Errorf("suggest gas price: %w", err)
	}
	chainID, err := g.client.ChainID(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch chain id: %w", err)
	}

	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      valueTransferGas,
		GasPrice: gasPrice,
	})
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(chainID), g.key)
	if err != nil {
		return result, fmt.Errorf("sign transfer: %w", err)
	}
	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return result, fmt.Errorf("send transfer: %w", err)
	}

	result.Status = ports.TransferStatusSuccess
	result.TransactionID = signed.Hash().Hex()
	g.logger.Info("ethereum transfer sent",
		"event", "royalty_transfer_sent",
		"module", "finance-core/royalty-engine",
		"layer", "adapter",
		"wallet_address", to.Hex(),
		"amount", amount.StringFixed(2),
		"nonce", nonce,
		"transaction_id", result.TransactionID,
	)
	return result, nil
}
