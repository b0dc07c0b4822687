package transfer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
)

// StubGateway accepts every transfer without moving money. The transaction
// id is derived from the address and amount so repeated calls agree.
type StubGateway struct {
	Logger *slog.Logger
}

func (g StubGateway) Transfer(_ context.Context, address string, amount decimal.Decimal) (ports.TransferResult, error) {
	address = strings.TrimSpace(address)
	sum := sha256.Sum256([]byte(address + "|" + amount.StringFixed(2)))
	txID := "0x" + hex.EncodeToString(sum[:])

	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("stub transfer accepted",
		"event", "royalty_transfer_stubbed",
		"module", "finance-core/royalty-engine",
		"layer", "adapter",
		"wallet_address", address,
		"amount", amount.StringFixed(2),
		"transaction_id", txID,
	)
	return ports.TransferResult{
		Status:        ports.TransferStatusStub,
		WalletAddress: address,
		Amount:        amount,
		TransactionID: txID,
	}, nil
}
