package commands

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

const maxAddressLength = 255

type LinkWalletAddressCommand struct {
	UserID  string
	Address string
}

type LinkWalletAddressUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u LinkWalletAddressUseCase) Execute(ctx context.Context, cmd LinkWalletAddressCommand) (entities.Wallet, error) {
	logger := application.ResolveLogger(u.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	address := strings.TrimSpace(cmd.Address)
	if userID == "" || address == "" || len(address) > maxAddressLength {
		return entities.Wallet{}, domainerrors.ErrInvalidRequest
	}

	now := resolveNow(u.Clock)
	var wallet entities.Wallet
	err := u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		walletID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		locked, err := tx.FindOrCreateWalletForUpdate(ctx, entities.NewWallet(walletID, userID, now))
		if err != nil {
			return err
		}
		locked.BlockchainAddress = address
		locked.LastUpdated = now
		if err := tx.SaveWallet(ctx, locked); err != nil {
			return err
		}
		wallet = locked
		return nil
	})
	if err != nil {
		return entities.Wallet{}, err
	}

	logger.Info("wallet address linked",
		"event", "royalty_wallet_address_linked",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"wallet_id", wallet.WalletID,
		"user_id", userID,
	)
	return wallet, nil
}
