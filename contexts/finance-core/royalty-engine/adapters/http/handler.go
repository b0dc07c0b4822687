package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/application/queries"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"
	httptransport "royalties/contexts/finance-core/royalty-engine/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	RegisterTrack     commands.RegisterTrackUseCase
	UpdateTrack       commands.UpdateTrackUseCase
	DeleteTrack       commands.DeleteTrackUseCase
	AddSplit          commands.AddSplitUseCase
	UpdateSplit       commands.UpdateSplitUseCase
	RemoveSplit       commands.RemoveSplitUseCase
	RecordStreams     commands.RecordStreamsUseCase
	DistributeFixed   commands.DistributeFixedUseCase
	DistributeStreams commands.DistributeFromStreamsUseCase
	Withdraw          commands.WithdrawUseCase
	ConfirmPayout     commands.ConfirmPayoutUseCase
	LinkWalletAddress commands.LinkWalletAddressUseCase

	GetTrack           queries.GetTrackUseCase
	ListTracks         queries.ListTracksUseCase
	SplitStatus        queries.SplitStatusUseCase
	ListRoyalties      queries.ListRoyaltiesUseCase
	GetWallet          queries.GetWalletUseCase
	GetWalletByUser    queries.GetWalletByUserUseCase
	ListPayouts        queries.ListPayoutsUseCase
	WalletSummary      queries.WalletSummaryUseCase
	ListPayoutStatuses queries.ListPayoutStatusesUseCase

	Logger *slog.Logger
}

func (h Handler) RegisterTrackHandler(
	ctx context.Context,
	ownerID string,
	req httptransport.RegisterTrackRequest,
) (httptransport.TrackResponse, error) {
	track, err := h.RegisterTrack.Execute(ctx, commands.RegisterTrackCommand{
		OwnerID:         ownerID,
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		Genre:           req.Genre,
		NFTID:           req.NFTID,
		PayoutAmount:    req.PayoutAmount,
		RatePerStream:   req.RatePerStream,
	})
	if err != nil {
		return httptransport.TrackResponse{}, err
	}
	return h.GetTrackHandler(ctx, track.TrackID)
}

func (h Handler) GetTrackHandler(ctx context.Context, trackID string) (httptransport.TrackResponse, error) {
	view, err := h.GetTrack.Execute(ctx, trackID)
	if err != nil {
		return httptransport.TrackResponse{}, err
	}
	return httptransport.TrackResponse{
		Status: "success",
		Data: httptransport.TrackDetailDTO{
			TrackDTO:         toTrackDTO(view.Track),
			Splits:           toSplitDTOs(view.Splits),
			SplitSum:         view.SplitSum.StringFixed(2),
			SplitsComplete:   view.SplitsComplete,
			EstimatedEarning: view.EstimatedEarning.StringFixed(2),
		},
	}, nil
}

func (h Handler) ListTracksHandler(
	ctx context.Context,
	ownerID string,
	req httptransport.ListTracksRequest,
) (httptransport.TrackListResponse, error) {
	list, err := h.ListTracks.Execute(ctx, queries.ListTracksQuery{
		OwnerID:  ownerID,
		Genre:    req.Genre,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return httptransport.TrackListResponse{}, err
	}
	resp := httptransport.TrackListResponse{
		Status: "success",
		Data:   make([]httptransport.TrackDTO, 0, len(list.Items)),
		Pagination: httptransport.PaginationDTO{
			Page:     list.Page,
			PageSize: list.PageSize,
			Total:    list.Total,
			HasNext:  list.HasNext(),
		},
	}
	for _, track := range list.Items {
		resp.Data = append(resp.Data, toTrackDTO(track))
	}
	return resp, nil
}

func (h Handler) UpdateTrackHandler(
	ctx context.Context,
	actorID string,
	trackID string,
	req httptransport.UpdateTrackRequest,
) (httptransport.TrackResponse, error) {
	_, err := h.UpdateTrack.Execute(ctx, commands.UpdateTrackCommand{
		TrackID: trackID,
		ActorID: actorID,
		Changes: entities.TrackChanges{
			Title:           req.Title,
			DurationSeconds: req.DurationSeconds,
			Genre:           req.Genre,
			NFTID:           req.NFTID,
			PayoutAmount:    req.PayoutAmount,
			RatePerStream:   req.RatePerStream,
		},
	})
	if err != nil {
		return httptransport.TrackResponse{}, err
	}
	return h.GetTrackHandler(ctx, trackID)
}

func (h Handler) DeleteTrackHandler(ctx context.Context, actorID string, trackID string) error {
	return h.DeleteTrack.Execute(ctx, commands.DeleteTrackCommand{TrackID: trackID, ActorID: actorID})
}

func (h Handler) AddSplitHandler(
	ctx context.Context,
	actorID string,
	trackID string,
	req httptransport.AddSplitRequest,
) (httptransport.SplitResponse, error) {
	split, err := h.AddSplit.Execute(ctx, commands.AddSplitCommand{
		TrackID:    trackID,
		ActorID:    actorID,
		UserID:     req.UserID,
		Percentage: req.Percentage,
	})
	if err != nil {
		return httptransport.SplitResponse{}, err
	}
	return httptransport.SplitResponse{Status: "success", Data: toSplitDTO(split)}, nil
}

func (h Handler) UpdateSplitHandler(
	ctx context.Context,
	actorID string,
	trackID string,
	splitID string,
	req httptransport.UpdateSplitRequest,
) (httptransport.SplitResponse, error) {
	if req.Percentage == nil {
		return httptransport.SplitResponse{}, domainerrors.ErrInvalidRequest
	}
	split, err := h.UpdateSplit.Execute(ctx, commands.UpdateSplitCommand{
		TrackID:    trackID,
		SplitID:    splitID,
		ActorID:    actorID,
		Percentage: *req.Percentage,
	})
	if err != nil {
		return httptransport.SplitResponse{}, err
	}
	return httptransport.SplitResponse{Status: "success", Data: toSplitDTO(split)}, nil
}

func (h Handler) RemoveSplitHandler(ctx context.Context, actorID string, trackID string, splitID string) error {
	return h.RemoveSplit.Execute(ctx, commands.RemoveSplitCommand{
		TrackID: trackID,
		SplitID: splitID,
		ActorID: actorID,
	})
}

func (h Handler) SplitStatusHandler(ctx context.Context, trackID string) (httptransport.SplitStatusResponse, error) {
	status, err := h.SplitStatus.Execute(ctx, trackID)
	if err != nil {
		return httptransport.SplitStatusResponse{}, err
	}
	resp := httptransport.SplitStatusResponse{Status: "success"}
	resp.Data.TrackID = status.TrackID
	resp.Data.Splits = toSplitDTOs(status.Splits)
	resp.Data.Sum = status.Sum.StringFixed(2)
	resp.Data.Complete = status.Complete
	return resp, nil
}

func (h Handler) RecordStreamsHandler(
	ctx context.Context,
	trackID string,
	req httptransport.RecordStreamsRequest,
) (httptransport.RecordStreamsResponse, error) {
	entries := make([]commands.StreamEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		var recordedOn time.Time
		if value := strings.TrimSpace(entry.RecordedOn); value != "" {
			parsed, err := time.Parse(time.DateOnly, value)
			if err != nil {
				return httptransport.RecordStreamsResponse{}, domainerrors.ErrInvalidRequest
			}
			recordedOn = parsed
		}
		entries = append(entries, commands.StreamEntry{
			Platform:    entry.Platform,
			StreamCount: entry.StreamCount,
			RecordedOn:  recordedOn,
			FraudFlag:   entry.FraudFlag,
		})
	}
	result, err := h.RecordStreams.Execute(ctx, commands.RecordStreamsCommand{
		TrackID: trackID,
		Entries: entries,
	})
	if err != nil {
		return httptransport.RecordStreamsResponse{}, err
	}
	resp := httptransport.RecordStreamsResponse{Status: "success"}
	resp.Data.RecordIDs = result.RecordIDs
	resp.Data.BillableStreams = result.StreamCount
	return resp, nil
}

func (h Handler) DistributeFixedHandler(
	ctx context.Context,
	actorID string,
	trackID string,
	req httptransport.DistributeRequest,
) (httptransport.DistributionResponse, error) {
	result, err := h.DistributeFixed.Execute(ctx, commands.DistributeFixedCommand{
		TrackID:  trackID,
		NewBatch: req.NewBatch,
		ActorID:  actorID,
	})
	if err != nil {
		return httptransport.DistributionResponse{}, err
	}
	return toDistributionResponse(result), nil
}

func (h Handler) DistributeStreamsHandler(
	ctx context.Context,
	actorID string,
	trackID string,
	req httptransport.DistributeStreamsRequest,
) (httptransport.DistributionResponse, error) {
	result, err := h.DistributeStreams.Execute(ctx, commands.DistributeFromStreamsCommand{
		TrackID:       trackID,
		RatePerStream: req.RatePerStream,
		ActorID:       actorID,
	})
	if err != nil {
		return httptransport.DistributionResponse{}, err
	}
	return toDistributionResponse(result), nil
}

func (h Handler) ListRoyaltiesHandler(ctx context.Context, trackID string) (httptransport.RoyaltiesResponse, error) {
	items, err := h.ListRoyalties.Execute(ctx, trackID)
	if err != nil {
		return httptransport.RoyaltiesResponse{}, err
	}
	resp := httptransport.RoyaltiesResponse{
		Status: "success",
		Data:   make([]httptransport.RoyaltyDTO, 0, len(items)),
	}
	for _, item := range items {
		shares := make(map[string]string, len(item.UserShares))
		for userID, amount := range item.UserShares {
			shares[userID] = amount.StringFixed(2)
		}
		dto := httptransport.RoyaltyDTO{
			RoyaltyID:        item.Royalty.RoyaltyID,
			TrackID:          item.Royalty.TrackID,
			Mode:             string(item.Royalty.Mode),
			TotalEarning:     item.Royalty.TotalEarning.StringFixed(2),
			DistributionDate: item.Royalty.DistributionDate.UTC().Format(time.RFC3339),
			StreamsFrom:      item.Royalty.StreamsFrom,
			StreamsTo:        item.Royalty.StreamsTo,
			UserShares:       shares,
		}
		if item.Royalty.Mode == entities.RoyaltyModeStreams {
			dto.RatePerStream = item.Royalty.RatePerStream.String()
		}
		resp.Data = append(resp.Data, dto)
	}
	return resp, nil
}

func (h Handler) GetMyWalletHandler(ctx context.Context, userID string) (httptransport.WalletResponse, error) {
	wallet, err := h.GetWalletByUser.Execute(ctx, userID)
	if err != nil {
		return httptransport.WalletResponse{}, err
	}
	return httptransport.WalletResponse{Status: "success", Data: toWalletDTO(wallet)}, nil
}

func (h Handler) LinkWalletAddressHandler(
	ctx context.Context,
	userID string,
	req httptransport.LinkWalletAddressRequest,
) (httptransport.WalletResponse, error) {
	wallet, err := h.LinkWalletAddress.Execute(ctx, commands.LinkWalletAddressCommand{
		UserID:  userID,
		Address: req.BlockchainAddress,
	})
	if err != nil {
		return httptransport.WalletResponse{}, err
	}
	return httptransport.WalletResponse{Status: "success", Data: toWalletDTO(wallet)}, nil
}

func (h Handler) GetWalletHandler(ctx context.Context, walletID string) (httptransport.WalletResponse, error) {
	wallet, err := h.GetWallet.Execute(ctx, walletID)
	if err != nil {
		return httptransport.WalletResponse{}, err
	}
	return httptransport.WalletResponse{Status: "success", Data: toWalletDTO(wallet)}, nil
}

func (h Handler) ListPayoutsHandler(ctx context.Context, walletID string) (httptransport.PayoutsResponse, error) {
	payouts, err := h.ListPayouts.Execute(ctx, walletID)
	if err != nil {
		return httptransport.PayoutsResponse{}, err
	}
	resp := httptransport.PayoutsResponse{
		Status: "success",
		Data:   make([]httptransport.PayoutDTO, 0, len(payouts)),
	}
	for _, payout := range payouts {
		resp.Data = append(resp.Data, toPayoutDTO(payout))
	}
	return resp, nil
}

func (h Handler) WalletSummaryHandler(ctx context.Context, walletID string) (httptransport.WalletSummaryResponse, error) {
	summary, err := h.WalletSummary.Execute(ctx, walletID)
	if err != nil {
		return httptransport.WalletSummaryResponse{}, err
	}
	resp := httptransport.WalletSummaryResponse{Status: "success"}
	resp.Data.WalletID = summary.WalletID
	resp.Data.TotalPayouts = summary.TotalPayouts
	resp.Data.TotalAmount = summary.TotalAmount.StringFixed(2)
	resp.Data.WalletBalance = summary.WalletBalance.StringFixed(2)
	resp.Data.PendingAmount = summary.PendingAmount.StringFixed(2)
	resp.Data.CompletedAmount = summary.CompletedAmount.StringFixed(2)
	resp.Data.ConfirmedAmount = summary.ConfirmedAmount.StringFixed(2)
	resp.Data.FailedAmount = summary.FailedAmount.StringFixed(2)
	resp.Data.Balanced = summary.Balanced
	return resp, nil
}

func (h Handler) WithdrawHandler(
	ctx context.Context,
	walletID string,
	req httptransport.WithdrawRequest,
) (httptransport.WithdrawResponse, error) {
	result, err := h.Withdraw.Execute(ctx, commands.WithdrawCommand{
		WalletID: walletID,
		Amount:   req.Amount,
	})
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	return httptransport.WithdrawResponse{
		WithdrawalID: result.WithdrawalID,
		Message:      result.Message,
		NewBalance:   result.NewBalance.StringFixed(2),
		Transfer:     toTransferDTO(result.Transfer),
		Warning:      result.Warning,
	}, nil
}

func (h Handler) ConfirmPayoutHandler(
	ctx context.Context,
	payoutID string,
	req httptransport.ConfirmPayoutRequest,
) (httptransport.PayoutResponse, error) {
	payout, err := h.ConfirmPayout.Execute(ctx, commands.ConfirmPayoutCommand{
		PayoutID:      payoutID,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{Status: "success", Data: toPayoutDTO(payout)}, nil
}

func (h Handler) ListPayoutStatusesHandler(ctx context.Context) (httptransport.PayoutStatusesResponse, error) {
	statuses, err := h.ListPayoutStatuses.Execute(ctx)
	if err != nil {
		return httptransport.PayoutStatusesResponse{}, err
	}
	resp := httptransport.PayoutStatusesResponse{
		Status: "success",
		Data:   make([]httptransport.PayoutStatusDTO, 0, len(statuses)),
	}
	for _, status := range statuses {
		resp.Data = append(resp.Data, httptransport.PayoutStatusDTO{
			StatusID:   status.StatusID,
			StatusName: string(status.StatusName),
		})
	}
	return resp, nil
}

func toTrackDTO(track entities.Track) httptransport.TrackDTO {
	dto := httptransport.TrackDTO{
		TrackID:          track.TrackID,
		Title:            track.Title,
		DurationSeconds:  track.DurationSeconds,
		Genre:            track.Genre,
		OwnerID:          track.OwnerID,
		NFTID:            track.NFTID,
		PayoutAmount:     track.PayoutAmount.StringFixed(2),
		ProcessedStreams: track.ProcessedStreams,
		CreatedAt:        track.CreatedAt.UTC().Format(time.RFC3339),
	}
	if track.RatePerStream.IsPositive() {
		dto.RatePerStream = track.RatePerStream.String()
	}
	return dto
}

func toSplitDTO(split entities.Split) httptransport.SplitDTO {
	return httptransport.SplitDTO{
		SplitID:    split.SplitID,
		TrackID:    split.TrackID,
		UserID:     split.UserID,
		Percentage: formatPercentage(split.Percentage),
		CreatedAt:  split.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// formatPercentage keeps two decimals for whole-cent values and the full
// precision otherwise.
func formatPercentage(p decimal.Decimal) string {
	if entities.IsCents(p) {
		return p.StringFixed(2)
	}
	return p.String()
}

func toSplitDTOs(splits []entities.Split) []httptransport.SplitDTO {
	items := make([]httptransport.SplitDTO, 0, len(splits))
	for _, split := range splits {
		items = append(items, toSplitDTO(split))
	}
	return items
}

func toDistributionResponse(result commands.DistributionResult) httptransport.DistributionResponse {
	resp := httptransport.DistributionResponse{
		TrackID:      result.TrackID,
		TotalEarning: result.TotalEarning.StringFixed(2),
		PayoutsCount: result.PayoutsCount,
		Message:      result.Message,
	}
	if result.Distributed() {
		royaltyID := result.RoyaltyID
		resp.RoyaltyID = &royaltyID
	}
	return resp
}

func toWalletDTO(wallet entities.Wallet) httptransport.WalletDTO {
	return httptransport.WalletDTO{
		WalletID:          wallet.WalletID,
		UserID:            wallet.UserID,
		Balance:           wallet.Balance.StringFixed(2),
		BlockchainAddress: wallet.BlockchainAddress,
		LastUpdated:       wallet.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func toPayoutDTO(payout entities.Payout) httptransport.PayoutDTO {
	return httptransport.PayoutDTO{
		PayoutID:        payout.PayoutID,
		WalletID:        payout.WalletID,
		RoyaltyID:       payout.RoyaltyID,
		WithdrawalID:    payout.WithdrawalID,
		Amount:          payout.Amount.StringFixed(2),
		Status:          string(payout.Status),
		Origin:          string(payout.Origin),
		BlockchainTxnID: payout.BlockchainTxnID,
		TxnDate:         payout.TxnDate.UTC().Format(time.RFC3339),
	}
}

func toTransferDTO(transfer ports.TransferResult) httptransport.TransferDTO {
	return httptransport.TransferDTO{
		Status:        string(transfer.Status),
		WalletAddress: transfer.WalletAddress,
		Amount:        transfer.Amount.StringFixed(2),
		TransactionID: transfer.TransactionID,
	}
}
