package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"royalties/contexts/finance-core/platform-fee-engine/application"
	"royalties/contexts/finance-core/platform-fee-engine/ports"
	httptransport "royalties/contexts/finance-core/platform-fee-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) TrackHistoryHandler(
	ctx context.Context,
	req httptransport.TrackFeeHistoryRequest,
) (httptransport.TrackFeeHistoryResponse, error) {
	items, err := h.Service.ListTrackHistory(ctx, req.TrackID, req.Limit, req.Offset)
	if err != nil {
		return httptransport.TrackFeeHistoryResponse{}, err
	}
	resp := httptransport.TrackFeeHistoryResponse{
		Status: "success",
		Data:   make([]httptransport.FeeRecordDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func (h Handler) MonthlyReportHandler(
	ctx context.Context,
	req httptransport.FeeReportRequest,
) (httptransport.FeeReportResponse, error) {
	report, err := h.Service.MonthlyReport(ctx, req.Month)
	if err != nil {
		return httptransport.FeeReportResponse{}, err
	}
	resp := httptransport.FeeReportResponse{Status: "success"}
	resp.Data.Month = report.Month
	resp.Data.Count = report.Count
	resp.Data.TotalGross = report.TotalGross.StringFixed(2)
	resp.Data.TotalFee = report.TotalFee.StringFixed(2)
	resp.Data.TotalNet = report.TotalNet.StringFixed(2)
	return resp, nil
}

func toDTO(record ports.FeeRecord) httptransport.FeeRecordDTO {
	return httptransport.FeeRecordDTO{
		RecordID:      record.RecordID,
		RoyaltyID:     record.RoyaltyID,
		TrackID:       record.TrackID,
		Mode:          record.Mode,
		GrossAmount:   record.GrossAmount.StringFixed(2),
		FeePercent:    record.FeePercent.StringFixed(2),
		FeeAmount:     record.FeeAmount.StringFixed(2),
		NetAmount:     record.NetAmount.StringFixed(2),
		PayoutsCount:  record.PayoutsCount,
		DistributedAt: record.DistributedAt.UTC().Format(time.RFC3339),
		SourceEventID: record.SourceEventID,
	}
}
