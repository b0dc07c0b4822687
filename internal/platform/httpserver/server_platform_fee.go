package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	feedomainerrors "royalties/contexts/finance-core/platform-fee-engine/domain/errors"
	feehttp "royalties/contexts/finance-core/platform-fee-engine/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerPlatformFeeRoutes(r chi.Router) {
	r.Get("/platform-fees/report", s.handleFeeMonthlyReport)
	r.Get("/platform-fees/tracks/{track_id}", s.handleFeeTrackHistory)
}

func (s *Server) handleFeeMonthlyReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.fees.Handler.MonthlyReportHandler(r.Context(), feehttp.FeeReportRequest{
		Month: r.URL.Query().Get("month"),
	})
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeeTrackHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := feehttp.TrackFeeHistoryRequest{TrackID: chi.URLParam(r, "track_id")}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeFeeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			writeFeeError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		req.Offset = offset
	}

	resp, err := s.fees.Handler.TrackHistoryHandler(r.Context(), req)
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeFeeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feedomainerrors.ErrInvalidInput):
		writeFeeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, feedomainerrors.ErrNotFound):
		writeFeeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, feedomainerrors.ErrEventPayloadConflict),
		errors.Is(err, feedomainerrors.ErrAlreadyRecorded):
		writeFeeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeFeeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeFeeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, feehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
