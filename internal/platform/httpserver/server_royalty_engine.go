package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	royaltydomainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	royaltyhttp "royalties/contexts/finance-core/royalty-engine/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerRoyaltyRoutes(r chi.Router) {
	r.Post("/tracks", s.handleRegisterTrack)
	r.Get("/tracks", s.handleListTracks)
	r.Get("/tracks/{track_id}", s.handleGetTrack)
	r.Patch("/tracks/{track_id}", s.handleUpdateTrack)
	r.Delete("/tracks/{track_id}", s.handleDeleteTrack)
	r.Post("/tracks/{track_id}/splits", s.handleAddSplit)
	r.Get("/tracks/{track_id}/splits", s.handleSplitStatus)
	r.Put("/tracks/{track_id}/splits/{split_id}", s.handleUpdateSplit)
	r.Delete("/tracks/{track_id}/splits/{split_id}", s.handleRemoveSplit)
	r.Post("/tracks/{track_id}/streams", s.handleRecordStreams)
	r.Post("/tracks/{track_id}/distribute", s.handleDistributeFixed)
	r.Post("/tracks/{track_id}/distribute-streams", s.handleDistributeStreams)
	r.Get("/tracks/{track_id}/royalties", s.handleListRoyalties)

	r.Get("/wallets/me", s.handleGetMyWallet)
	r.Put("/wallets/me/address", s.handleLinkWalletAddress)
	r.Get("/wallets/{wallet_id}", s.handleGetWallet)
	r.Get("/wallets/{wallet_id}/payouts", s.handleListPayouts)
	r.Get("/wallets/{wallet_id}/summary", s.handleWalletSummary)
	r.Post("/wallets/{wallet_id}/withdraw", s.handleWithdraw)

	r.Post("/payouts/{payout_id}/confirm", s.handleConfirmPayout)
	r.Get("/payout-statuses", s.handleListPayoutStatuses)
}

// @Summary Register a track
// @Tags tracks
// @Param X-User-Id header string true "owner id"
// @Param body body royaltyhttp.RegisterTrackRequest true "track"
// @Success 201 {object} royaltyhttp.TrackResponse
// @Router /v1/tracks [post]
func (s *Server) handleRegisterTrack(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req royaltyhttp.RegisterTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.RegisterTrackHandler(r.Context(), userID, req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.GetTrackHandler(r.Context(), chi.URLParam(r, "track_id"))
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary List the caller's tracks
// @Tags tracks
// @Param X-User-Id header string true "owner id"
// @Param page query int false "page, starting at 1"
// @Param page_size query int false "items per page, at most 100"
// @Success 200 {object} royaltyhttp.TrackListResponse
// @Router /v1/tracks [get]
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	req := royaltyhttp.ListTracksRequest{
		Genre:  query.Get("genre"),
		Search: query.Get("search"),
	}
	var err error
	if req.Page, err = queryInt(query.Get("page")); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_request", "page must be an integer")
		return
	}
	if req.PageSize, err = queryInt(query.Get("page_size")); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_request", "page_size must be an integer")
		return
	}
	resp, err := s.royalty.Handler.ListTracksHandler(r.Context(), userID, req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateTrack(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req royaltyhttp.UpdateTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.UpdateTrackHandler(r.Context(), userID, chi.URLParam(r, "track_id"), req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.royalty.Handler.DeleteTrackHandler(r.Context(), userID, chi.URLParam(r, "track_id")); err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSplit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req royaltyhttp.AddSplitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.AddSplitHandler(r.Context(), userID, chi.URLParam(r, "track_id"), req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateSplit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req royaltyhttp.UpdateSplitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.UpdateSplitHandler(
		r.Context(),
		userID,
		chi.URLParam(r, "track_id"),
		chi.URLParam(r, "split_id"),
		req,
	)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveSplit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	err := s.royalty.Handler.RemoveSplitHandler(
		r.Context(),
		userID,
		chi.URLParam(r, "track_id"),
		chi.URLParam(r, "split_id"),
	)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSplitStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.SplitStatusHandler(r.Context(), chi.URLParam(r, "track_id"))
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordStreams(w http.ResponseWriter, r *http.Request) {
	var req royaltyhttp.RecordStreamsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.RecordStreamsHandler(r.Context(), chi.URLParam(r, "track_id"), req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// @Summary Distribute a track's fixed payout amount
// @Tags distributions
// @Param X-User-Id header string true "track owner id"
// @Param track_id path string true "track id"
// @Param body body royaltyhttp.DistributeRequest false "options"
// @Success 200 {object} royaltyhttp.DistributionResponse
// @Failure 409 {object} royaltyhttp.ErrorResponse
// @Failure 403 {object} royaltyhttp.ErrorResponse
// @Router /v1/tracks/{track_id}/distribute [post]
func (s *Server) handleDistributeFixed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req royaltyhttp.DistributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.DistributeFixedHandler(r.Context(), userID, chi.URLParam(r, "track_id"), req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistributeStreams(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req royaltyhttp.DistributeStreamsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.DistributeStreamsHandler(r.Context(), userID, chi.URLParam(r, "track_id"), req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRoyalties(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.ListRoyaltiesHandler(r.Context(), chi.URLParam(r, "track_id"))
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMyWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.royalty.Handler.GetMyWalletHandler(r.Context(), userID)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLinkWalletAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req royaltyhttp.LinkWalletAddressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.LinkWalletAddressHandler(r.Context(), userID, req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.GetWalletHandler(r.Context(), chi.URLParam(r, "wallet_id"))
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.ListPayoutsHandler(r.Context(), chi.URLParam(r, "wallet_id"))
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWalletSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.WalletSummaryHandler(r.Context(), chi.URLParam(r, "wallet_id"))
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Withdraw from a wallet
// @Tags wallets
// @Param wallet_id path string true "wallet id"
// @Param body body royaltyhttp.WithdrawRequest true "amount"
// @Success 200 {object} royaltyhttp.WithdrawResponse
// @Failure 422 {object} royaltyhttp.ErrorResponse
// @Router /v1/wallets/{wallet_id}/withdraw [post]
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req royaltyhttp.WithdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.WithdrawHandler(r.Context(), chi.URLParam(r, "wallet_id"), req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirmPayout(w http.ResponseWriter, r *http.Request) {
	var req royaltyhttp.ConfirmPayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.royalty.Handler.ConfirmPayoutHandler(r.Context(), chi.URLParam(r, "payout_id"), req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPayoutStatuses(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.ListPayoutStatusesHandler(r.Context())
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userHeader))
	if userID == "" {
		writeRoyaltyError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeRoyaltyDomainError(w http.ResponseWriter, err error) {
	var incomplete *royaltydomainerrors.IncompleteSplitError
	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusConflict, royaltyhttp.ErrorResponse{
			Code:    "incomplete_split",
			Message: err.Error(),
			Sum:     incomplete.Sum.StringFixed(2),
		})
	case errors.Is(err, royaltydomainerrors.ErrDuplicateDistribution):
		writeRoyaltyError(w, http.StatusConflict, "duplicate_distribution", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrInvalidPayoutTransition):
		writeRoyaltyError(w, http.StatusConflict, "invalid_payout_transition", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrDuplicateSplit):
		writeRoyaltyError(w, http.StatusBadRequest, "duplicate_split", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrTrackHasRoyalties):
		writeRoyaltyError(w, http.StatusConflict, "track_has_royalties", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrNotTrackOwner):
		writeRoyaltyError(w, http.StatusForbidden, "not_track_owner", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrInvalidPercentage):
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_percentage", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrPercentagePrecision):
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_percentage_precision", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrInvalidAmount),
		errors.Is(err, royaltydomainerrors.ErrAmountOutOfRange):
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrInvalidRequest):
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrTrackNotFound):
		writeRoyaltyError(w, http.StatusNotFound, "track_not_found", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrSplitNotFound):
		writeRoyaltyError(w, http.StatusNotFound, "split_not_found", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrWalletNotFound):
		writeRoyaltyError(w, http.StatusNotFound, "wallet_not_found", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrPayoutNotFound):
		writeRoyaltyError(w, http.StatusNotFound, "payout_not_found", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrInsufficientBalance):
		writeRoyaltyError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrExceedsPendingCapacity):
		writeRoyaltyError(w, http.StatusUnprocessableEntity, "exceeds_pending_capacity", err.Error())
	case royaltydomainerrors.Category(err) == royaltydomainerrors.KindState:
		writeRoyaltyError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeRoyaltyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRoyaltyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, royaltyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
