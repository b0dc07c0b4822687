package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/domain/services"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
)

type TrackView struct {
	Track            entities.Track
	Splits           []entities.Split
	SplitSum         decimal.Decimal
	SplitsComplete   bool
	EstimatedEarning decimal.Decimal
}

type GetTrackUseCase struct {
	Tracks ports.TrackReader
	Logger *slog.Logger
}

func (uc GetTrackUseCase) Execute(ctx context.Context, trackID string) (TrackView, error) {
	trackID = strings.TrimSpace(trackID)
	track, err := uc.Tracks.GetTrack(ctx, trackID)
	if err != nil {
		return TrackView{}, err
	}
	splits, err := uc.Tracks.ListSplits(ctx, trackID)
	if err != nil {
		return TrackView{}, err
	}
	return TrackView{
		Track:            track,
		Splits:           splits,
		SplitSum:         services.SumPercentages(splits),
		SplitsComplete:   services.ValidateComplete(trackID, splits) == nil,
		EstimatedEarning: services.EstimateEarning(track),
	}, nil
}

const (
	defaultTrackPageSize = 10
	maxTrackPageSize     = 100
)

type ListTracksQuery struct {
	OwnerID string
	Genre   string
	Search  string
	// Page is 1-based; zero means the first page.
	Page     int
	PageSize int
}

type TrackList struct {
	Items    []entities.Track
	Total    int64
	Page     int
	PageSize int
}

// HasNext reports whether a page follows this one.
func (l TrackList) HasNext() bool {
	return int64(l.Page*l.PageSize) < l.Total
}

// ListTracksUseCase pages through tracks newest first. Page sizes above 100
// are clamped.
type ListTracksUseCase struct {
	Tracks ports.TrackReader
	Logger *slog.Logger
}

func (uc ListTracksUseCase) Execute(ctx context.Context, query ListTracksQuery) (TrackList, error) {
	logger := application.ResolveLogger(uc.Logger)
	page := query.Page
	if page == 0 {
		page = 1
	}
	if page < 0 || query.PageSize < 0 {
		return TrackList{}, domainerrors.ErrInvalidRequest
	}
	size := query.PageSize
	switch {
	case size == 0:
		size = defaultTrackPageSize
	case size > maxTrackPageSize:
		size = maxTrackPageSize
	}

	result, err := uc.Tracks.ListTracks(ctx, ports.TrackFilter{
		OwnerID: query.OwnerID,
		Genre:   query.Genre,
		Search:  query.Search,
		Offset:  (page - 1) * size,
		Limit:   size,
	})
	if err != nil {
		return TrackList{}, err
	}
	logger.Debug("tracks listed",
		"event", "royalty_tracks_listed",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"owner_id", query.OwnerID,
		"page", page,
		"count", len(result.Items),
		"total", result.Total,
	)
	return TrackList{
		Items:    result.Items,
		Total:    result.Total,
		Page:     page,
		PageSize: size,
	}, nil
}

type SplitStatus struct {
	TrackID  string
	Splits   []entities.Split
	Sum      decimal.Decimal
	Complete bool
}

// SplitStatusUseCase exposes ValidateComplete to readers. An incomplete set is
// reported in the result, not as an error.
type SplitStatusUseCase struct {
	Tracks ports.TrackReader
	Logger *slog.Logger
}

func (uc SplitStatusUseCase) Execute(ctx context.Context, trackID string) (SplitStatus, error) {
	trackID = strings.TrimSpace(trackID)
	if _, err := uc.Tracks.GetTrack(ctx, trackID); err != nil {
		return SplitStatus{}, err
	}
	splits, err := uc.Tracks.ListSplits(ctx, trackID)
	if err != nil {
		return SplitStatus{}, err
	}
	status := SplitStatus{
		TrackID:  trackID,
		Splits:   splits,
		Sum:      services.SumPercentages(splits),
		Complete: true,
	}
	if err := services.ValidateComplete(trackID, splits); err != nil {
		var incomplete *domainerrors.IncompleteSplitError
		if !errors.As(err, &incomplete) {
			return SplitStatus{}, err
		}
		status.Complete = false
	}
	return status, nil
}

type RoyaltyView struct {
	Royalty    entities.Royalty
	UserShares map[string]decimal.Decimal
}

type ListRoyaltiesUseCase struct {
	Tracks ports.TrackReader
	Logger *slog.Logger
}

func (uc ListRoyaltiesUseCase) Execute(ctx context.Context, trackID string) ([]RoyaltyView, error) {
	logger := application.ResolveLogger(uc.Logger)
	trackID = strings.TrimSpace(trackID)
	if _, err := uc.Tracks.GetTrack(ctx, trackID); err != nil {
		return nil, err
	}
	royalties, err := uc.Tracks.ListRoyalties(ctx, trackID)
	if err != nil {
		return nil, err
	}
	splits, err := uc.Tracks.ListSplits(ctx, trackID)
	if err != nil {
		return nil, err
	}
	items := make([]RoyaltyView, 0, len(royalties))
	for _, royalty := range royalties {
		items = append(items, RoyaltyView{
			Royalty:    royalty,
			UserShares: royalty.UserShares(splits),
		})
	}
	logger.Debug("royalties listed",
		"event", "royalty_royalties_listed",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"count", len(items),
	)
	return items, nil
}
