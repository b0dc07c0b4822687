package http

import "github.com/shopspring/decimal"

// Money leaves the API as fixed two-decimal strings. Requests accept JSON
// numbers or strings.

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Sum     string `json:"sum,omitempty"`
}

type RegisterTrackRequest struct {
	Title           string          `json:"title"`
	DurationSeconds int             `json:"duration_seconds"`
	Genre           string          `json:"genre"`
	NFTID           string          `json:"nft_id,omitempty"`
	PayoutAmount    decimal.Decimal `json:"payout_amount"`
	RatePerStream   decimal.Decimal `json:"rate_per_stream"`
}

type TrackDTO struct {
	TrackID          string `json:"track_id"`
	Title            string `json:"title"`
	DurationSeconds  int    `json:"duration_seconds"`
	Genre            string `json:"genre"`
	OwnerID          string `json:"owner_id"`
	NFTID            string `json:"nft_id,omitempty"`
	PayoutAmount     string `json:"payout_amount"`
	RatePerStream    string `json:"rate_per_stream,omitempty"`
	ProcessedStreams int64  `json:"processed_streams"`
	CreatedAt        string `json:"created_at"`
}

// UpdateTrackRequest changes only the fields present in the body.
type UpdateTrackRequest struct {
	Title           *string          `json:"title,omitempty"`
	DurationSeconds *int             `json:"duration_seconds,omitempty"`
	Genre           *string          `json:"genre,omitempty"`
	NFTID           *string          `json:"nft_id,omitempty"`
	PayoutAmount    *decimal.Decimal `json:"payout_amount,omitempty"`
	RatePerStream   *decimal.Decimal `json:"rate_per_stream,omitempty"`
}

type ListTracksRequest struct {
	Genre    string
	Search   string
	Page     int
	PageSize int
}

type PaginationDTO struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"has_next"`
}

type TrackListResponse struct {
	Status     string        `json:"status"`
	Data       []TrackDTO    `json:"data"`
	Pagination PaginationDTO `json:"pagination"`
}

type TrackDetailDTO struct {
	TrackDTO
	Splits           []SplitDTO `json:"splits"`
	SplitSum         string     `json:"split_sum"`
	SplitsComplete   bool       `json:"splits_complete"`
	EstimatedEarning string     `json:"estimated_earning"`
}

type TrackResponse struct {
	Status string         `json:"status"`
	Data   TrackDetailDTO `json:"data"`
}

type AddSplitRequest struct {
	UserID     string          `json:"user_id"`
	Percentage decimal.Decimal `json:"percentage"`
}

type UpdateSplitRequest struct {
	Percentage *decimal.Decimal `json:"percentage"`
}

type SplitDTO struct {
	SplitID    string `json:"split_id"`
	TrackID    string `json:"track_id"`
	UserID     string `json:"user_id"`
	Percentage string `json:"percentage"`
	CreatedAt  string `json:"created_at"`
}

type SplitResponse struct {
	Status string   `json:"status"`
	Data   SplitDTO `json:"data"`
}

type SplitStatusResponse struct {
	Status string `json:"status"`
	Data   struct {
		TrackID  string     `json:"track_id"`
		Splits   []SplitDTO `json:"splits"`
		Sum      string     `json:"sum"`
		Complete bool       `json:"complete"`
	} `json:"data"`
}

type StreamEntryRequest struct {
	Platform    string `json:"platform"`
	StreamCount int64  `json:"stream_count"`
	// RecordedOn is YYYY-MM-DD; empty means today.
	RecordedOn string `json:"recorded_on,omitempty"`
	FraudFlag  bool   `json:"fraud_flag"`
}

type RecordStreamsRequest struct {
	Entries []StreamEntryRequest `json:"entries"`
}

type RecordStreamsResponse struct {
	Status string `json:"status"`
	Data   struct {
		RecordIDs       []string `json:"record_ids"`
		BillableStreams int64    `json:"billable_streams"`
	} `json:"data"`
}

type DistributeRequest struct {
	NewBatch bool `json:"new_batch"`
}

type DistributeStreamsRequest struct {
	RatePerStream decimal.Decimal `json:"rate_per_stream"`
}

type DistributionResponse struct {
	RoyaltyID    *string `json:"royalty_id"`
	TrackID      string  `json:"track_id"`
	TotalEarning string  `json:"total_earning"`
	PayoutsCount int     `json:"payouts_count"`
	Message      string  `json:"message"`
}

type RoyaltyDTO struct {
	RoyaltyID        string            `json:"royalty_id"`
	TrackID          string            `json:"track_id"`
	Mode             string            `json:"mode"`
	TotalEarning     string            `json:"total_earning"`
	DistributionDate string            `json:"distribution_date"`
	StreamsFrom      int64             `json:"streams_from,omitempty"`
	StreamsTo        int64             `json:"streams_to,omitempty"`
	RatePerStream    string            `json:"rate_per_stream,omitempty"`
	UserShares       map[string]string `json:"user_shares"`
}

type RoyaltiesResponse struct {
	Status string       `json:"status"`
	Data   []RoyaltyDTO `json:"data"`
}

type WalletDTO struct {
	WalletID          string `json:"wallet_id"`
	UserID            string `json:"user_id"`
	Balance           string `json:"balance"`
	BlockchainAddress string `json:"blockchain_address,omitempty"`
	LastUpdated       string `json:"last_updated"`
}

type WalletResponse struct {
	Status string    `json:"status"`
	Data   WalletDTO `json:"data"`
}

type LinkWalletAddressRequest struct {
	BlockchainAddress string `json:"blockchain_address"`
}

type PayoutDTO struct {
	PayoutID        string `json:"payout_id"`
	WalletID        string `json:"wallet_id"`
	RoyaltyID       string `json:"royalty_id,omitempty"`
	WithdrawalID    string `json:"withdrawal_id,omitempty"`
	Amount          string `json:"amount"`
	Status          string `json:"status"`
	Origin          string `json:"origin"`
	BlockchainTxnID string `json:"blockchain_txn_id,omitempty"`
	TxnDate         string `json:"txn_date"`
}

type PayoutsResponse struct {
	Status string      `json:"status"`
	Data   []PayoutDTO `json:"data"`
}

type PayoutResponse struct {
	Status string    `json:"status"`
	Data   PayoutDTO `json:"data"`
}

type ConfirmPayoutRequest struct {
	TransactionID string `json:"transaction_id"`
}

type WalletSummaryResponse struct {
	Status string `json:"status"`
	Data   struct {
		WalletID        string `json:"wallet_id"`
		TotalPayouts    int    `json:"total_payouts"`
		TotalAmount     string `json:"total_amount"`
		WalletBalance   string `json:"wallet_balance"`
		PendingAmount   string `json:"pending_amount"`
		CompletedAmount string `json:"completed_amount"`
		ConfirmedAmount string `json:"confirmed_amount"`
		FailedAmount    string `json:"failed_amount"`
		Balanced        bool   `json:"balanced"`
	} `json:"data"`
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferDTO struct {
	Status        string `json:"status"`
	WalletAddress string `json:"wallet_address"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type WithdrawResponse struct {
	WithdrawalID string      `json:"withdrawal_id"`
	Message      string      `json:"message"`
	NewBalance   string      `json:"new_balance"`
	Transfer     TransferDTO `json:"transfer"`
	Warning      string      `json:"warning,omitempty"`
}

type PayoutStatusDTO struct {
	StatusID   int64  `json:"status_id"`
	StatusName string `json:"status_name"`
}

type PayoutStatusesResponse struct {
	Status string            `json:"status"`
	Data   []PayoutStatusDTO `json:"data"`
}
