package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FeeRecordDTO struct {
	RecordID      string `json:"record_id"`
	RoyaltyID     string `json:"royalty_id"`
	TrackID       string `json:"track_id"`
	Mode          string `json:"mode"`
	GrossAmount   string `json:"gross_amount"`
	FeePercent    string `json:"fee_percent"`
	FeeAmount     string `json:"fee_amount"`
	NetAmount     string `json:"net_amount"`
	PayoutsCount  int    `json:"payouts_count"`
	DistributedAt string `json:"distributed_at"`
	SourceEventID string `json:"source_event_id,omitempty"`
}

type TrackFeeHistoryRequest struct {
	TrackID string
	Limit   int
	Offset  int
}

type TrackFeeHistoryResponse struct {
	Status string         `json:"status"`
	Data   []FeeRecordDTO `json:"data"`
}

type FeeReportRequest struct {
	Month string
}

type FeeReportResponse struct {
	Status string `json:"status"`
	Data   struct {
		Month      string `json:"month"`
		Count      int    `json:"count"`
		TotalGross string `json:"total_gross"`
		TotalFee   string `json:"total_fee"`
		TotalNet   string `json:"total_net"`
	} `json:"data"`
}
