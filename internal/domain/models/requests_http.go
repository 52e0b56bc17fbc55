package models

// Requests for the news HTTP endpoints. Defined in domain for consistency and reuse.

// SnapshotPayload mirrors MarketSnapshot for the detect endpoint body.
// Malformed entries are skipped by the detector, not rejected here.
type SnapshotPayload struct {
	Name          string  `json:"name"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	AverageVolume int64   `json:"average_volume"`
	SMAShort      float64 `json:"sma_short"`
	SMALong       float64 `json:"sma_long"`
	High52W       float64 `json:"high_52w"`
	Low52W        float64 `json:"low_52w"`
	High24H       float64 `json:"high_24h"`
	Low24H        float64 `json:"low_24h"`
}

type DetectRequest struct {
	Snapshots map[string]SnapshotPayload `json:"snapshots" validate:"required,min=1"`
}

type RecommendArticle struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type RecommendEvent struct {
	Symbol   string `json:"symbol" validate:"required,ticker"`
	Type     string `json:"type" default:"daily_update"`
	Severity string `json:"severity" default:"low" validate:"oneof=low medium high critical"`
}

type RecommendRequest struct {
	Article RecommendArticle `json:"article"`
	Event   RecommendEvent   `json:"event"`
	K       int              `json:"k" default:"3" validate:"gte=1,lte=10"`
}

type EventsRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,ticker"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}
