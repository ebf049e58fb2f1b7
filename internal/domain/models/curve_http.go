package models

// Requests and response envelopes for the yield curve HTTP endpoint.

type YieldCurveRequest struct {
	Country string `query:"country" json:"country" default:"both" validate:"oneof=us canada both"`
	Date    string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	History bool   `query:"history" json:"history"`
	Period  string `query:"period" json:"period" default:"1m" validate:"oneof=1m 3m 6m 1y 2y"`
}

// YieldCurveResponse is the non-history envelope. A country key is absent
// when that side failed entirely; partial responses are still 200s.
type YieldCurveResponse struct {
	Timestamp      string                         `json:"timestamp"`
	Data           map[string]*YieldCurveSnapshot `json:"data"`
	HistoricalDate string                         `json:"historicalDate,omitempty"`
}

// YieldCurveHistoryResponse is the history=true envelope.
type YieldCurveHistoryResponse struct {
	Timestamp string                    `json:"timestamp"`
	Period    string                    `json:"period"`
	History   map[string][]HistoryEntry `json:"history"`
}
