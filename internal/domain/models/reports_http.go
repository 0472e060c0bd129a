package models

// Requests for reporting HTTP endpoints. Defined in domain for consistency and reuse.

type AnomaliesRequest struct {
	Country  string `query:"country" json:"country" validate:"omitempty,min=2,max=12"`
	OnlyHits bool   `query:"only_hits" json:"only_hits"`
	Limit    int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=20000"`
}

type QualityRequest struct {
	Country string `query:"country" json:"country" validate:"omitempty,min=2,max=12"`
}

type ForecastRequest struct {
	Country string `query:"country" json:"country" validate:"omitempty,min=2,max=12"`
	Horizon int    `query:"horizon" json:"horizon" validate:"gte=0,lte=6"`
}
