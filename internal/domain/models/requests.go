package models

// Requests for chart HTTP and websocket endpoints. Defined in domain for consistency and reuse.

type ChartRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=32"`
	Range  string `query:"range" json:"range" default:"3M" validate:"oneof=1M 3M 6M 1Y MAX"`
}

type ExportRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=32"`
	Range  string `query:"range" json:"range" default:"3M" validate:"oneof=1M 3M 6M 1Y MAX"`
	Format string `query:"format" json:"format" default:"json" validate:"oneof=json csv parquet"`
}
