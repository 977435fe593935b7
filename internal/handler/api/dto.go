package api

import (
	"time"

	"ChartFeed/internal/domain/models"
)

const dateLayout = "2006-01-02"

type barDTO struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type pointDTO struct {
	Date    string  `json:"date"`
	Close   float64 `json:"close"`
	MAShort float64 `json:"ma_short"`
	MALong  float64 `json:"ma_long"`
	Volume  int64   `json:"volume"`
	RSI     float64 `json:"rsi"`
}

type tallyDTO struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type matchDTO struct {
	Index    int    `json:"index"`
	Date     string `json:"date"`
	Name     string `json:"name"`
	Polarity string `json:"polarity"`
}

type header struct {
	Symbol string `json:"symbol"`
	Range  string `json:"range"`
	Source string `json:"source"`
}

type barsResponse struct {
	header
	Bars []barDTO `json:"bars"`
}

type indicatorsResponse struct {
	header
	Points []pointDTO `json:"points"`
}

type patternsResponse struct {
	header
	Bullish []tallyDTO `json:"bullish"`
	Bearish []tallyDTO `json:"bearish"`
}

type chartResponse struct {
	header
	Bars        []barDTO   `json:"bars"`
	Indicators  []pointDTO `json:"indicators"`
	Bullish     []tallyDTO `json:"bullish"`
	Bearish     []tallyDTO `json:"bearish"`
	Matches     []matchDTO `json:"matches"`
	GeneratedAt time.Time  `json:"generated_at"`
}

func newHeader(res models.AcquisitionResult) header {
	return header{Symbol: res.Symbol, Range: string(res.Range), Source: string(res.Source)}
}

func toBarDTOs(bars []models.Bar) []barDTO {
	out := make([]barDTO, len(bars))
	for i, b := range bars {
		out[i] = barDTO{
			Date:   b.Date.UTC().Format(dateLayout),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return out
}

func toPointDTOs(points []models.IndicatorPoint) []pointDTO {
	out := make([]pointDTO, len(points))
	for i, p := range points {
		out[i] = pointDTO{
			Date:    p.Date.UTC().Format(dateLayout),
			Close:   p.Close,
			MAShort: p.MAShort,
			MALong:  p.MALong,
			Volume:  p.Volume,
			RSI:     p.RSI,
		}
	}
	return out
}

func toTallyDTOs(tallies []models.PatternTally) []tallyDTO {
	out := make([]tallyDTO, len(tallies))
	for i, t := range tallies {
		out[i] = tallyDTO{Name: t.Name, Count: t.Count}
	}
	return out
}

func toMatchDTOs(matches []models.PatternMatch) []matchDTO {
	out := make([]matchDTO, len(matches))
	for i, m := range matches {
		out[i] = matchDTO{
			Index:    m.Index,
			Date:     m.Date.UTC().Format(dateLayout),
			Name:     m.Name,
			Polarity: string(m.Polarity),
		}
	}
	return out
}

func newBarsResponse(res models.AcquisitionResult) barsResponse {
	return barsResponse{header: newHeader(res), Bars: toBarDTOs(res.Bars)}
}

func newIndicatorsResponse(res models.AcquisitionResult, points []models.IndicatorPoint) indicatorsResponse {
	return indicatorsResponse{header: newHeader(res), Points: toPointDTOs(points)}
}

func newPatternsResponse(res models.AcquisitionResult, t models.PatternTallies) patternsResponse {
	return patternsResponse{header: newHeader(res), Bullish: toTallyDTOs(t.Bullish), Bearish: toTallyDTOs(t.Bearish)}
}

func newChartResponse(s models.ChartSeries) chartResponse {
	return chartResponse{
		header:      newHeader(s.AcquisitionResult),
		Bars:        toBarDTOs(s.Bars),
		Indicators:  toPointDTOs(s.Indicators),
		Bullish:     toTallyDTOs(s.Patterns.Bullish),
		Bearish:     toTallyDTOs(s.Patterns.Bearish),
		Matches:     toMatchDTOs(s.Matches),
		GeneratedAt: s.GeneratedAt,
	}
}
