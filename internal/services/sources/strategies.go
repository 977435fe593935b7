package sources

import (
	"context"

	"ChartFeed/internal/domain/models"
	"ChartFeed/internal/domain/repository"
	"ChartFeed/internal/services/synthetic"
)

// TableStrategy acquires bars by scraping an HTML price-history table.
type TableStrategy struct {
	fetcher repository.TableFetcher
}

func NewTableStrategy(f repository.TableFetcher) *TableStrategy {
	return &TableStrategy{fetcher: f}
}

func (s *TableStrategy) Source() models.Source { return models.SourceTable }

func (s *TableStrategy) Acquire(ctx context.Context, symbol string, days int) ([]models.Bar, int, error) {
	page, err := s.fetcher.FetchTable(ctx, symbol)
	if err != nil {
		return nil, 0, err
	}
	bars, dropped, err := ParseTable(page)
	if err != nil {
		return nil, dropped, err
	}
	bars, err = Finalize(bars, days)
	return bars, dropped, err
}

// JSONStrategy acquires bars from a chart endpoint returning JSON rows.
type JSONStrategy struct {
	fetcher repository.JSONFetcher
}

func NewJSONStrategy(f repository.JSONFetcher) *JSONStrategy {
	return &JSONStrategy{fetcher: f}
}

func (s *JSONStrategy) Source() models.Source { return models.SourceJSON }

func (s *JSONStrategy) Acquire(ctx context.Context, symbol string, days int) ([]models.Bar, int, error) {
	body, err := s.fetcher.FetchJSON(ctx, symbol)
	if err != nil {
		return nil, 0, err
	}
	bars, dropped, err := ParseJSON(body)
	if err != nil {
		return nil, dropped, err
	}
	bars, err = Finalize(bars, days)
	return bars, dropped, err
}

// SyntheticStrategy always succeeds with generated bars.
type SyntheticStrategy struct {
	gen *synthetic.Generator
}

func NewSyntheticStrategy(gen *synthetic.Generator) *SyntheticStrategy {
	return &SyntheticStrategy{gen: gen}
}

func (s *SyntheticStrategy) Source() models.Source { return models.SourceSynthetic }

func (s *SyntheticStrategy) Acquire(_ context.Context, symbol string, days int) ([]models.Bar, int, error) {
	return s.gen.Generate(symbol, days), 0, nil
}
