package restapi

import (
	"math"
	"time"

	"crypto_tracker/internal/app/analysis"
	"crypto_tracker/internal/app/service"
	"crypto_tracker/internal/domain/entity"
)

// ViewResponse is the JSON form of a published session view.
type ViewResponse struct {
	Kind       string                           `json:"kind"`
	SelectedID string                           `json:"selectedId,omitempty"`
	Status     string                           `json:"status"`
	Editing    bool                             `json:"editing"`
	Coins      []entity.CoinDefinition          `json:"coins"`
	Holdings   map[string]entity.PortfolioEntry `json:"holdings"`
	Prices     entity.PriceIndex                `json:"prices"`
	Summary    SummaryResponse                  `json:"summary"`
	Coin       *CoinResponse                    `json:"coin,omitempty"`
	Search     SearchResponse                   `json:"search"`
	Fetches    map[string]string                `json:"fetches"`
	UpdatedAt  time.Time                        `json:"updatedAt"`
}

type SummaryResponse struct {
	NetWorth   float64             `json:"netWorth"`
	CostBasis  float64             `json:"costBasis"`
	PnL        float64             `json:"pnl"`
	PnLPercent float64             `json:"pnlPercent"`
	Allocation []entity.Allocation `json:"allocation"`
}

type CoinResponse struct {
	Definition entity.CoinDefinition `json:"definition"`
	Label      string                `json:"label"`
	Snapshot   entity.CoinSnapshot   `json:"snapshot"`
	HasPrice   bool                  `json:"hasPrice"`
	HasHistory bool                  `json:"hasHistory"`
	Position   PositionResponse      `json:"position"`
	Indicators []SeriesResponse      `json:"indicators"`
	Loading    bool                  `json:"loading"`
}

type PositionResponse struct {
	entity.CoinPosition
	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnlPercent"`
}

// SeriesResponse carries an indicator line. Warm-up values are null.
type SeriesResponse struct {
	Period int        `json:"period"`
	Values []*float64 `json:"values"`
}

type SearchResponse struct {
	Query   string                  `json:"query"`
	Results []entity.CoinDefinition `json:"results"`
	Loading bool                    `json:"loading"`
}

func newSummaryResponse(s entity.PortfolioSummary) SummaryResponse {
	alloc := s.Allocation
	if alloc == nil {
		alloc = []entity.Allocation{}
	}
	return SummaryResponse{
		NetWorth:   s.NetWorth,
		CostBasis:  s.CostBasis,
		PnL:        s.PnL(),
		PnLPercent: s.PnLPercent(),
		Allocation: alloc,
	}
}

func newSeriesResponse(series []analysis.Series) []SeriesResponse {
	out := make([]SeriesResponse, len(series))
	for i, s := range series {
		values := make([]*float64, len(s.Values))
		for j, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			v := v
			values[j] = &v
		}
		out[i] = SeriesResponse{Period: s.Period, Values: values}
	}
	return out
}

func newViewResponse(v *service.View) ViewResponse {
	resp := ViewResponse{
		Kind:       string(v.Kind),
		SelectedID: v.SelectedID,
		Status:     v.Status,
		Editing:    v.Editing,
		Coins:      v.Coins,
		Holdings:   v.Entries,
		Prices:     v.Prices,
		Summary:    newSummaryResponse(v.Summary),
		Search: SearchResponse{
			Query:   v.SearchQuery,
			Results: v.SearchResults,
			Loading: v.Loading(entity.CategorySearch),
		},
		Fetches:   make(map[string]string, len(v.Fetches)),
		UpdatedAt: v.UpdatedAt,
	}
	if resp.Search.Results == nil {
		resp.Search.Results = []entity.CoinDefinition{}
	}
	for category, state := range v.Fetches {
		resp.Fetches[category.String()] = state.String()
	}
	if v.Coin != nil {
		resp.Coin = &CoinResponse{
			Definition: v.Coin.Definition,
			Label:      v.Coin.Definition.Label(),
			Snapshot:   v.Coin.Snapshot,
			HasPrice:   v.Coin.Snapshot.HasPrice(),
			HasHistory: v.Coin.Snapshot.HasHistory(),
			Position: PositionResponse{
				CoinPosition: v.Coin.Position,
				PnL:          v.Coin.Position.PnL(),
				PnLPercent:   v.Coin.Position.PnLPercent(),
			},
			Indicators: newSeriesResponse(v.Coin.Indicators),
			Loading:    v.Coin.Loading,
		}
	}
	return resp
}
