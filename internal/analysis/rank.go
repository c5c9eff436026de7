package analysis

import (
	"sort"
)

// ForecastScore is the accuracy of one forecaster against the realized prices.
type ForecastScore struct {
	Name string  `json:"name"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

type RankedScore struct {
	ForecastScore
	Rank int `json:"rank"`
}

// RankByRMSE sorts ascending by RMSE. Ties keep input order.
func RankByRMSE(scores []ForecastScore) []RankedScore {
	out := make([]RankedScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, RankedScore{ForecastScore: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RMSE < out[j].RMSE
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
