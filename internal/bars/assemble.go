package bars

import (
	"encoding/json"
	"log"

	"github.com/yussieik/polyextract/internal/apperrors"
)

// rawResponse mirrors the upstream JSON envelope: resultsCount plus an array of bar
// objects keyed by the Polygon aggregate short names (v, vw, o, c, h, l, t, n).
type rawResponse struct {
	ResultsCount int      `json:"resultsCount"`
	Results      []rawBar `json:"results"`
}

type rawBar struct {
	V  int64   `json:"v"`
	VW float64 `json:"vw"`
	O  float64 `json:"o"`
	C  float64 `json:"c"`
	H  float64 `json:"h"`
	L  float64 `json:"l"`
	T  int64   `json:"t"`
	N  int64   `json:"n"`
}

// AssembleDay parses one day's response body into canonical rows, annotated with the
// requested date.
//
// Two distinct failure shapes are distinguished: a body that isn't valid JSON at all is
// logged and treated as an empty day (not an error — the upstream is assumed to have
// returned garbage for a transient reason). A body that IS valid JSON but whose bar
// fields don't coerce into the fixed schema (e.g. a string where a number is expected)
// aborts the day with a ParseAnomaly, since that represents a schema the assembler
// doesn't know how to interpret rather than a transport hiccup.
func AssembleDay(body []byte, day string) ([]Row, error) {
	if !json.Valid(body) {
		log.Printf("bars: malformed JSON for day %s, dropping: %s", day, truncate(body, 200))
		return nil, nil
	}

	var resp rawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &apperrors.ParseAnomaly{Day: day, Err: err}
	}

	if resp.ResultsCount == 0 || len(resp.Results) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(resp.Results))
	for _, bar := range resp.Results {
		rows = append(rows, Row{
			Open:         bar.O,
			Close:        bar.C,
			High:         bar.H,
			Low:          bar.L,
			VWAP:         bar.VW,
			Volume:       bar.V,
			Transactions: bar.N,
			Time:         bar.T,
			MktDate:      day,
		})
	}
	return rows, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
