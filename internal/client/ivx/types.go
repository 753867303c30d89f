package ivx

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one normalized daily OHLCV bar.
type Bar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// Contract is normalized option reference data.
type Contract struct {
	ContractSymbol string
	Underlying     string
	Strike         decimal.Decimal
	Expiry         time.Time
	Type           string // "call" or "put"
	Style          string // "american" or "european"
	SharesPerLot   int
}

// Quote is one normalized option quote snapshot. IV and Greeks are pointers:
// the provider omits them for illiquid contracts.
type Quote struct {
	ContractSymbol string
	Timestamp      time.Time
	Bid            decimal.Decimal
	Ask            decimal.Decimal
	Last           decimal.Decimal
	Volume         int64
	OpenInterest   int64

	ImpliedVolatility *float64
	Delta             *float64
	Gamma             *float64
	Theta             *float64
	Vega              *float64
	Rho               *float64
}

type rawBar struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

type rawContract struct {
	OptionSymbol string          `json:"optionSymbol"`
	Underlying   string          `json:"stockSymbol"`
	Strike       decimal.Decimal `json:"strike"`
	Expiry       string          `json:"expirationDate"`
	CallPut      string          `json:"callPut"`
	Style        string          `json:"exerciseStyle"`
	ContractSize int             `json:"contractSize"`
}

type rawQuote struct {
	OptionSymbol string          `json:"optionSymbol"`
	Timestamp    int64           `json:"timestamp"`
	Bid          decimal.Decimal `json:"bid"`
	Ask          decimal.Decimal `json:"ask"`
	Last         decimal.Decimal `json:"last"`
	Volume       int64           `json:"volume"`
	OpenInterest int64           `json:"openInterest"`
	IV           *float64        `json:"iv"`
	Delta        *float64        `json:"delta"`
	Gamma        *float64        `json:"gamma"`
	Theta        *float64        `json:"theta"`
	Vega         *float64        `json:"vega"`
	Rho          *float64        `json:"rho"`
}

const dateLayout = "2006-01-02"

func parseBars(body []byte) ([]Bar, error) {
	var payload struct {
		Data []rawBar `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	out := make([]Bar, 0, len(payload.Data))
	for _, rb := range payload.Data {
		d, err := time.Parse(dateLayout, rb.Date)
		if err != nil {
			return nil, fmt.Errorf("decode bar date %q: %w", rb.Date, err)
		}
		out = append(out, Bar{
			Date:   d,
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		})
	}
	return out, nil
}

func parseContracts(body []byte) ([]Contract, error) {
	var payload struct {
		Data []rawContract `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}
	out := make([]Contract, 0, len(payload.Data))
	for _, rc := range payload.Data {
		exp, err := time.Parse(dateLayout, rc.Expiry)
		if err != nil {
			return nil, fmt.Errorf("decode expiry %q: %w", rc.Expiry, err)
		}
		typ := "call"
		if rc.CallPut == "P" || rc.CallPut == "p" || rc.CallPut == "put" {
			typ = "put"
		}
		style := "american"
		if rc.Style == "E" || rc.Style == "european" {
			style = "european"
		}
		size := rc.ContractSize
		if size <= 0 {
			size = 100
		}
		out = append(out, Contract{
			ContractSymbol: rc.OptionSymbol,
			Underlying:     rc.Underlying,
			Strike:         rc.Strike,
			Expiry:         exp,
			Type:           typ,
			Style:          style,
			SharesPerLot:   size,
		})
	}
	return out, nil
}

func parseQuote(body []byte) (*Quote, error) {
	var payload struct {
		Data []rawQuote `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}
	rq := payload.Data[0]
	return &Quote{
		ContractSymbol:    rq.OptionSymbol,
		Timestamp:         time.Unix(rq.Timestamp, 0).UTC(),
		Bid:               rq.Bid,
		Ask:               rq.Ask,
		Last:              rq.Last,
		Volume:            rq.Volume,
		OpenInterest:      rq.OpenInterest,
		ImpliedVolatility: rq.IV,
		Delta:             rq.Delta,
		Gamma:             rq.Gamma,
		Theta:             rq.Theta,
		Vega:              rq.Vega,
		Rho:               rq.Rho,
	}, nil
}
