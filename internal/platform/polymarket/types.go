package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether a flag is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIEvent represents an event as returned by the Gamma /events endpoint.
// An event groups one or more related markets.
type APIEvent struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Slug    string      `json:"slug"`
	EndDate string      `json:"endDate"`
	Closed  flexBool    `json:"closed"`
	Markets []APIMarket `json:"markets"`
}

// APIMarket represents a market nested inside a Gamma event.
type APIMarket struct {
	ID              string   `json:"id"`
	Question        string   `json:"question"`
	Slug            string   `json:"slug"`
	Closed          flexBool `json:"closed"`
	EnableOrderBook flexBool `json:"enableOrderBook"`
	AcceptingOrders *bool    `json:"acceptingOrders"`
	Outcomes        string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices   string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
}

// Tradeable reports whether the market currently accepts orders. The Gamma
// API omits acceptingOrders on some records; absence means tradeable.
func (m *APIMarket) Tradeable() bool {
	if !bool(m.EnableOrderBook) || bool(m.Closed) {
		return false
	}
	return m.AcceptingOrders == nil || *m.AcceptingOrders
}

// Binary reports whether the market has exactly the Yes/No outcome pair. An
// empty outcomes field is treated as binary since Gamma omits it on plain
// yes/no markets.
func (m *APIMarket) Binary() bool {
	if m.OutcomePrices == "" {
		return false
	}
	if m.Outcomes == "" {
		return true
	}
	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return false
	}
	return len(outcomes) == 2 &&
		strings.EqualFold(outcomes[0], "Yes") &&
		strings.EqualFold(outcomes[1], "No")
}

// Prices parses the JSON-string-encoded outcomePrices field into yes and no
// probabilities. A missing no price is inferred as 1 − yes.
func (m *APIMarket) Prices() (yes, no float64, ok bool) {
	var raw []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil || len(raw) == 0 {
		return 0, 0, false
	}
	yes, err := strconv.ParseFloat(raw[0], 64)
	if err != nil {
		return 0, 0, false
	}
	if len(raw) >= 2 {
		if no, err = strconv.ParseFloat(raw[1], 64); err == nil {
			return yes, no, true
		}
	}
	return yes, 1 - yes, true
}
