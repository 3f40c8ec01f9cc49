package kalshi

// KalshiMarket represents a market as returned by the Kalshi REST API.
// Prices are quoted in cents (1-99).
type KalshiMarket struct {
	Ticker       string  `json:"ticker"`
	EventTicker  string  `json:"event_ticker"`
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle"`
	Status       string  `json:"status"` // "open", "closed", "settled"
	YesBid       float64 `json:"yes_bid"`
	YesAsk       float64 `json:"yes_ask"`
	NoBid        float64 `json:"no_bid"`
	NoAsk        float64 `json:"no_ask"`
	LastPrice    float64 `json:"last_price"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	Category     string  `json:"category"`
	Result       string  `json:"result"` // "yes", "no", "" (unsettled)
	OpenTime     string  `json:"open_time"`
	CloseTime    string  `json:"close_time"`
}

// KalshiErrorResponse represents a Kalshi API error response.
type KalshiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
