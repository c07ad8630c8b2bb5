package models

import "encoding/json"

// Quote is a normalized real-time stock quote (Alpha Vantage GLOBAL_QUOTE).
type Quote struct {
	Symbol           string  `json:"symbol"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Price            float64 `json:"price"`
	Volume           int64   `json:"volume"`
	LatestTradingDay string  `json:"latestTradingDay"`
	PreviousClose    float64 `json:"previousClose"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"changePercent"`
}

// Bar is a single OHLCV bar from a time series. Series are always returned
// in chronological order (oldest first), regardless of upstream ordering.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// FMPQuote is a normalized quote from Financial Modeling Prep.
type FMPQuote struct {
	Symbol               string  `json:"symbol"`
	Name                 string  `json:"name"`
	Price                float64 `json:"price"`
	ChangesPercentage    float64 `json:"changesPercentage"`
	Change               float64 `json:"change"`
	DayLow               float64 `json:"dayLow"`
	DayHigh              float64 `json:"dayHigh"`
	YearHigh             float64 `json:"yearHigh"`
	YearLow              float64 `json:"yearLow"`
	MarketCap            float64 `json:"marketCap"`
	PriceAvg50           float64 `json:"priceAvg50"`
	PriceAvg200          float64 `json:"priceAvg200"`
	Volume               int64   `json:"volume"`
	AvgVolume            int64   `json:"avgVolume"`
	Exchange             string  `json:"exchange"`
	Open                 float64 `json:"open"`
	PreviousClose        float64 `json:"previousClose"`
	EPS                  float64 `json:"eps"`
	PE                   float64 `json:"pe"`
	EarningsAnnouncement string  `json:"earningsAnnouncement"`
	SharesOutstanding    float64 `json:"sharesOutstanding"`
	Timestamp            int64   `json:"timestamp"`
}

// FinancialStatements bundles the three FMP statement endpoints. The
// statements keep the vendor schema; they are passed through untouched.
type FinancialStatements struct {
	IncomeStatement   json.RawMessage `json:"incomeStatement"`
	BalanceSheet      json.RawMessage `json:"balanceSheet"`
	CashFlowStatement json.RawMessage `json:"cashFlowStatement"`
}

// AggregateBar is a normalized Polygon aggregate (OHLC) bar.
type AggregateBar struct {
	Date         string  `json:"date"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       float64 `json:"volume"`
	Transactions int64   `json:"transactions"`
	VWAP         float64 `json:"vwap"`
}

// PreviousClose is the prior trading day's bar for a ticker.
type PreviousClose struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}

// LastQuote is the most recent NBBO quote for a ticker.
type LastQuote struct {
	Ticker    string  `json:"ticker"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidSize   int64   `json:"bidSize"`
	AskSize   int64   `json:"askSize"`
	Timestamp string  `json:"timestamp"`
}

// TickerNews is a normalized Polygon news item for a ticker.
type TickerNews struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Author       string `json:"author"`
	PublishedUTC string `json:"publishedUtc"`
	ArticleURL   string `json:"articleUrl"`
	ImageURL     string `json:"imageUrl"`
	Publisher    string `json:"publisher"`
}
