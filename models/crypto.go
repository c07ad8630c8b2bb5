package models

// CoinMarket is a normalized CoinGecko market listing.
type CoinMarket struct {
	ID                           string  `json:"id"`
	Symbol                       string  `json:"symbol"`
	Name                         string  `json:"name"`
	Image                        string  `json:"image"`
	CurrentPrice                 float64 `json:"currentPrice"`
	MarketCap                    float64 `json:"marketCap"`
	MarketCapRank                int     `json:"marketCapRank"`
	FullyDilutedValuation        float64 `json:"fullyDilutedValuation"`
	TotalVolume                  float64 `json:"totalVolume"`
	High24h                      float64 `json:"high24h"`
	Low24h                       float64 `json:"low24h"`
	PriceChange24h               float64 `json:"priceChange24h"`
	PriceChangePercentage24h     float64 `json:"priceChangePercentage24h"`
	MarketCapChange24h           float64 `json:"marketCapChange24h"`
	MarketCapChangePercentage24h float64 `json:"marketCapChangePercentage24h"`
	CirculatingSupply            float64 `json:"circulatingSupply"`
	TotalSupply                  float64 `json:"totalSupply"`
	MaxSupply                    float64 `json:"maxSupply"`
	ATH                          float64 `json:"ath"`
	ATHChangePercentage          float64 `json:"athChangePercentage"`
	ATHDate                      string  `json:"athDate"`
	ATL                          float64 `json:"atl"`
	ATLChangePercentage          float64 `json:"atlChangePercentage"`
	ATLDate                      string  `json:"atlDate"`
	LastUpdated                  string  `json:"lastUpdated"`
}

// SimplePrices maps coin id -> currency -> value as returned by the
// CoinGecko simple price endpoint. The shape is dynamic by design.
type SimplePrices map[string]map[string]float64

// HistoryPoint is one sample of a coin's price history. MarketCap and
// Volume are paired with the price sample at the same index; they are nil
// when the upstream arrays are shorter than the price array.
type HistoryPoint struct {
	Date      string   `json:"date"`
	Price     float64  `json:"price"`
	MarketCap *float64 `json:"marketCap,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
}

// GlobalStats summarizes the global crypto market.
type GlobalStats struct {
	TotalMarketCap                  float64            `json:"totalMarketCap"`
	TotalVolume                     float64            `json:"totalVolume"`
	MarketCapPercentage             map[string]float64 `json:"marketCapPercentage"`
	MarketCapChangePercentage24hUSD float64            `json:"marketCapChangePercentage24hUsd"`
	ActiveCryptocurrencies          int                `json:"activeCryptocurrencies"`
	Markets                         int                `json:"markets"`
}

// CurrencyExchangeRate is a normalized Alpha Vantage realtime exchange rate,
// used both for crypto pairs and fiat pairs.
type CurrencyExchangeRate struct {
	FromCurrency  string  `json:"fromCurrency"`
	ToCurrency    string  `json:"toCurrency"`
	ExchangeRate  float64 `json:"exchangeRate"`
	LastRefreshed string  `json:"lastRefreshed"`
	TimeZone      string  `json:"timeZone"`
	BidPrice      float64 `json:"bidPrice"`
	AskPrice      float64 `json:"askPrice"`
}
