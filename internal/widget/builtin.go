package widget

var timeframes = []string{"1m", "5m", "15m", "1h", "4h", "1d"}

// DefaultType is the generic table widget with the default size preset.
const DefaultType = "default"

// Builtin returns the widget catalogue shipped with the dashboard.
func Builtin() []Definition {
	return []Definition{
		{
			Type: "CCXTChart", DisplayName: "CCXT Chart", Preset: PresetChart,
			ConfigFields: []ConfigField{
				{Name: "exchange", Label: "Exchange", Type: FieldString, Options: []string{"binance", "coinbase", "kraken", "bybit", "okx"}, Default: "binance"},
				{Name: "symbol", Label: "Symbol", Type: FieldString, Default: "BTC/USDT"},
				{Name: "timeframe", Label: "Timeframe", Type: FieldString, Options: timeframes, Default: "1m"},
			},
		},
		{
			Type: "CandlestickChart", DisplayName: "Candlestick Chart", Preset: PresetChart,
			ConfigFields: []ConfigField{
				{Name: "symbol", Label: "Symbol", Type: FieldString, Default: "BTC"},
				{Name: "currency", Label: "Currency", Type: FieldString, Default: "USD"},
				{Name: "height", Label: "Height", Type: FieldNumber, Default: 400},
			},
		},
		{
			Type: "LineChart", DisplayName: "Line Chart", Preset: PresetChart,
			ConfigFields: []ConfigField{
				{Name: "symbol", Label: "Symbol", Type: FieldString, Default: "BTC"},
				{Name: "currency", Label: "Currency", Type: FieldString, Default: "USD"},
			},
		},
		{
			Type: "VolumeChart", DisplayName: "Volume Chart", Preset: PresetChart,
			ConfigFields: []ConfigField{
				{Name: "symbol", Label: "Symbol", Type: FieldString, Default: "BTC"},
				{Name: "currency", Label: "Currency", Type: FieldString, Default: "USD"},
			},
		},
		{
			Type: "HyperliquidChart", DisplayName: "Hyperliquid Chart", Preset: PresetChart,
			ConfigFields: []ConfigField{
				{Name: "symbol", Label: "Symbol", Type: FieldString, Default: "BTC"},
				{Name: "interval", Label: "Interval", Type: FieldString, Options: timeframes, Default: "1h"},
				{Name: "limit", Label: "Candles", Type: FieldNumber, Default: 100},
				{Name: "currency", Label: "Currency", Type: FieldString, Default: "USD"},
			},
		},
		{
			Type: "FREDChart", DisplayName: "FRED Series", Preset: PresetChart,
			ConfigFields: []ConfigField{
				{Name: "seriesId", Label: "Series ID", Type: FieldString, Default: "GDP"},
				{Name: "limit", Label: "Observations", Type: FieldNumber, Default: 10},
			},
		},
		{
			Type: FeedType, DisplayName: "Twitter Feed", Preset: PresetFeed,
			ConfigFields: []ConfigField{
				{Name: "usernames", Label: "Usernames", Type: FieldStringList, Default: "elonmusk"},
				{Name: "limit", Label: "Tweets", Type: FieldNumber, Default: 10},
				{Name: "hoursAgo", Label: "Hours back", Type: FieldNumber, Default: 24},
			},
		},
		{
			Type: "TruthSocialFeed", DisplayName: "Truth Social Feed", Preset: PresetFeed,
			ConfigFields: []ConfigField{
				{Name: "identifiers", Label: "Profiles", Type: FieldStringList, Default: "realDonaldTrump"},
				{Name: "limit", Label: "Posts", Type: FieldNumber, Default: 10},
			},
		},
		{
			Type: "EconomicCalendar", DisplayName: "Economic Calendar", Preset: PresetDefault,
			ConfigFields: []ConfigField{
				{Name: "showFOMCOnly", Label: "FOMC only", Type: FieldBoolean, Default: false},
			},
		},
		{
			Type: "UpcomingEconomicEvents", DisplayName: "Upcoming Economic Events", Preset: PresetDefault,
			ConfigFields: []ConfigField{
				{Name: "defaultFilterNames", Label: "Event filters", Type: FieldStringList, Default: ""},
			},
		},
		{
			Type: CompactTableType, DisplayName: "Perpetual Swaps", Preset: PresetCompactTable,
			ConfigFields: []ConfigField{
				{Name: "exchanges", Label: "Exchanges", Type: FieldStringList, Default: "binance,bybit"},
				{Name: "symbols", Label: "Symbols", Type: FieldStringList, Default: "BTC,ETH"},
			},
		},
		{
			Type: "DeribitFutures", DisplayName: "Deribit Futures", Preset: PresetDefault,
			ConfigFields: []ConfigField{
				{Name: "symbol", Label: "Currency", Type: FieldString, Options: []string{"BTC", "ETH"}, Default: "BTC"},
			},
		},
		{
			Type: "CCXTExplorer", DisplayName: "CCXT Explorer", Preset: PresetDefault,
			ConfigFields: []ConfigField{
				{Name: "initialExchange", Label: "Exchange", Type: FieldString, Default: "binance"},
				{Name: "initialSymbol", Label: "Symbol", Type: FieldString, Default: "BTC/USDT"},
			},
		},
		{Type: "VIXComponent", DisplayName: "VIX", Preset: PresetDefault},
		{Type: "DomainTracker", DisplayName: "Domain Tracker", Preset: PresetDefault},
		{Type: "ChatInterface", DisplayName: "AI Chat", Preset: PresetFeed},
		{Type: DefaultType, DisplayName: "Table", Component: "DataTable", Preset: PresetDefault},
	}
}

// MustBuiltin returns a registry over Builtin and panics if the catalogue is malformed.
func MustBuiltin() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}
