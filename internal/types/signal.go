package types

import "time"

type SignalType string

const (
	SignalTypeBuyLong    SignalType = "BUY_LONG"
	SignalTypeSellShort  SignalType = "SELL_SHORT"
	SignalTypeCloseLong  SignalType = "CLOSE_LONG"
	SignalTypeCloseShort SignalType = "CLOSE_SHORT"
	SignalTypeNoAction   SignalType = "NO_ACTION"
)

// Signal is an indicator's opinion on a single bar.
type Signal struct {
	Time     time.Time          `yaml:"time" json:"time"`
	Type     SignalType         `yaml:"type" json:"type"`
	Name     string             `yaml:"name" json:"name"`
	Reason   string             `yaml:"reason" json:"reason"`
	RawValue map[string]float64 `yaml:"raw_value" json:"raw_value"`
	Symbol   string             `yaml:"symbol" json:"symbol"`
}

type IndicatorType string

const (
	IndicatorTypeRSI IndicatorType = "rsi"
	IndicatorTypeATR IndicatorType = "atr"
	IndicatorTypeSMA IndicatorType = "sma"
	IndicatorTypeEMA IndicatorType = "ema"
)
