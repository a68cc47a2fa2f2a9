package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/axon-client/pkg/errors"
)

// Defaults applied to StartParams and SignalParams fields left empty.
const (
	DefaultTradeAmount          = 10.0
	DefaultTimeframe            = "5min"
	DefaultPair                 = "EUR/USD"
	DefaultStrategyID           = "ema"
	DefaultStopLoss             = 100.0
	DefaultTakeProfit           = 50.0
	DefaultMaxConsecutiveLosses = 3
	DefaultMaxTrades            = 20
)

// StartParams is the body of the auto session start call.
// Zero values are replaced by defaults in WithDefaults.
type StartParams struct {
	TradeAmount          float64  `json:"trade_amount" yaml:"trade_amount" validate:"gt=0"`
	Timeframe            string   `json:"timeframe" yaml:"timeframe" validate:"required"`
	Pairs                []string `json:"pairs" yaml:"pairs" validate:"min=1,dive,required"`
	StrategyID           string   `json:"strategy_id" yaml:"strategy_id" validate:"required"`
	StopLoss             float64  `json:"stop_loss" yaml:"stop_loss" validate:"gt=0"`
	TakeProfit           float64  `json:"take_profit" yaml:"take_profit" validate:"gt=0"`
	MaxConsecutiveLosses int      `json:"max_consecutive_losses" yaml:"max_consecutive_losses" validate:"gte=1"`
	MaxTrades            int      `json:"max_trades" yaml:"max_trades" validate:"gte=1"`
}

// SignalParams is the body of the signal session start call.
type SignalParams struct {
	StrategyID string   `json:"strategy_id" validate:"required"`
	Pairs      []string `json:"pairs" validate:"min=1,dive,required"`
	Timeframe  string   `json:"timeframe" validate:"required"`
}

// WithDefaults returns a copy of p with every missing field set to its default.
func (p StartParams) WithDefaults() StartParams {
	if p.TradeAmount == 0 {
		p.TradeAmount = DefaultTradeAmount
	}

	if p.Timeframe == "" {
		p.Timeframe = DefaultTimeframe
	}

	p.Pairs = normalizePairs(p.Pairs)
	if len(p.Pairs) == 0 {
		p.Pairs = []string{DefaultPair}
	}

	if p.StrategyID == "" {
		p.StrategyID = DefaultStrategyID
	}

	if p.StopLoss == 0 {
		p.StopLoss = DefaultStopLoss
	}

	if p.TakeProfit == 0 {
		p.TakeProfit = DefaultTakeProfit
	}

	if p.MaxConsecutiveLosses == 0 {
		p.MaxConsecutiveLosses = DefaultMaxConsecutiveLosses
	}

	if p.MaxTrades == 0 {
		p.MaxTrades = DefaultMaxTrades
	}

	return p
}

// Validate validates the StartParams struct.
func (p *StartParams) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStartParams, "invalid session start parameters", err)
	}

	return nil
}

// SignalParams derives the signal session body from p.
func (p StartParams) SignalParams() SignalParams {
	d := p.WithDefaults()

	return SignalParams{
		StrategyID: d.StrategyID,
		Pairs:      d.Pairs,
		Timeframe:  d.Timeframe,
	}
}

// Validate validates the SignalParams struct.
func (p *SignalParams) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStartParams, "invalid signal start parameters", err)
	}

	return nil
}

// ParsePairs splits a comma separated pair list, dropping blanks.
func ParsePairs(raw string) []string {
	return normalizePairs(strings.Split(raw, ","))
}

func normalizePairs(pairs []string) []string {
	result := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair != "" {
			result = append(result, pair)
		}
	}

	return result
}
