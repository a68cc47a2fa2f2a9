package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestDecodeTradeRecord() {
	body := `{"id":7,"session_id":"S1","pair":"EUR/USD","direction":"CALL","amount":10,"result":"win","pnl":8.5}`

	var record TradeRecord
	suite.Require().NoError(json.Unmarshal([]byte(body), &record))

	suite.Equal(int64(7), record.ID)
	suite.Equal("S1", record.SessionID)
	suite.True(record.Amount.Equal(decimal.NewFromInt(10)))
	suite.True(record.PnL.Equal(decimal.RequireFromString("8.5")))
	suite.True(record.IsWin())
}

func (suite *TradeTestSuite) TestTotalPnL() {
	trades := []TradeRecord{
		{PnL: decimal.RequireFromString("8.5")},
		{PnL: decimal.RequireFromString("-10")},
		{PnL: decimal.RequireFromString("0.1")},
	}

	suite.Equal("-1.4", TotalPnL(trades).String())
	suite.True(TotalPnL(nil).IsZero())
}
