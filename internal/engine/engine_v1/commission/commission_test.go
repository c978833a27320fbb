package commission

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionTestSuite struct {
	suite.Suite
}

func TestCommissionSuite(t *testing.T) {
	suite.Run(t, new(CommissionTestSuite))
}

func (suite *CommissionTestSuite) TestPercentageCommission() {
	model := NewPercentageCommission(0.002)

	// 100 shares at $50 = $5000 notional, 0.2% = $10
	suite.InDelta(10.0, model.Calculate(100, 50), 1e-9)
	suite.InDelta(0.0, model.Calculate(0, 50), 1e-9)
}

func (suite *CommissionTestSuite) TestZeroCommission() {
	model := NewZeroCommission()
	suite.Equal(0.0, model.Calculate(1000, 123.45))
}

func (suite *CommissionTestSuite) TestGetModel() {
	pct := GetModel(BrokerPercentage, 0.01)
	suite.InDelta(1.0, pct.Calculate(10, 10), 1e-9)

	zero := GetModel(BrokerZero, 0.01)
	suite.Equal(0.0, zero.Calculate(10, 10))

	// unknown brokers fall back to zero commission
	fallback := GetModel(Broker("unknown"), 0.01)
	suite.Equal(0.0, fallback.Calculate(10, 10))
}
