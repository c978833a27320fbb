package version

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type VersionTestSuite struct {
	suite.Suite
}

func TestVersionSuite(t *testing.T) {
	suite.Run(t, new(VersionTestSuite))
}

func (suite *VersionTestSuite) TestCurrentVersionIsCompatible() {
	ok, err := IsCompatible(Version)
	suite.NoError(err)
	suite.True(ok)
}

func (suite *VersionTestSuite) TestPatchDifferenceIsCompatible() {
	ok, err := IsCompatible("1.0.3")
	suite.NoError(err)
	suite.True(ok)
}

func (suite *VersionTestSuite) TestMajorDifferenceIsIncompatible() {
	ok, err := IsCompatible("2.0.0")
	suite.NoError(err)
	suite.False(ok)
}

func (suite *VersionTestSuite) TestInvalidVersion() {
	_, err := IsCompatible("not-a-version")
	suite.Error(err)
}
