package identity

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/rxtech-lab/axon-client/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TokenTestSuite struct {
	suite.Suite
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenTestSuite))
}

func (suite *TokenTestSuite) TestStaticTokenRotates() {
	provider := NewStaticToken("first")

	token, err := Require(context.Background(), provider)
	suite.NoError(err)
	suite.Equal("first", token)

	provider.Set("second")
	token, err = Require(context.Background(), provider)
	suite.NoError(err)
	suite.Equal("second", token)
}

func (suite *TokenTestSuite) TestRequireRejectsEmptyToken() {
	_, err := Require(context.Background(), NewStaticToken("  "))
	suite.True(errors.HasCode(err, errors.ErrCodeMissingToken))
}

func (suite *TokenTestSuite) TestRequireRejectsNilProvider() {
	_, err := Require(context.Background(), nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingToken))
}

func (suite *TokenTestSuite) TestRequireWrapsProviderError() {
	cause := stderrors.New("refresh failed")
	provider := TokenFunc(func(_ context.Context) (string, error) {
		return "", cause
	})

	_, err := Require(context.Background(), provider)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingToken))
	suite.ErrorIs(err, cause)
}
