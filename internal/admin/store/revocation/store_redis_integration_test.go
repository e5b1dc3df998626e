//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"posintake/pkg/testutil/containers"
)

type RedisTRLSuite struct {
	suite.Suite
	trl *RedisTRL
	ctx context.Context
}

func TestRedisTRLSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTRLSuite))
}

func (s *RedisTRLSuite) SetupSuite() {
	rc := containers.GetManager().GetRedis(s.T())
	s.trl = NewRedisTRL(rc.Client)
}

func (s *RedisTRLSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(containers.GetManager().GetRedis(s.T()).FlushAll(s.ctx))
}

func (s *RedisTRLSuite) TestRevokeAndCheck() {
	s.Require().NoError(s.trl.RevokeToken(s.ctx, "jti-redis", time.Hour))

	revoked, err := s.trl.IsRevoked(s.ctx, "jti-redis")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.trl.IsRevoked(s.ctx, "jti-unknown")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisTRLSuite) TestEntryExpires() {
	s.Require().NoError(s.trl.RevokeToken(s.ctx, "jti-short", 50*time.Millisecond))

	revoked, err := s.trl.IsRevoked(s.ctx, "jti-short")
	s.Require().NoError(err)
	s.True(revoked)

	time.Sleep(100 * time.Millisecond)
	revoked, err = s.trl.IsRevoked(s.ctx, "jti-short")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisTRLSuite) TestEmptyJTIIsNoop() {
	s.Require().NoError(s.trl.RevokeToken(s.ctx, "", time.Hour))
	revoked, err := s.trl.IsRevoked(s.ctx, "")
	s.Require().NoError(err)
	s.False(revoked)
}
