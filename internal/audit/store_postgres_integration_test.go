//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"profilegate/internal/audit"
	"profilegate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = audit.NewPostgresStore(s.postgres.Pool.DB())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	subject := uuid.NewString()
	first := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		ID:        uuid.NewString(),
		Timestamp: first,
		Subject:   subject,
		ClientID:  "client-a",
		Action:    audit.ActionPromptRendered,
		PolicyKey: "pp.core.v1",
		BundleKey: "ot.bundle.global.v1",
		Decision:  "render",
		Screens:   []string{"name_first", "consent_legal"},
		Device:    "chrome 120/windows/desktop",
		IPPrefix:  "192.168.1.0",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		ID:        uuid.NewString(),
		Timestamp: first.Add(time.Second),
		Subject:   subject,
		Action:    audit.ActionProfileCollected,
		Decision:  "continue",
	}))

	events, err := s.store.ListBySubject(ctx, subject)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionPromptRendered, events[0].Action)
	s.Equal([]string{"name_first", "consent_legal"}, events[0].Screens)
	s.Nil(events[1].Screens)
}

func (s *PostgresStoreSuite) TestAppendIsIdempotentOnID() {
	ctx := context.Background()
	event := audit.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Subject:   uuid.NewString(),
		Action:    audit.ActionLoginDenied,
		Decision:  "deny",
		Reason:    "PP_POLICY",
	}

	s.Require().NoError(s.store.Append(ctx, event))
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListBySubject(ctx, event.Subject)
	s.Require().NoError(err)
	s.Len(events, 1)
}
