package sessionrepo_test

import (
	"context"
	"testing"
	"time"

	"pizzeria/internal/adapters/out/postgres/sessionrepo"
	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/ports"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// SessionStoreIntegrationTestSuite verifies session slot persistence against
// a real PostgreSQL instance.
type SessionStoreIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	store     *sessionrepo.GormSessionStore
}

func (suite *SessionStoreIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&sessionrepo.SessionSlotDTO{}))
}

func (suite *SessionStoreIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE session_slots").Error)

	store, err := sessionrepo.NewGormSessionStore(suite.db)
	suite.Require().NoError(err)
	suite.store = store
}

func (suite *SessionStoreIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *SessionStoreIntegrationTestSuite) TestSetGet_RoundTrip() {
	ctx := context.Background()
	identity := session.Identity("chat-100")

	err := suite.store.Set(ctx, identity, ports.SlotState, []byte("BrowsingMenu"))
	suite.Require().NoError(err)

	value, ok, err := suite.store.Get(ctx, identity, ports.SlotState)
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal([]byte("BrowsingMenu"), value)
}

func (suite *SessionStoreIntegrationTestSuite) TestGet_AbsentSlot_ReportsMissing() {
	ctx := context.Background()

	value, ok, err := suite.store.Get(ctx, "chat-101", ports.SlotDelivery)
	suite.Require().NoError(err)
	suite.False(ok)
	suite.Nil(value)
}

func (suite *SessionStoreIntegrationTestSuite) TestSet_Twice_ReplacesValue() {
	ctx := context.Background()
	identity := session.Identity("chat-102")

	suite.Require().NoError(suite.store.Set(ctx, identity, ports.SlotState, []byte("Start")))
	suite.Require().NoError(suite.store.Set(ctx, identity, ports.SlotState, []byte("ReviewingCart")))

	value, ok, err := suite.store.Get(ctx, identity, ports.SlotState)
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal([]byte("ReviewingCart"), value)

	var count int64
	suite.Require().NoError(suite.db.Model(&sessionrepo.SessionSlotDTO{}).Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *SessionStoreIntegrationTestSuite) TestDelete_RemovesSlot() {
	ctx := context.Background()
	identity := session.Identity("chat-103")

	suite.Require().NoError(suite.store.Set(ctx, identity, ports.SlotCartSummary, []byte("2 x Margherita")))
	suite.Require().NoError(suite.store.Delete(ctx, identity, ports.SlotCartSummary))

	_, ok, err := suite.store.Get(ctx, identity, ports.SlotCartSummary)
	suite.Require().NoError(err)
	suite.False(ok)
}

func (suite *SessionStoreIntegrationTestSuite) TestDelete_AbsentSlot_IsNotAnError() {
	err := suite.store.Delete(context.Background(), "chat-104", ports.SlotConfirmed)
	suite.Require().NoError(err)
}

func (suite *SessionStoreIntegrationTestSuite) TestSlots_AreIsolatedPerIdentity() {
	ctx := context.Background()

	suite.Require().NoError(suite.store.Set(ctx, "chat-105", ports.SlotState, []byte("ViewingItem")))
	suite.Require().NoError(suite.store.Set(ctx, "chat-106", ports.SlotState, []byte("AwaitingAddress")))
	suite.Require().NoError(suite.store.Set(ctx, "chat-105", ports.SlotProduct, []byte(`{"product_id":"p1"}`)))

	value, ok, err := suite.store.Get(ctx, "chat-106", ports.SlotState)
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal([]byte("AwaitingAddress"), value)

	_, ok, err = suite.store.Get(ctx, "chat-106", ports.SlotProduct)
	suite.Require().NoError(err)
	suite.False(ok)
}

func (suite *SessionStoreIntegrationTestSuite) TestOperations_RejectEmptyIdentity() {
	ctx := context.Background()

	_, _, err := suite.store.Get(ctx, "", ports.SlotState)
	suite.Require().Error(err)

	suite.Require().Error(suite.store.Set(ctx, "", ports.SlotState, []byte("Start")))
	suite.Require().Error(suite.store.Delete(ctx, "", ports.SlotState))
}

func TestSessionStoreIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreIntegrationTestSuite))
}
