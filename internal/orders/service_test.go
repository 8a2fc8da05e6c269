package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/angelmondragon/fulfillz-backend/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		panic("emit called without transaction")
	}
	r.events = append(r.events, event)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:orders_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
		CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			financial_status TEXT NOT NULL DEFAULT 'pending',
			fulfillment_status TEXT NOT NULL DEFAULT 'unfulfilled',
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)
	require.NoError(t, db.Exec(`
		CREATE TABLE order_status_histories (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			previous_financial TEXT NOT NULL,
			new_financial TEXT NOT NULL,
			previous_fulfillment TEXT NOT NULL,
			new_fulfillment TEXT NOT NULL,
			comment TEXT,
			created_at DATETIME
		)
	`).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *recordingOutbox) {
	t.Helper()
	ob := &recordingOutbox{}
	svc, err := NewService(NewRepository(db), testTxRunner{db: db}, ob, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc, ob
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	id := uuid.New()
	created, err := svc.CreateOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.FinancialStatusPending, created.FinancialStatus)
	assert.Equal(t, enums.FulfillmentStatusUnfulfilled, created.FulfillmentStatus)

	_, err = svc.ApplyTransition(ctx, TransitionInput{
		OrderID:      id,
		NewFinancial: finPtr(enums.FinancialStatusAuthorized),
	})
	require.NoError(t, err)

	// A replayed create must not reset the advanced statuses.
	again, err := svc.CreateOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.FinancialStatusAuthorized, again.FinancialStatus)
}

func TestApplyTransitionAppendsHistory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New())
	require.NoError(t, err)

	comment := "payment captured"
	updated, err := svc.ApplyTransition(ctx, TransitionInput{
		OrderID:      order.ID,
		NewFinancial: finPtr(enums.FinancialStatusPaid),
		Comment:      &comment,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.FinancialStatusPaid, updated.FinancialStatus)
	assert.Equal(t, enums.FulfillmentStatusUnfulfilled, updated.FulfillmentStatus)

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.FinancialStatusPending, history[0].PreviousFinancial)
	assert.Equal(t, enums.FinancialStatusPaid, history[0].NewFinancial)
	assert.Equal(t, enums.FulfillmentStatusUnfulfilled, history[0].PreviousFulfillment)
	assert.Equal(t, enums.FulfillmentStatusUnfulfilled, history[0].NewFulfillment)
	require.NotNil(t, history[0].Comment)
	assert.Equal(t, comment, *history[0].Comment)

	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventOrderStatusChanged, ob.events[0].EventType)
	assert.Equal(t, order.ID, ob.events[0].AggregateID)
}

func TestApplyTransitionBothAxesSingleHistoryRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.ApplyTransition(ctx, TransitionInput{
		OrderID:        order.ID,
		NewFinancial:   finPtr(enums.FinancialStatusPaid),
		NewFulfillment: fulPtr(enums.FulfillmentStatusFulfilled),
	})
	require.NoError(t, err)

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.FinancialStatusPaid, history[0].NewFinancial)
	assert.Equal(t, enums.FulfillmentStatusFulfilled, history[0].NewFulfillment)
}

func TestApplyTransitionRejectsInvalidEdge(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.ApplyTransition(ctx, TransitionInput{
		OrderID:      order.ID,
		NewFinancial: finPtr(enums.FinancialStatusRefunded),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "got %v", err)

	reloaded, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.FinancialStatusPending, reloaded.FinancialStatus)

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, ob.events)
}

type conflictRepo struct {
	Repository
}

func (c conflictRepo) WithTx(tx *gorm.DB) Repository {
	return conflictRepo{Repository: c.Repository.WithTx(tx)}
}

func (c conflictRepo) UpdateStatuses(context.Context, uuid.UUID, enums.OrderFinancialStatus, enums.OrderFinancialStatus, enums.OrderFulfillmentStatus, enums.OrderFulfillmentStatus) (bool, error) {
	// Simulates a row whose statuses moved between read and guarded update.
	return false, nil
}

func TestApplyTransitionConcurrentModification(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := conflictRepo{Repository: NewRepository(db)}
	svc, err := NewService(repo, testTxRunner{db: db}, &recordingOutbox{}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	ctx := context.Background()

	order := seedOrder(t, db)

	_, err = svc.ApplyTransition(ctx, TransitionInput{
		OrderID:      order,
		NewFinancial: finPtr(enums.FinancialStatusPaid),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	history, err := svc.History(ctx, order)
	require.NoError(t, err)
	assert.Empty(t, history, "conflicting transition must not leave a history row")
}

func TestGetOrderNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.GetOrder(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestHistoryOrderedOldestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, uuid.New())
	require.NoError(t, err)

	steps := []enums.OrderFinancialStatus{
		enums.FinancialStatusAuthorized,
		enums.FinancialStatusPaid,
		enums.FinancialStatusRefunded,
	}
	for i := range steps {
		_, err = svc.ApplyTransition(ctx, TransitionInput{OrderID: order.ID, NewFinancial: finPtr(steps[i])})
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, enums.FinancialStatusPending, history[0].PreviousFinancial)
	assert.Equal(t, enums.FinancialStatusRefunded, history[2].NewFinancial)
}

func seedOrder(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO orders (id, financial_status, fulfillment_status) VALUES (?, 'pending', 'unfulfilled')`,
		id,
	).Error)
	return id
}
