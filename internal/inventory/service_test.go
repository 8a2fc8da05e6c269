package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
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

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		panic("emit outside transaction")
	}
	f.events = append(f.events, event)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryItem{}); err != nil {
		t.Fatalf("migrate inventory items: %v", err)
	}
	adjustments := `
CREATE TABLE IF NOT EXISTS inventory_adjustments (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  delta INTEGER NOT NULL,
  reason TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`
	if err := db.Exec(adjustments).Error; err != nil {
		t.Fatalf("create adjustments table: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *fakeOutbox) {
	t.Helper()
	ob := &fakeOutbox{}
	svc, err := NewService(NewRepository(db), testTxRunner{db: db}, ob, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, ob
}

func seedItem(t *testing.T, db *gorm.DB, item models.InventoryItem) {
	t.Helper()
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed inventory item: %v", err)
	}
}

func loadItem(t *testing.T, db *gorm.DB, variantID, locationID uuid.UUID) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	if err := db.First(&item, "variant_id = ? AND location_id = ?", variantID, locationID).Error; err != nil {
		t.Fatalf("load inventory item: %v", err)
	}
	return item
}

// Two reserves of 6 against 10. Both issue the same conditional UPDATE, and on
// Postgres concurrent executions serialize on the row lock, so the second
// always observes the depleted counter. Running them sequentially here covers
// every interleaving the row lock permits; sqlite cannot host the two
// transactions concurrently.
func TestReserveSecondRequestFailsWhenShort(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	variant := uuid.New()
	location := uuid.New()
	seedItem(t, db, models.InventoryItem{VariantID: variant, LocationID: location, AvailableQty: 10})

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(ctx, tx, variant, location, 6)
	})
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(ctx, tx, variant, location, 6)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	item := loadItem(t, db, variant, location)
	if item.AvailableQty != 4 || item.CommittedQty != 6 {
		t.Fatalf("unexpected counters after failed second reserve: %+v", item)
	}
}

func TestReserveUnknownItemIsInsufficient(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(context.Background(), tx, uuid.New(), uuid.New(), 1)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestReleaseMovesCommittedBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	variant := uuid.New()
	location := uuid.New()
	seedItem(t, db, models.InventoryItem{VariantID: variant, LocationID: location, AvailableQty: 2, CommittedQty: 5})

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Release(ctx, tx, variant, location, 3)
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	item := loadItem(t, db, variant, location)
	if item.AvailableQty != 5 || item.CommittedQty != 2 {
		t.Fatalf("unexpected counters after release: %+v", item)
	}
}

func TestReleaseClampsWhenCommittedTooLow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	variant := uuid.New()
	location := uuid.New()
	seedItem(t, db, models.InventoryItem{VariantID: variant, LocationID: location, AvailableQty: 2, CommittedQty: 3})

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Release(ctx, tx, variant, location, 5)
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	item := loadItem(t, db, variant, location)
	if item.AvailableQty != 5 || item.CommittedQty != 0 {
		t.Fatalf("expected clamp to zero committed, got %+v", item)
	}
}

func TestFulfillRequiresCommittedStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	variant := uuid.New()
	location := uuid.New()
	seedItem(t, db, models.InventoryItem{VariantID: variant, LocationID: location, AvailableQty: 5, CommittedQty: 2})

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Fulfill(ctx, tx, variant, location, 4)
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Fulfill(ctx, tx, variant, location, 2)
	})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	item := loadItem(t, db, variant, location)
	if item.AvailableQty != 5 || item.CommittedQty != 0 {
		t.Fatalf("unexpected counters after fulfill: %+v", item)
	}
}

func TestAdjustCreatesItemAndAuditRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	variant := uuid.New()
	location := uuid.New()

	item, err := svc.Adjust(context.Background(), AdjustInput{
		VariantID:  variant,
		LocationID: location,
		Delta:      7,
		Reason:     enums.AdjustmentReasonRestock,
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if item.AvailableQty != 7 {
		t.Fatalf("expected available 7, got %d", item.AvailableQty)
	}

	rows, err := svc.ListAdjustments(context.Background(), variant, location, 10)
	if err != nil {
		t.Fatalf("list adjustments: %v", err)
	}
	if len(rows) != 1 || rows[0].Delta != 7 || rows[0].Reason != enums.AdjustmentReasonRestock {
		t.Fatalf("unexpected adjustment rows: %+v", rows)
	}

	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventInventoryAdjusted {
		t.Fatalf("expected one inventory.adjusted event, got %+v", ob.events)
	}
}

func TestAdjustRejectsDriveBelowZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	variant := uuid.New()
	location := uuid.New()
	seedItem(t, db, models.InventoryItem{VariantID: variant, LocationID: location, AvailableQty: 3})

	_, err := svc.Adjust(context.Background(), AdjustInput{
		VariantID:  variant,
		LocationID: location,
		Delta:      -5,
		Reason:     enums.AdjustmentReasonShrinkage,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	item := loadItem(t, db, variant, location)
	if item.AvailableQty != 3 {
		t.Fatalf("failed adjust must not change counters: %+v", item)
	}
	if len(ob.events) != 0 {
		t.Fatalf("failed adjust must not emit events: %+v", ob.events)
	}

	var audits int64
	if err := db.Model(&models.InventoryAdjustment{}).Count(&audits).Error; err != nil {
		t.Fatalf("count adjustments: %v", err)
	}
	if audits != 0 {
		t.Fatalf("failed adjust must not write audit rows, found %d", audits)
	}
}

func TestTransferConservesTotalStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, ob := newTestService(t, db)
	variant := uuid.New()
	from := uuid.New()
	to := uuid.New()
	seedItem(t, db, models.InventoryItem{VariantID: variant, LocationID: from, AvailableQty: 10})

	err := svc.Transfer(context.Background(), TransferInput{
		VariantID:      variant,
		FromLocationID: from,
		ToLocationID:   to,
		Qty:            4,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	source := loadItem(t, db, variant, from)
	dest := loadItem(t, db, variant, to)
	if source.AvailableQty != 6 || dest.AvailableQty != 4 {
		t.Fatalf("transfer did not conserve stock: source=%+v dest=%+v", source, dest)
	}

	var reasons []string
	if err := db.Model(&models.InventoryAdjustment{}).Order("delta ASC").Pluck("reason", &reasons).Error; err != nil {
		t.Fatalf("load adjustment reasons: %v", err)
	}
	if len(reasons) != 2 || reasons[0] != string(enums.AdjustmentReasonTransferOut) || reasons[1] != string(enums.AdjustmentReasonTransferIn) {
		t.Fatalf("unexpected adjustment reasons: %v", reasons)
	}

	var transferred int
	for _, event := range ob.events {
		if event.EventType == enums.EventInventoryTransferred {
			transferred++
		}
	}
	if transferred != 1 {
		t.Fatalf("expected one inventory.transferred event, got %d", transferred)
	}
}

func TestTransferFailsCleanlyWhenSourceShort(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	variant := uuid.New()
	from := uuid.New()
	to := uuid.New()
	seedItem(t, db, models.InventoryItem{VariantID: variant, LocationID: from, AvailableQty: 3})

	err := svc.Transfer(context.Background(), TransferInput{
		VariantID:      variant,
		FromLocationID: from,
		ToLocationID:   to,
		Qty:            5,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	source := loadItem(t, db, variant, from)
	if source.AvailableQty != 3 {
		t.Fatalf("failed transfer must not change source: %+v", source)
	}
	var destCount int64
	if err := db.Model(&models.InventoryItem{}).Where("location_id = ?", to).Count(&destCount).Error; err != nil {
		t.Fatalf("count destination items: %v", err)
	}
	if destCount != 0 {
		t.Fatalf("failed transfer must not create destination rows")
	}
}

func TestTransferRejectsSameLocation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	location := uuid.New()

	err := svc.Transfer(context.Background(), TransferInput{
		VariantID:      uuid.New(),
		FromLocationID: location,
		ToLocationID:   location,
		Qty:            1,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetThresholdUnknownItem(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	threshold := 3
	err := svc.SetThreshold(context.Background(), uuid.New(), uuid.New(), &threshold)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
