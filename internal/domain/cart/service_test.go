package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/product"
	"github.com/your-org/grocery-storefront/internal/testutil"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t, &product.Product{}, &product.Discount{}, &CartItem{})
	cfg := &config.Config{Cart: config.CartConfig{AbandonAfter: 24 * time.Hour}}
	svc := NewService(db, cfg, testutil.NewLogger())
	svc.now = func() time.Time { return testNow }
	return svc, db
}

// seedClearance creates a product priced 10.00 with stock 10, of which 4 expire in two days
func seedClearance(t *testing.T, db *gorm.DB) *product.Product {
	t.Helper()
	expiry := testNow.AddDate(0, 0, 2)
	p := &product.Product{
		Name: "Milk", Price: 1000, StockQuantity: 10, NearExpiryQuantity: 4,
		UnitOfMeasure: "l", ExpirationDate: &expiry, IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestAddToCartPricesEachPool(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	p := seedClearance(t, db)

	snap, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	snap, err = svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 2, FreshMode: true})
	require.NoError(t, err)

	require.Len(t, snap.Items, 2)
	reduced, fresh := snap.Items[0], snap.Items[1]

	assert.False(t, reduced.FreshMode)
	assert.Equal(t, int64(500), reduced.PricePerUnit)
	assert.Equal(t, int64(1000), reduced.SubTotal)

	assert.True(t, fresh.FreshMode)
	assert.Equal(t, int64(1000), fresh.PricePerUnit)
	assert.Equal(t, int64(2000), fresh.SubTotal)

	assert.Equal(t, int64(3000), snap.TotalPrice)
	assert.Equal(t, "Milk", reduced.ProductName)
	assert.Equal(t, 4, reduced.NearExpiryQuantity)
}

func TestAddToCartMergesLines(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	p := seedClearance(t, db)

	_, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	snap, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 4, snap.Items[0].Quantity)

	count, err := svc.GetCartItemCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestAddToCartRejectsPoolOverflow(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	p := seedClearance(t, db)

	_, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 5})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "insufficient stock for Milk")

	_, err = svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 6, FreshMode: true})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 1, FreshMode: true})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	snap, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 6, snap.Items[0].Quantity)
}

func TestAddToCartValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: 42, Quantity: 1})
	assert.ErrorIs(t, err, product.ErrNotFound)

	_, err = svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: 42, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveItem(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	p := seedClearance(t, db)

	snap, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	lineID := snap.Items[0].ID

	// another user's line is not found
	_, err = svc.RemoveItem(ctx, 2, lineID)
	assert.ErrorIs(t, err, ErrLineNotFound)

	snap, err = svc.RemoveItem(ctx, 1, lineID)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, int64(0), snap.TotalPrice)
}

func TestGetCartIsStable(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	p := seedClearance(t, db)
	_, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	first, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	second, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	empty, err := svc.GetCart(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestClearAbandoned(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	p := seedClearance(t, db)

	_, err := svc.AddToCart(ctx, 1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, 2, &AddToCartRequest{ProductID: p.ID, Quantity: 1, FreshMode: true})
	require.NoError(t, err)

	old := testNow.Add(-48 * time.Hour)
	require.NoError(t, db.Model(&CartItem{}).Where("user_id = ?", 1).UpdateColumn("updated_at", old).Error)
	require.NoError(t, db.Model(&CartItem{}).Where("user_id = ?", 2).UpdateColumn("updated_at", testNow).Error)

	removed, err := svc.ClearAbandoned(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := svc.GetCartItemCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSnapshotHelpers(t *testing.T) {
	snap := &Snapshot{Items: []Line{
		{ID: 1, ProductID: 7, Quantity: 2, SubTotal: 1000},
		{ID: 2, ProductID: 7, Quantity: 1, SubTotal: 1000, FreshMode: true},
		{ID: 3, ProductID: 8, Quantity: 5, SubTotal: 250, FreshMode: true},
	}}

	r := snap.Reserved(7)
	assert.Equal(t, 2, r.Reduced)
	assert.Equal(t, 1, r.Fresh)
	assert.Equal(t, int64(2250), snap.Sum())
	assert.Equal(t, 8, snap.Count())

	line, ok := snap.FindByID(3)
	require.True(t, ok)
	assert.Equal(t, uint(8), line.ProductID)

	clone := snap.Clone()
	clone.Items[0].Quantity = 9
	assert.Equal(t, 2, snap.Items[0].Quantity)

	var nilSnap *Snapshot
	assert.Equal(t, int64(0), nilSnap.Sum())
	_, ok = nilSnap.Find(7, "reduced")
	assert.False(t, ok)
}
