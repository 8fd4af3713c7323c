package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func TestQueries_ProductoInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.queries.AvailableStock("no-existe", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.queries.UnreservedStock("no-existe", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.queries.StockByLocation("no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockByLocation_Desglose(t *testing.T) {
	f := newFixture(t)
	cost := 2.00
	f.add(t, "A", 10, &cost)
	f.add(t, "B", 4, &cost)
	b2 := "lote-2"
	f.store.seedRecord(&entity.StockRecord{
		ProductID: testProductID, Location: "B", Batch: &b2,
		Quantity: dec(3), CostPerUnit: dec(2), CreatedAt: time.Now(),
	})

	byLoc, err := f.queries.StockByLocation(testProductID)
	require.NoError(t, err)
	require.Len(t, byLoc, 2)
	assert.Equal(t, "A", byLoc[0].Location)
	assert.True(t, byLoc[0].TotalQuantity.Equal(dec(10)))
	assert.Equal(t, 1, byLoc[0].BatchCount)
	assert.Equal(t, "B", byLoc[1].Location)
	assert.True(t, byLoc[1].TotalQuantity.Equal(dec(7)))
	assert.Equal(t, 2, byLoc[1].BatchCount)
}

func TestAvailableStock_GlobalYPorUbicacion(t *testing.T) {
	f := newFixture(t)
	cost := 2.00
	f.add(t, "A", 10, &cost)
	f.add(t, "B", 5, &cost)

	global, err := f.queries.AvailableStock(testProductID, nil)
	require.NoError(t, err)
	assert.True(t, global.Equal(dec(15)))

	soloA, err := f.queries.AvailableStock(testProductID, strPtr("A"))
	require.NoError(t, err)
	assert.True(t, soloA.Equal(dec(10)))
}

func TestLowStock_UmbralInclusive(t *testing.T) {
	f := newFixture(t)
	cost := 2.00
	// reorder_point del producto de prueba = 5: el total igual al umbral cuenta.
	f.add(t, "A", 5, &cost)

	low, err := f.queries.LowStockProducts()
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "SKU-001", low[0].Product.SKU)
	assert.True(t, low[0].TotalQuantity.Equal(dec(5)))

	f.add(t, "A", 1, &cost)
	low, err = f.queries.LowStockProducts()
	require.NoError(t, err)
	assert.Empty(t, low, "por encima del punto de reorden ya no aparece")
}

func TestOverstocked_UmbralInclusive(t *testing.T) {
	f := newFixture(t)
	cost := 2.00
	// maximum_level = 100.
	f.add(t, "A", 100, &cost)

	over, err := f.queries.OverstockedProducts()
	require.NoError(t, err)
	require.Len(t, over, 1)
	assert.True(t, over[0].TotalQuantity.Equal(dec(100)))
}

func TestExpiring_VentanaYVencidos(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	soon := now.Add(10 * 24 * time.Hour)
	far := now.Add(90 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	for i, exp := range []time.Time{soon, far, past} {
		e := exp
		b := string(rune('a' + i))
		f.store.seedRecord(&entity.StockRecord{
			ProductID: testProductID, Location: "A", Batch: &b,
			Quantity: dec(1), CostPerUnit: dec(2), ExpiryDate: &e, CreatedAt: now,
		})
	}
	// Lote agotado por vencer: no debe listarse.
	bz := "z"
	f.store.seedRecord(&entity.StockRecord{
		ProductID: testProductID, Location: "A", Batch: &bz,
		Quantity: dec(0), CostPerUnit: dec(2), ExpiryDate: &soon, CreatedAt: now,
	})

	expiring, err := f.queries.ExpiringSoon(0)
	require.NoError(t, err)
	require.Len(t, expiring, 1, "solo el lote dentro de la ventana de 30 días")
	require.NotNil(t, expiring[0].ExpiryDate)
	assert.True(t, expiring[0].ExpiryDate.Equal(soon))

	expired, err := f.queries.Expired()
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.True(t, expired[0].ExpiryDate.Equal(past))
}

func TestValuation_MargenSobreCosto(t *testing.T) {
	f := newFixture(t)
	cost := 2.00
	f.add(t, "A", 10, &cost) // costo 20, venta 35 (precio 3.50)

	val, err := f.queries.Valuation()
	require.NoError(t, err)
	assert.True(t, val.CostValuation.Equal(dec(20)))
	assert.True(t, val.SellingValuation.Equal(dec(35)))
	assert.True(t, val.PotentialProfit.Equal(dec(15)))
	assert.True(t, val.ProfitMarginPct.Equal(dec(75)))
}

func TestValuation_InventarioVacio(t *testing.T) {
	f := newFixture(t)
	val, err := f.queries.Valuation()
	require.NoError(t, err)
	assert.True(t, val.CostValuation.IsZero())
	assert.True(t, val.ProfitMarginPct.IsZero(), "sin división entre cero")
}

func TestMovements_FiltrosYOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cost := 2.00
	f.add(t, "A", 10, &cost)
	_, err := f.uc.Remove(ctx, ledger.RemoveInput{
		ProductID: testProductID, Location: "A", Quantity: dec(3), ActorID: testActorID,
	})
	require.NoError(t, err)
	_, err = f.uc.Transfer(ctx, ledger.TransferInput{
		ProductID: testProductID, FromLocation: "A", ToLocation: "B",
		Quantity: dec(2), ActorID: testActorID,
	})
	require.NoError(t, err)

	byProduct, err := f.queries.Movements(testProductID, "", nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, byProduct, 4, "entrada + salida + dos piernas del traslado")

	// Por ubicación: "B" solo ve las piernas del traslado que la tocan.
	byLocation, err := f.queries.Movements("", "B", nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, byLocation, 2)
	for _, m := range byLocation {
		assert.Equal(t, entity.MovementTypeTransfer, m.Type)
	}

	_, err = f.queries.Movements("", "", nil, nil, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "exige producto o ubicación")
}

func TestMovements_RangoDeFechas(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.store.movements = append(f.store.movements, &entity.Movement{
			ID: string(rune('a' + i)), ProductID: testProductID, StockRecordID: "r",
			Type: entity.MovementTypeIn, Reason: entity.ReasonPurchase,
			Quantity: dec(1), OccurredAt: base.AddDate(0, 0, i),
		})
	}
	from := base.AddDate(0, 0, 1)
	movs, err := f.queries.Movements(testProductID, "", &from, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.True(t, movs[0].OccurredAt.After(movs[1].OccurredAt), "más reciente primero")
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	cost := 2.00
	f.add(t, "A", 4, &cost) // total 4 <= reorder_point 5

	summary, err := f.queries.DashboardSummary()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LowStockCount)
	assert.Equal(t, 0, summary.ExpiringSoonCount)
	assert.True(t, summary.Valuation.CostValuation.Equal(dec(8)))
}
