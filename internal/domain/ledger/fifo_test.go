package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
)

func record(id string, createdAt time.Time, qty, reserved int64) *entity.StockRecord {
	return &entity.StockRecord{
		ID:               id,
		ProductID:        "prod-1",
		Location:         "A",
		Quantity:         decimal.NewFromInt(qty),
		ReservedQuantity: decimal.NewFromInt(reserved),
		CreatedAt:        createdAt,
	}
}

// Tres lotes [5,5,5] creados en t1<t2<t3: retirar 7 debe descontar 5 del más
// antiguo y 2 del siguiente.
func TestAllocateFIFO_ConsumeElMasAntiguoPrimero(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []*entity.StockRecord{
		record("c", t1.Add(2*time.Hour), 5, 0),
		record("a", t1, 5, 0),
		record("b", t1.Add(time.Hour), 5, 0),
	}

	plan, err := ledger.AllocateFIFO(records, decimal.NewFromInt(7))
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.Equal(t, "a", plan[0].Record.ID, "debe consumir primero la fila más antigua")
	assert.True(t, plan[0].Amount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "b", plan[1].Record.ID)
	assert.True(t, plan[1].Amount.Equal(decimal.NewFromInt(2)))
}

// A igual created_at desempata por id ascendente (orden de inserción).
func TestAllocateFIFO_DesempatePorID(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []*entity.StockRecord{
		record("b", t1, 3, 0),
		record("a", t1, 3, 0),
	}

	plan, err := ledger.AllocateFIFO(records, decimal.NewFromInt(4))
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "a", plan[0].Record.ID)
	assert.Equal(t, "b", plan[1].Record.ID)
}

// El plan cubre exactamente la cantidad pedida.
func TestAllocateFIFO_SumaExacta(t *testing.T) {
	t1 := time.Now()
	records := []*entity.StockRecord{
		record("a", t1, 2, 0),
		record("b", t1.Add(time.Minute), 9, 0),
	}

	plan, err := ledger.AllocateFIFO(records, decimal.NewFromInt(11))
	require.NoError(t, err)

	total := decimal.Zero
	for _, p := range plan {
		total = total.Add(p.Amount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(11)))
}

// Saltea filas en cero: quedan como cubetas históricas pero no aportan.
func TestAllocateFIFO_IgnoraFilasEnCero(t *testing.T) {
	t1 := time.Now()
	records := []*entity.StockRecord{
		record("a", t1, 0, 0),
		record("b", t1.Add(time.Minute), 4, 0),
	}

	plan, err := ledger.AllocateFIFO(records, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "b", plan[0].Record.ID)
}

// Stock insuficiente: error tipado con disponible y solicitado, sin plan.
func TestAllocateFIFO_StockInsuficiente(t *testing.T) {
	t1 := time.Now()
	records := []*entity.StockRecord{record("a", t1, 3, 0)}

	plan, err := ledger.AllocateFIFO(records, decimal.NewFromInt(5))
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Available.Equal(decimal.NewFromInt(3)))
	assert.True(t, detail.Requested.Equal(decimal.NewFromInt(5)))
}

func TestAllocateFIFO_CantidadInvalida(t *testing.T) {
	_, err := ledger.AllocateFIFO(nil, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// La reserva consume capacidad no reservada por fila sin tocar Quantity.
func TestAllocateReserve_RespetaCapacidadNoReservada(t *testing.T) {
	t1 := time.Now()
	records := []*entity.StockRecord{
		record("a", t1, 5, 4),               // capacidad libre 1
		record("b", t1.Add(time.Minute), 5, 0), // capacidad libre 5
	}

	plan, err := ledger.AllocateReserve(records, decimal.NewFromInt(4))
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.True(t, plan[0].Amount.Equal(decimal.NewFromInt(1)), "solo 1 libre en la fila más antigua")
	assert.True(t, plan[1].Amount.Equal(decimal.NewFromInt(3)))
}

func TestAllocateReserve_CapacidadInsuficiente(t *testing.T) {
	t1 := time.Now()
	records := []*entity.StockRecord{record("a", t1, 5, 5)}

	_, err := ledger.AllocateReserve(records, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}
