package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIn         = "in"         // entrada
	MovementTypeOut        = "out"        // salida
	MovementTypeAdjustment = "adjustment" // ajuste directo sobre una fila
	MovementTypeTransfer   = "transfer"   // traslado entre ubicaciones
)

// Razones de movimiento (valor de dominio enumerado).
const (
	ReasonPurchase   = "purchase"
	ReasonSale       = "sale"
	ReasonReturn     = "return"
	ReasonDamage     = "damage"
	ReasonTheft      = "theft"
	ReasonExpired    = "expired"
	ReasonLost       = "lost"
	ReasonFound      = "found"
	ReasonTransfer   = "transfer"
	ReasonAdjustment = "adjustment"
	ReasonInitial    = "initial"
	ReasonReversal   = "reversal"
)

var validReasons = map[string]struct{}{
	ReasonPurchase: {}, ReasonSale: {}, ReasonReturn: {}, ReasonDamage: {},
	ReasonTheft: {}, ReasonExpired: {}, ReasonLost: {}, ReasonFound: {},
	ReasonTransfer: {}, ReasonAdjustment: {}, ReasonInitial: {}, ReasonReversal: {},
}

// IsValidReason indica si la razón pertenece al enumerado del dominio.
func IsValidReason(reason string) bool {
	_, ok := validReasons[reason]
	return ok
}

// Movement es un hecho inmutable: un cambio de cantidad con signo.
// Nunca se actualiza ni se borra; deshacer es agregar un movimiento
// compensatorio (reason=reversal) que referencia al original.
//
// La suma con signo de Quantity por (producto, ubicación, lote) debe
// reconciliar siempre con StockRecord.Quantity de esa tripleta.
type Movement struct {
	ID            string
	ProductID     string
	StockRecordID string // fila afectada; una salida FIFO produce un Movement por fila
	ActorID       string
	Type          string
	Reason        string
	Quantity      decimal.Decimal // positivo entrada, negativo salida
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal // |Quantity| * UnitCost
	LocationFrom  *string
	LocationTo    *string
	Reference     string // documento externo o, en reversal, el id del movimiento revertido
	Notes         string
	OccurredAt    time.Time
	CreatedAt     time.Time
}

// IsInbound indica si el movimiento incrementa existencias.
func (m *Movement) IsInbound() bool {
	return m.Quantity.GreaterThan(decimal.Zero)
}

// IsOutbound indica si el movimiento reduce existencias.
func (m *Movement) IsOutbound() bool {
	return m.Quantity.LessThan(decimal.Zero)
}
