package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrNegativeStock      = errors.New("el ajuste dejaría el stock en negativo")
	ErrInvalidTransfer    = errors.New("traslado inválido")
)

// InsufficientStockError detalla disponible vs solicitado al fallar una salida,
// traslado o reserva. Cumple errors.Is(err, ErrInsufficientStock).
type InsufficientStockError struct {
	ProductID string
	Location  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en %s: disponible %s, solicitado %s",
		e.Location, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NegativeStockError detalla un ajuste que dejaría una fila por debajo de cero.
// Cumple errors.Is(err, ErrNegativeStock).
type NegativeStockError struct {
	ProductID string
	Location  string
	Current   decimal.Decimal
	Delta     decimal.Decimal
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("ajuste inválido en %s: actual %s, delta %s",
		e.Location, e.Current.String(), e.Delta.String())
}

func (e *NegativeStockError) Is(target error) bool {
	return target == ErrNegativeStock
}
