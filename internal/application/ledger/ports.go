package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// inventario: o se confirman todas las filas y movimientos, o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRecordRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Ámbitos de invalidación de caché. Reemplazan el borrado de claves por
// comodín del sistema anterior: cada ámbito mapea a un conjunto explícito
// de claves en la implementación.
const (
	ScopeProduct  = "product"
	ScopeLocation = "location"
	ScopeGlobal   = "global"
)

// CacheInvalidator colaborador externo de invalidación de caché de lecturas.
// Se dispara después del commit, best-effort: su fallo no revierte el ledger.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, scope, key string) error
}

// AuditEntry evento de auditoría orientado a humanos; separado del log de
// movimientos (que es interno al ledger y autoritativo para los balances).
type AuditEntry struct {
	ActorID     string
	Action      string
	SubjectType string
	SubjectID   string
	Before      map[string]any
	After       map[string]any
	Metadata    map[string]any
	OccurredAt  time.Time
}

// AuditSink colaborador externo append-only de auditoría. Se invoca una vez
// por operación del ledger (y por reserva/liberación), después del commit.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}
