package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrDuplicate      = errors.New("recurso duplicado")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
	ErrConflict       = errors.New("conflicto con el estado actual")
	ErrDocumentVoided = errors.New("el documento ya fue anulado")

	// ErrBatchModeLocked: el modo de seguimiento por lotes no puede cambiar si ya existen lotes.
	ErrBatchModeLocked = errors.New("el producto ya tiene lotes; no se puede cambiar managesBatches")
)

// Errores del motor de stock. Son los "kinds" de StockError y se comparan con errors.Is.
var (
	ErrUnresolvedTenant  = errors.New("tenant no resuelto")
	ErrTenantMismatch    = errors.New("el tenant no coincide con el del recurso")
	ErrUnknownProduct    = errors.New("producto desconocido")
	ErrInvalidDelta      = errors.New("delta inválido para el tipo de evento")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorageContention = errors.New("contención en el almacenamiento")
)

// StockError resultado discriminado de una aplicación de evento de stock fallida.
// Kind es uno de los Err* del motor; el orquestador decide según el kind si reintenta o aborta.
type StockError struct {
	Kind      error
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
	Err       error // causa subyacente opcional (driver, contexto)
}

func (e *StockError) Error() string {
	msg := e.Kind.Error()
	if e.ProductID != "" {
		msg = fmt.Sprintf("%s (producto %s)", msg, e.ProductID)
	}
	if errors.Is(e.Kind, ErrInsufficientStock) {
		msg = fmt.Sprintf("%s: solicitado %s, disponible %s", msg, e.Requested, e.Available)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap permite errors.Is contra el kind y contra la causa.
func (e *StockError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewStockError construye un StockError de un kind dado.
func NewStockError(kind error, productID string) *StockError {
	return &StockError{Kind: kind, ProductID: productID}
}

// InsufficientStock construye el rechazo de negocio con cantidades solicitada y disponible.
func InsufficientStock(productID string, requested, available decimal.Decimal) *StockError {
	return &StockError{Kind: ErrInsufficientStock, ProductID: productID, Requested: requested, Available: available}
}

// Contention envuelve un error transitorio del almacenamiento.
func Contention(cause error) *StockError {
	return &StockError{Kind: ErrStorageContention, Err: cause}
}

// IsRetryable indica si el error es elegible para reintento local acotado.
// Solo StorageContention lo es; InsufficientStock es un resultado de negocio terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageContention)
}
