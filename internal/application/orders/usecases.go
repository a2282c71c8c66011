package orders

import (
	"context"

	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// DocumentUseCase contrato común de los orquestadores (lo consume el handler HTTP).
type DocumentUseCase interface {
	Create(ctx context.Context, scope tenant.Scope, userID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	Void(ctx context.Context, scope tenant.Scope, userID, id string) (*dto.DocumentResponse, error)
}

var (
	_ DocumentUseCase = (*SalesUseCase)(nil)
	_ DocumentUseCase = (*PurchasesUseCase)(nil)
	_ DocumentUseCase = (*ProductionUseCase)(nil)
)

// SalesUseCase ventas: cada línea descuenta stock (FIFO en productos por lotes).
type SalesUseCase struct {
	p *Processor
}

// NewSalesUseCase construye el caso de uso.
func NewSalesUseCase(p *Processor) *SalesUseCase { return &SalesUseCase{p: p} }

// Create registra la venta. Si algún producto no tiene stock suficiente la venta no se persiste.
func (uc *SalesUseCase) Create(ctx context.Context, scope tenant.Scope, userID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	return uc.p.create(ctx, scope, entity.DocumentTypeSale, userID, in)
}

// Void anula la venta devolviendo el stock a los lotes de los que salió.
func (uc *SalesUseCase) Void(ctx context.Context, scope tenant.Scope, userID, id string) (*dto.DocumentResponse, error) {
	return uc.p.void(ctx, scope, entity.DocumentTypeSale, userID, id)
}

// PurchasesUseCase compras: cada línea crea un lote (o suma al agregado).
type PurchasesUseCase struct {
	p *Processor
}

// NewPurchasesUseCase construye el caso de uso.
func NewPurchasesUseCase(p *Processor) *PurchasesUseCase { return &PurchasesUseCase{p: p} }

func (uc *PurchasesUseCase) Create(ctx context.Context, scope tenant.Scope, userID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	return uc.p.create(ctx, scope, entity.DocumentTypePurchase, userID, in)
}

// Void retira lo recibido; falla con stock insuficiente si el lote ya se consumió.
func (uc *PurchasesUseCase) Void(ctx context.Context, scope tenant.Scope, userID, id string) (*dto.DocumentResponse, error) {
	return uc.p.void(ctx, scope, entity.DocumentTypePurchase, userID, id)
}

// ProductionUseCase órdenes de producción: consume insumos (input) y produce terminados (output).
type ProductionUseCase struct {
	p *Processor
}

// NewProductionUseCase construye el caso de uso.
func NewProductionUseCase(p *Processor) *ProductionUseCase { return &ProductionUseCase{p: p} }

func (uc *ProductionUseCase) Create(ctx context.Context, scope tenant.Scope, userID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	return uc.p.create(ctx, scope, entity.DocumentTypeProduction, userID, in)
}

func (uc *ProductionUseCase) Void(ctx context.Context, scope tenant.Scope, userID, id string) (*dto.DocumentResponse, error) {
	return uc.p.void(ctx, scope, entity.DocumentTypeProduction, userID, id)
}
