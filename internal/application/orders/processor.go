// Package orders orquesta ventas, compras y órdenes de producción sobre el motor de stock.
//
// Cada documento se persiste en la misma transacción en la que se aplican sus eventos de stock:
// si un evento falla, el documento no existe. La anulación aplica eventos compensatorios y marca
// el documento como anulado, también en una sola transacción.
package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

// Processor lógica común de los tres orquestadores.
type Processor struct {
	txRunner inventory.TxRunner
	engine   *inventory.StockEngine
	retry    inventory.RetryPolicy
	log      *logger.Logger
	now      func() time.Time
}

// NewProcessor construye el procesador de documentos.
func NewProcessor(txRunner inventory.TxRunner, engine *inventory.StockEngine, retry inventory.RetryPolicy, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		txRunner: txRunner,
		engine:   engine,
		retry:    retry,
		log:      log,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

var numberPrefix = map[string]string{
	entity.DocumentTypeSale:       "VTA",
	entity.DocumentTypePurchase:   "CMP",
	entity.DocumentTypeProduction: "OP",
}

// create valida y agrupa las líneas, aplica un evento por producto (orden ascendente de id) y
// persiste el documento. Todo en una transacción, reintentada solo ante contención.
func (p *Processor) create(ctx context.Context, scope tenant.Scope, docType, userID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	lines, err := mergeLines(docType, in.Lines)
	if err != nil {
		return nil, err
	}

	now := p.now()
	doc := &entity.Document{
		ID:             uuid.New().String(),
		TenantID:       scope.ID(),
		Type:           docType,
		Number:         strings.TrimSpace(in.Number),
		CounterpartyID: strings.TrimSpace(in.CounterpartyID),
		Status:         entity.DocumentStatusCommitted,
		CreatedAt:      now,
		CreatedBy:      userID,
	}
	if doc.Number == "" {
		doc.Number = numberPrefix[docType] + "-" + strings.ToUpper(doc.ID[:8])
	}
	for i := range lines {
		lines[i].ID = uuid.New().String()
		lines[i].DocumentID = doc.ID
	}
	doc.Lines = lines

	events := make([]entity.StockEvent, 0, len(lines))
	for _, l := range lines {
		events = append(events, applyEvent(doc, l, userID))
	}

	var levels []*inventory.StockLevel
	err = p.retry.Do(ctx, p.log, "create_"+docType, func() error {
		levels = levels[:0]
		return p.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
			for _, ev := range events {
				l, err := p.engine.ApplyInTx(ctx, repos, scope, ev)
				if err != nil {
					return err
				}
				levels = append(levels, l)
			}
			return repos.Documents.Create(ctx, scope, doc)
		})
	})
	if err != nil {
		p.log.Info().Err(err).
			Str("tenant_id", scope.ID()).
			Str("type", docType).
			Msg("documento rechazado")
		return nil, err
	}
	p.log.Info().
		Str("tenant_id", scope.ID()).
		Str("document_id", doc.ID).
		Str("type", docType).
		Int("lines", len(lines)).
		Str("quantity", totalQuantity(lines).String()).
		Msg("documento confirmado")
	p.engine.Publish(ctx, levels...)
	return toDocumentResponse(doc, levels), nil
}

// void anula un documento confirmado con eventos compensatorios (ReversalOf = id del documento).
func (p *Processor) void(ctx context.Context, scope tenant.Scope, docType, userID, id string) (*dto.DocumentResponse, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	var (
		doc    *entity.Document
		levels []*inventory.StockLevel
	)
	err := p.retry.Do(ctx, p.log, "void_"+docType, func() error {
		levels = levels[:0]
		return p.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
			d, err := repos.Documents.GetForUpdate(ctx, scope, id)
			if err != nil {
				return err
			}
			if d == nil || d.Type != docType {
				return domain.ErrNotFound
			}
			if d.Status == entity.DocumentStatusVoided {
				return domain.ErrDocumentVoided
			}

			lines := append([]entity.DocumentLine(nil), d.Lines...)
			sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
			for _, line := range lines {
				l, err := p.engine.ApplyInTx(ctx, repos, scope, reverseEvent(d, line, userID))
				if err != nil {
					return err
				}
				levels = append(levels, l)
			}

			at := p.now()
			if err := repos.Documents.MarkVoided(ctx, scope, d.ID, at); err != nil {
				return err
			}
			d.Status = entity.DocumentStatusVoided
			d.VoidedAt = &at
			doc = d
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	p.engine.Publish(ctx, levels...)
	return toDocumentResponse(doc, levels), nil
}

// mergeLines valida las líneas y las agrupa por producto: un evento por producto afectado.
func mergeLines(docType string, in []dto.DocumentLineRequest) ([]entity.DocumentLine, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: el documento no tiene líneas", domain.ErrInvalidInput)
	}
	byProduct := make(map[string]*entity.DocumentLine, len(in))
	for _, l := range in {
		productID := strings.TrimSpace(l.ProductID)
		if productID == "" || !l.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: cada línea requiere product_id y cantidad positiva", domain.ErrInvalidInput)
		}
		role, err := lineRole(docType, l.Role)
		if err != nil {
			return nil, err
		}
		cur, ok := byProduct[productID]
		if !ok {
			byProduct[productID] = &entity.DocumentLine{
				ProductID: productID,
				Role:      role,
				Quantity:  l.Quantity,
				ExpiresAt: l.ExpiresAt,
			}
			continue
		}
		if cur.Role != role {
			return nil, fmt.Errorf("%w: el producto %s aparece como insumo y como resultado", domain.ErrInvalidInput, productID)
		}
		cur.Quantity = cur.Quantity.Add(l.Quantity)
		if cur.ExpiresAt == nil {
			cur.ExpiresAt = l.ExpiresAt
		}
	}

	out := make([]entity.DocumentLine, 0, len(byProduct))
	for _, l := range byProduct {
		if l.Role == entity.LineRoleInput {
			l.ExpiresAt = nil
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func lineRole(docType, role string) (string, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	switch docType {
	case entity.DocumentTypeSale:
		if role == "" || role == entity.LineRoleInput {
			return entity.LineRoleInput, nil
		}
	case entity.DocumentTypePurchase:
		if role == "" || role == entity.LineRoleOutput {
			return entity.LineRoleOutput, nil
		}
	case entity.DocumentTypeProduction:
		if role == entity.LineRoleInput || role == entity.LineRoleOutput {
			return role, nil
		}
	}
	return "", fmt.Errorf("%w: rol de línea %q no válido para %s", domain.ErrInvalidInput, role, docType)
}

// applyEvent evento que registra la línea: las entradas de stock suman y las salidas restan.
func applyEvent(doc *entity.Document, l entity.DocumentLine, userID string) entity.StockEvent {
	ev := entity.StockEvent{
		TenantID:         doc.TenantID,
		ProductID:        l.ProductID,
		Kind:             eventKind(doc.Type),
		SourceDocumentID: doc.ID,
		UserID:           userID,
	}
	if l.Role == entity.LineRoleInput {
		ev.Delta = l.Quantity.Neg()
	} else {
		ev.Delta = l.Quantity
		ev.ExpiresAt = l.ExpiresAt
	}
	return ev
}

// reverseEvent evento compensatorio con el delta de signo opuesto.
func reverseEvent(doc *entity.Document, l entity.DocumentLine, userID string) entity.StockEvent {
	ev := applyEvent(doc, l, userID)
	ev.Delta = ev.Delta.Neg()
	ev.ExpiresAt = nil
	ev.ReversalOf = doc.ID
	return ev
}

func eventKind(docType string) string {
	switch docType {
	case entity.DocumentTypeSale:
		return entity.StockEventSale
	case entity.DocumentTypePurchase:
		return entity.StockEventReceipt
	default:
		return entity.StockEventProduction
	}
}

func toDocumentResponse(doc *entity.Document, levels []*inventory.StockLevel) *dto.DocumentResponse {
	out := &dto.DocumentResponse{
		ID:             doc.ID,
		Type:           doc.Type,
		Number:         doc.Number,
		CounterpartyID: doc.CounterpartyID,
		Status:         doc.Status,
		Lines:          make([]dto.DocumentLineResponse, 0, len(doc.Lines)),
		StockLevels:    make([]dto.StockLevelResponse, 0, len(levels)),
		CreatedAt:      doc.CreatedAt,
		VoidedAt:       doc.VoidedAt,
	}
	for _, l := range doc.Lines {
		out.Lines = append(out.Lines, dto.DocumentLineResponse{
			ProductID: l.ProductID,
			Role:      l.Role,
			Quantity:  l.Quantity,
			ExpiresAt: l.ExpiresAt,
		})
	}
	for _, l := range levels {
		out.StockLevels = append(out.StockLevels, ToStockLevelResponse(l))
	}
	return out
}

// ToStockLevelResponse mapea un StockLevel al DTO.
func ToStockLevelResponse(l *inventory.StockLevel) dto.StockLevelResponse {
	return dto.StockLevelResponse{
		ProductID:        l.ProductID,
		Kind:             l.Kind,
		SourceDocumentID: l.SourceDocumentID,
		ManagesBatches:   l.ManagesBatches,
		Level:            l.Level,
	}
}

// totalQuantity suma de cantidades de las líneas (logs).
func totalQuantity(lines []entity.DocumentLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity)
	}
	return total
}
