package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/middleware"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ svc service.StockLedgerService }

func NewStockHandler(svc service.StockLedgerService) *StockHandler {
	return &StockHandler{svc: svc}
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:             m.ID.String(),
		VariantID:      m.ProductVariantID.String(),
		ChangeAmount:   m.ChangeAmount,
		Reason:         m.Reason,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceID:    m.ReferenceID,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

func summaryToResponse(s *service.AdjustmentSummary) dto.AdjustmentSummaryResponse {
	return dto.AdjustmentSummaryResponse{
		VariantID:        s.VariantID.String(),
		QuantityBefore:   s.QuantityBefore,
		QuantityAfter:    s.QuantityAfter,
		AdjustmentAmount: s.AdjustmentAmount,
		MovementID:       s.MovementID.String(),
	}
}

// Adjust handles POST /v1/variants/:id/stock/adjust.
func (h *StockHandler) Adjust(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	summary, err := h.svc.AdjustStock(c.Request.Context(), id, req.Amount, req.Reason, req.ReferenceID, middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryToResponse(summary))
}

type quantityMovement func(ctx context.Context, variantID uuid.UUID, qty int, referenceID, actor string) (*service.AdjustmentSummary, error)

func (h *StockHandler) quantity(fn quantityMovement) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		var req dto.StockQuantityRequest
		if !bindAndValidate(c, &req) {
			return
		}
		summary, err := fn(c.Request.Context(), id, req.Quantity, req.ReferenceID, middleware.Actor(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, summaryToResponse(summary))
	}
}

// Sale handles POST /v1/variants/:id/stock/sale.
func (h *StockHandler) Sale() gin.HandlerFunc { return h.quantity(h.svc.CreateSaleMovement) }

// Restock handles POST /v1/variants/:id/stock/restock.
func (h *StockHandler) Restock() gin.HandlerFunc { return h.quantity(h.svc.CreateRestockMovement) }

// Damage handles POST /v1/variants/:id/stock/damage.
func (h *StockHandler) Damage() gin.HandlerFunc { return h.quantity(h.svc.CreateDamageMovement) }

// Count handles POST /v1/variants/:id/stock/count.
func (h *StockHandler) Count(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.StockCountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	summary, err := h.svc.RecordStockCount(c.Request.Context(), id, *req.CountedQuantity, req.ReferenceID, middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryToResponse(summary))
}

// History handles GET /v1/variants/:id/stock/history?limit=.
func (h *StockHandler) History(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var filter dto.StockHistoryFilter
	if !bindQuery(c, &filter) {
		return
	}
	movs, err := h.svc.GetStockHistory(c.Request.Context(), id, filter.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movementToResponse(&movs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Summary handles GET /v1/variants/:id/stock/summary.
func (h *StockHandler) Summary(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.GetStockSummary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.StockSummaryResponse{
		VariantID:     s.Variant.ID.String(),
		SKU:           s.Variant.SKU,
		Quantity:      s.Variant.Quantity,
		LowStock:      s.Variant.IsLowStock(),
		MovementCount: s.Totals.Count,
		TotalIn:       s.Totals.TotalIn,
		TotalOut:      s.Totals.TotalOut,
		StockValue:    s.StockValue,
	}
	if s.LastMovement != nil {
		last := movementToResponse(s.LastMovement)
		resp.LastMovement = &last
	}
	c.JSON(http.StatusOK, resp)
}

// Recompute handles POST /v1/variants/:id/stock/recompute.
func (h *StockHandler) Recompute(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.RecomputeQuantityFromHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RecomputeResponse{
		VariantID: r.VariantID.String(),
		Stored:    r.Stored,
		Replayed:  r.Replayed,
		Corrected: r.Corrected,
	})
}

// Movements handles GET /v1/stock/movements.
func (h *StockHandler) Movements(c *gin.Context) {
	var filter dto.StockMovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	movs, total, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movementToResponse(&movs[i]))
	}
	c.JSON(http.StatusOK, dto.StockMovementListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit})
}
