package handler

import (
	"net/http"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/middleware"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateVariant handles POST /v1/products/:id/variants. The variant and its
// INITIAL stock movement are written together.
func (h *ProductsHandler) CreateVariant(c *gin.Context) {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateVariantWithStock(c.Request.Context(), productID, req, middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) ListVariants(c *gin.Context) {
	var filter dto.VariantFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListVariants(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) GetVariant(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetVariant(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
