package handler

import (
	"net/http"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type BookingsHandler struct{ svc service.BookingService }

func NewBookingsHandler(svc service.BookingService) *BookingsHandler {
	return &BookingsHandler{svc: svc}
}

func (h *BookingsHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingsHandler) List(c *gin.Context) {
	var filter dto.BookingFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingsHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingsHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookingStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingsHandler) Reschedule(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RescheduleBookingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reschedule(c.Request.Context(), id, req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
