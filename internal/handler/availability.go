package handler

import (
	"net/http"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/apierror"
	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AvailabilityHandler struct {
	svc  service.AvailabilityService
	jobs service.JobDispatcher
}

// NewAvailabilityHandler builds the handler; jobs may be nil, in which case
// async sync requests run inline.
func NewAvailabilityHandler(svc service.AvailabilityService, jobs service.JobDispatcher) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, jobs: jobs}
}

func availabilityToResponse(d *model.DailyAvailability) dto.AvailabilityResponse {
	return dto.AvailabilityResponse{
		Date:           d.Date.Format(model.DateLayout),
		TotalSlots:     d.TotalSlots,
		AvailableSlots: d.AvailableSlots,
		BookedSlots:    d.BookedSlots(),
		IsAvailable:    d.IsAvailable,
		Bookable:       d.HasAvailability(),
	}
}

func paramDate(c *gin.Context) (time.Time, bool) {
	d, err := model.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid date, expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return d, true
}

// List handles GET /v1/availability?from=&to=.
func (h *AvailabilityHandler) List(c *gin.Context) {
	var filter dto.AvailabilityRangeFilter
	if !bindQuery(c, &filter) {
		return
	}
	from, errFrom := model.ParseDate(filter.From)
	to, errTo := model.ParseDate(filter.To)
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid date range"))
		return
	}
	days, err := h.svc.ListRange(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.AvailabilityResponse, 0, len(days))
	for i := range days {
		out = append(out, availabilityToResponse(&days[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Get handles GET /v1/availability/:date.
func (h *AvailabilityHandler) Get(c *gin.Context) {
	date, ok := paramDate(c)
	if !ok {
		return
	}
	rec, err := h.svc.GetOrCreate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityToResponse(rec))
}

// Update handles PUT /v1/availability/:date.
func (h *AvailabilityHandler) Update(c *gin.Context) {
	date, ok := paramDate(c)
	if !ok {
		return
	}
	var req dto.UpdateAvailabilityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), date, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityToResponse(rec))
}

// Sync handles POST /v1/availability/sync.
func (h *AvailabilityHandler) Sync(c *gin.Context) {
	var req dto.SyncAvailabilityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, s := range req.Dates {
		d, err := model.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid date "+s))
			return
		}
		dates = append(dates, d)
	}

	if req.Async && h.jobs != nil {
		err := h.jobs.EnqueueAvailabilitySync(c.Request.Context(), dates)
		if err == nil {
			c.JSON(http.StatusAccepted, dto.SyncAvailabilityResponse{Queued: true})
			return
		}
		log.Warn().Err(err).Msg("availability sync enqueue failed, running inline")
	}

	updated, err := h.svc.SyncWithActual(c.Request.Context(), dates...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SyncAvailabilityResponse{Updated: updated})
}
