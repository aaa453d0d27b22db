package handlers

import (
	"net/http"
	"time"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/models"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type eventRequest struct {
	Title         *string    `json:"title"       binding:"omitempty,min=1,max=200"`
	Description   *string    `json:"description" binding:"omitempty,max=5000"`
	Location      *string    `json:"location"    binding:"omitempty,max=200"`
	EventType     *string    `json:"event_type"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	Capacity      *int       `json:"capacity"`
	ClearCapacity bool       `json:"clear_capacity"`
	IsVirtual     *bool      `json:"is_virtual"`
	URL           *string    `json:"url"         binding:"omitempty,max=500"`
}

func (r eventRequest) input() services.EventInput {
	return services.EventInput{
		Title:         r.Title,
		Description:   r.Description,
		Location:      r.Location,
		EventType:     r.EventType,
		StartsAt:      r.StartsAt,
		EndsAt:        r.EndsAt,
		Capacity:      r.Capacity,
		ClearCapacity: r.ClearCapacity,
		IsVirtual:     r.IsVirtual,
		URL:           r.URL,
	}
}

func (h *EventHandler) List(c *gin.Context) {
	events, meta, err := h.eventService.List(c.Request.Context(), middlewares.UserID(c), models.EventFilter{
		Query:     c.Query("q"),
		EventType: c.Query("event_type"),
		Past:      queryBool(c, "past"),
		Page:      pageFrom(c),
	})
	if err != nil {
		fail(c, err, "Failed to retrieve events")
		return
	}
	responses.Paged(c, events, meta, "Events retrieved successfully")
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	event, err := h.eventService.Get(c.Request.Context(), middlewares.UserID(c), id)
	if err != nil {
		fail(c, err, "Failed to retrieve event")
		return
	}
	responses.Success(c, http.StatusOK, event, "Event retrieved successfully")
}

func (h *EventHandler) Attendees(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	attendees, err := h.eventService.Attendees(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to retrieve attendees")
		return
	}
	responses.Success(c, http.StatusOK, attendees, "Attendees retrieved successfully")
}

func (h *EventHandler) Create(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid event data")
		return
	}
	if req.Title == nil || req.StartsAt == nil || req.EndsAt == nil || req.EventType == nil {
		badRequest(c, nil, "title, event_type, starts_at and ends_at are required")
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), middlewares.UserID(c), req.input())
	if err != nil {
		fail(c, err, "Could not create event")
		return
	}
	responses.Success(c, http.StatusCreated, event, "Event created successfully")
}

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid event data")
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), middlewares.CurrentActor(c), id, req.input())
	if err != nil {
		fail(c, err, "Could not update event")
		return
	}
	responses.Success(c, http.StatusOK, event, "Event updated successfully")
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.eventService.Delete(c.Request.Context(), middlewares.CurrentActor(c), id); err != nil {
		fail(c, err, "Could not delete event")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Event deleted successfully")
}

func (h *EventHandler) RSVP(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "status is required")
		return
	}

	rsvp, err := h.eventService.RSVP(c.Request.Context(), middlewares.UserID(c), id, req.Status)
	if err != nil {
		fail(c, err, "Could not save RSVP")
		return
	}
	responses.Success(c, http.StatusOK, rsvp, "RSVP saved")
}

func (h *EventHandler) CancelRSVP(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.eventService.CancelRSVP(c.Request.Context(), middlewares.UserID(c), id); err != nil {
		fail(c, err, "Could not cancel RSVP")
		return
	}
	responses.Success(c, http.StatusOK, nil, "RSVP cancelled")
}

func (h *EventHandler) MyRSVPs(c *gin.Context) {
	events, err := h.eventService.MyRSVPs(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to retrieve RSVPs")
		return
	}
	responses.Success(c, http.StatusOK, events, "RSVPs retrieved successfully")
}
