package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type EventRoutes struct {
	handler *handlers.EventHandler
}

func NewEventRoutes(handler *handlers.EventHandler) *EventRoutes {
	return &EventRoutes{handler: handler}
}

func (r *EventRoutes) RegisterRoutes(router *gin.RouterGroup) {
	events := router.Group("/events")
	{
		events.GET("", r.handler.List)
		events.POST("", r.handler.Create)
		events.GET("/:id", r.handler.Get)
		events.PATCH("/:id", r.handler.Update)
		events.DELETE("/:id", r.handler.Delete)
		events.GET("/:id/attendees", r.handler.Attendees)
		events.POST("/:id/rsvp", r.handler.RSVP)
		events.DELETE("/:id/rsvp", r.handler.CancelRSVP)
	}
}
