package controller

import (
	"net/http"
	"strconv"

	"github.com/churchatlas/churchatlas/internal/middleware"
	"github.com/churchatlas/churchatlas/internal/service"

	"github.com/gin-gonic/gin"
)

type EventsControllerConfig struct{}

// EventsController is the query surface over the diagnostic auth event
// stream. Admin bearer only.
type EventsController struct {
	config EventsControllerConfig
	router *gin.RouterGroup
	events *service.AuthEventService
}

func NewEventsController(config EventsControllerConfig, router *gin.RouterGroup, events *service.AuthEventService) *EventsController {
	return &EventsController{
		config: config,
		router: router,
		events: events,
	}
}

func (controller *EventsController) SetupRoutes() {
	controller.router.GET("/events", controller.eventsHandler)
}

func (controller *EventsController) eventsHandler(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "a valid bearer token is required"})
		return
	}

	if !identity.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := controller.events.Recent(limit)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
