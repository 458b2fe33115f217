package controller

import (
	"io"
	"net/http"

	"github.com/churchatlas/churchatlas/internal/mcp"
	"github.com/churchatlas/churchatlas/internal/middleware"

	"github.com/gin-gonic/gin"
)

type McpControllerConfig struct{}

type McpController struct {
	config     McpControllerConfig
	router     *gin.RouterGroup
	dispatcher *mcp.Dispatcher
}

func NewMcpController(config McpControllerConfig, router *gin.RouterGroup, dispatcher *mcp.Dispatcher) *McpController {
	return &McpController{
		config:     config,
		router:     router,
		dispatcher: dispatcher,
	}
}

func (controller *McpController) SetupRoutes() {
	controller.router.POST("/mcp", controller.rpcHandler)
}

// rpcHandler maps the dispatcher outcome onto HTTP: 202 with an empty
// body for pure-notification calls, 409 when a single response carries
// a concurrency conflict, 200 otherwise. Domain errors travel inside
// the envelope, not the status line.
func (controller *McpController) rpcHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	identity := middleware.GetIdentity(c)
	outcome := controller.dispatcher.Handle(identity, body)

	if outcome.AllNotifications {
		c.Status(http.StatusAccepted)
		return
	}

	status := http.StatusOK
	if len(outcome.Responses) == 1 && outcome.Responses[0].IsConflict() {
		status = http.StatusConflict
	}

	if outcome.Batch {
		c.JSON(status, outcome.Responses)
		return
	}

	c.JSON(status, outcome.Responses[0])
}
