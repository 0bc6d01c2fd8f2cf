package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/table-service/kds"
	"github.com/yeremiapane/table-service/middlewares"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

type KDSController struct {
	Hub      *kds.Hub
	Kitchen  *services.KitchenService
	upgrader websocket.Upgrader
}

// NewKDSController accepts websocket upgrades from allowedOrigin only; "*"
// accepts any origin.
func NewKDSController(hub *kds.Hub, kitchen *services.KitchenService, allowedOrigin string) *KDSController {
	return &KDSController{
		Hub:     hub,
		Kitchen: kitchen,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// KDSHandler streams kitchen and floor events to staff screens.
func (kc *KDSController) KDSHandler(c *gin.Context) {
	p := middlewares.PrincipalFrom(c)
	if !p.Role.IsEmployee() {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	kc.Hub.Serve(ws, p.Role)
}

// ChefQueue lists the items waiting in the kitchen.
func (kc *KDSController) ChefQueue(c *gin.Context) {
	queue, err := kc.Kitchen.ChefQueue(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen queue", queue)
}

