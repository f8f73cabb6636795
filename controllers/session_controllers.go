package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qrdine/qrdine-server/middlewares"
	"github.com/qrdine/qrdine-server/services"
	"github.com/qrdine/qrdine-server/utils"
)

type SessionController struct {
	Sessions *services.GuestSessionManager
}

func NewSessionController(sessions *services.GuestSessionManager) *SessionController {
	return &SessionController{Sessions: sessions}
}

// EndSession -> a guest voluntarily leaves their table. Required before
// the same device can open a session elsewhere.
func (sc *SessionController) EndSession(c *gin.Context) {
	guest, ok := middlewares.CurrentActor(c).(services.Guest)
	if !ok {
		utils.RespondAppError(c, utils.NewForbidden("not allowed"))
		return
	}

	if err := sc.Sessions.EndSession(guest.Token); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session ended", nil)
}
