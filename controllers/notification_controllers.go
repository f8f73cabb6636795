package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/middlewares"
	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/notifier"
	"github.com/qrdine/qrdine-server/services"
	"github.com/qrdine/qrdine-server/utils"
)

type NotificationController struct {
	DB  *gorm.DB
	Hub *notifier.Hub
}

func NewNotificationController(db *gorm.DB, hub *notifier.Hub) *NotificationController {
	return &NotificationController{DB: db, Hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream -> websocket feed of lifecycle events
func (nc *NotificationController) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	role := "guest"
	if staff, ok := middlewares.CurrentActor(c).(services.Staff); ok {
		role = staff.Role
	}
	nc.Hub.RegisterClient(conn, role)

	// Drain the connection; the hub only pushes.
	go func() {
		defer nc.Hub.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// GetNotificationsByTable -> staff inbox for one table
func (nc *NotificationController) GetNotificationsByTable(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)
	tableID := c.Param("table_id")

	var table models.Table
	if err := nc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.PlaceID != staff.PlaceID {
		utils.RespondAppError(c, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot view a table of place %d", staff.PlaceID, table.PlaceID)))
		return
	}

	var notifs []models.Notification
	if err := nc.DB.Where("table_id = ?", table.ID).Order("created_at desc").Find(&notifs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of notifications", notifs)
}

// ClearNotifications -> staff empties a table's inbox
func (nc *NotificationController) ClearNotifications(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)
	tableID := c.Param("table_id")

	var table models.Table
	if err := nc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.PlaceID != staff.PlaceID {
		utils.RespondAppError(c, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot manage a table of place %d", staff.PlaceID, table.PlaceID)))
		return
	}

	if err := nc.DB.Where("table_id = ?", table.ID).Delete(&models.Notification{}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notifications cleared", gin.H{"table_id": table.ID})
}
