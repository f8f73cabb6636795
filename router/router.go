package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/controllers"
	"github.com/qrdine/qrdine-server/middlewares"
	"github.com/qrdine/qrdine-server/notifier"
	"github.com/qrdine/qrdine-server/services"
)

func SetupRouter(db *gorm.DB, hub *notifier.Hub) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.RateLimitMiddleware("300-M"))

	sessions := services.NewGuestSessionManager(db)
	orders := services.NewOrderService(db, sessions, hub)
	tables := services.NewTableService(db, sessions, orders, hub)

	tableCtrl := controllers.NewTableController(db, tables)
	orderCtrl := controllers.NewOrderController(db, orders)
	sessionCtrl := controllers.NewSessionController(sessions)
	menuCtrl := controllers.NewMenuItemController(db)
	notificationCtrl := controllers.NewNotificationController(db, hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/", middlewares.ActorMiddleware())
	{
		// QR entry point and table lifecycle, guest or staff
		api.POST("/scan/:salt", tableCtrl.Scan)
		api.PATCH("/tables/:salt/status", tableCtrl.ChangeTableStatus)

		// Guest session lifecycle
		api.DELETE("/sessions", sessionCtrl.EndSession)

		// Orders, guest or staff (the service decides per actor)
		api.POST("/orders/tables/:table_id", orderCtrl.CreateOrder)
		api.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		api.PATCH("/orders/:order_id", orderCtrl.UpdateOrder)
		api.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
		api.DELETE("/orders/:order_id", orderCtrl.DeleteOrder)

		// Catalog, read-only
		api.GET("/places/:place_id/menu-items", menuCtrl.GetMenuItems)
		api.GET("/menu-items/:item_id", menuCtrl.GetMenuItemByID)

		// Live event feed
		api.GET("/ws", notificationCtrl.Stream)

		// Staff management
		staff := api.Group("/manage", middlewares.StaffRequired())
		{
			staff.POST("/tables", tableCtrl.CreateTable)
			staff.GET("/tables", tableCtrl.GetAllTables)
			staff.GET("/tables/:table_id", tableCtrl.GetTableByID)
			staff.PATCH("/tables/:table_id/disabled", tableCtrl.SetTableDisabled)
			staff.POST("/tables/:table_id/salt", tableCtrl.RotateSalt)
			staff.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
			staff.GET("/tables/:table_id/orders", orderCtrl.GetOrdersByTable)
			staff.GET("/tables/:table_id/notifications", notificationCtrl.GetNotificationsByTable)
			staff.DELETE("/tables/:table_id/notifications", notificationCtrl.ClearNotifications)
		}
	}

	return r
}
