package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/middlewares"
	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/services"
	"github.com/qrdine/qrdine-server/utils"
)

type OrderController struct {
	DB      *gorm.DB
	Service *services.OrderService
}

func NewOrderController(db *gorm.DB, service *services.OrderService) *OrderController {
	return &OrderController{DB: db, Service: service}
}

// CreateOrder -> new order against an occupied table
func (oc *OrderController) CreateOrder(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Items      []services.OrderItemInput `json:"items" binding:"required"`
		TotalPrice float64                   `json:"total_price"`
		Note       *string                   `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor := middlewares.CurrentActor(c)
	order, err := oc.Service.AddOrder(actor, uint(tableID), req.Items, req.TotalPrice, req.Note)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> detail of one order with its items
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID := c.Param("order_id")

	var order models.Order
	if err := oc.DB.Preload("Items").Preload("Items.MenuItem").First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetOrdersByTable -> staff listing, optionally filtered by status
func (oc *OrderController) GetOrdersByTable(c *gin.Context) {
	tableID := c.Param("table_id")

	query := oc.DB.Preload("Items").Where("table_id = ?", tableID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// UpdateOrderStatus -> status transition, guest whitelist vs staff override
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Status      string  `json:"status" binding:"required"`
		PaymentType *string `json:"payment_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor := middlewares.CurrentActor(c)
	order, err := oc.Service.UpdateStatus(actor, uint(orderID), req.Status, req.PaymentType)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// UpdateOrder -> content edit, reconciled against existing line items
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Items []services.OrderItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor := middlewares.CurrentActor(c)
	order, err := oc.Service.UpdateOrder(actor, uint(orderID), req.Items)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// DeleteOrder -> hard delete, cancelled orders only
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor := middlewares.CurrentActor(c)
	if err := oc.Service.DeleteOrder(actor, uint(orderID)); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order deleted", gin.H{"order_id": orderID})
}
