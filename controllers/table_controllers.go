package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/middlewares"
	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/services"
	"github.com/qrdine/qrdine-server/utils"
)

type TableController struct {
	DB      *gorm.DB
	Service *services.TableService
}

func NewTableController(db *gorm.DB, service *services.TableService) *TableController {
	return &TableController{DB: db, Service: service}
}

// Scan -> entry point for a scanned QR code
func (tc *TableController) Scan(c *gin.Context) {
	salt := c.Param("salt")

	var req struct {
		Passphrase string `json:"passphrase"`
	}
	// body is optional on a plain scan
	_ = c.ShouldBindJSON(&req)

	actor := middlewares.CurrentActor(c)
	result, err := tc.Service.Scan(actor, salt, req.Passphrase)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if result.PassphraseRequired {
		utils.RespondJSON(c, http.StatusOK, "Passphrase required", result)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Scan processed", result)
}

// ChangeTableStatus -> guest reset or staff status management, by salt
func (tc *TableController) ChangeTableStatus(c *gin.Context) {
	salt := c.Param("salt")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor := middlewares.CurrentActor(c)
	table, err := tc.Service.ChangeStatus(actor, salt, req.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// CreateTable -> staff adds a table to their place
func (tc *TableController) CreateTable(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)

	var req struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		PlaceID: staff.PlaceID,
		Label:   req.Label,
		Status:  models.TableStatusEmpty,
		Salt:    utils.NewTableSalt(),
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s (place=%d)", table.Label, table.PlaceID)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> tables of the caller's place
func (tc *TableController) GetAllTables(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)

	var tables []models.Table
	query := tc.DB.Where("place_id = ?", staff.PlaceID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> detail of one table in the caller's place
func (tc *TableController) GetTableByID(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.PlaceID != staff.PlaceID {
		utils.RespondAppError(c, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot view a table of place %d", staff.PlaceID, table.PlaceID)))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// SetTableDisabled -> enable/disable a table's QR entry point
func (tc *TableController) SetTableDisabled(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)
	tableID := c.Param("table_id")

	var req struct {
		Disabled *bool `json:"disabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.PlaceID != staff.PlaceID {
		utils.RespondAppError(c, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot manage a table of place %d", staff.PlaceID, table.PlaceID)))
		return
	}

	table.IsDisabled = *req.Disabled
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d disabled=%v", table.ID, table.IsDisabled)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// RotateSalt -> mints a new QR identity, invalidating printed codes
func (tc *TableController) RotateSalt(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.PlaceID != staff.PlaceID {
		utils.RespondAppError(c, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot manage a table of place %d", staff.PlaceID, table.PlaceID)))
		return
	}

	table.Salt = utils.NewTableSalt()
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d salt rotated", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table salt rotated", table)
}

// DeleteTable -> refuses while the table still has open orders
func (tc *TableController) DeleteTable(c *gin.Context) {
	staff, _ := middlewares.CurrentActor(c).(services.Staff)
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if table.PlaceID != staff.PlaceID {
		utils.RespondAppError(c, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot manage a table of place %d", staff.PlaceID, table.PlaceID)))
		return
	}

	var openOrders int64
	tc.DB.Model(&models.Order{}).
		Where("table_id = ? AND status NOT IN ?", table.ID,
			[]string{models.OrderStatusClosed, models.OrderStatusCancelled}).
		Count(&openOrders)
	if openOrders > 0 {
		utils.RespondAppError(c, utils.NewConflict("table still has open orders"))
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
