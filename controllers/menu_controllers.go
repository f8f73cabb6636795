package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/utils"
)

// MenuItemController exposes the catalog read-only; editing happens in
// the management backend.
type MenuItemController struct {
	DB *gorm.DB
}

func NewMenuItemController(db *gorm.DB) *MenuItemController {
	return &MenuItemController{DB: db}
}

// GetMenuItems -> the menu of one place
func (mc *MenuItemController) GetMenuItems(c *gin.Context) {
	placeID := c.Param("place_id")

	query := mc.DB.Where("place_id = ?", placeID)
	if c.Query("available") == "true" {
		query = query.Where("is_available = ?", true)
	}

	var items []models.MenuItem
	if err := query.Order("name asc").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// GetMenuItemByID -> detail of one menu item
func (mc *MenuItemController) GetMenuItemByID(c *gin.Context) {
	itemID := c.Param("item_id")

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item detail", item)
}
