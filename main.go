package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/config"
	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/notifier"
	"github.com/qrdine/qrdine-server/router"
	"github.com/qrdine/qrdine-server/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	hub := notifier.NewHub(db)
	r := router.SetupRouter(db, hub)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	utils.InfoLogger.Printf("Server listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatalf("Server stopped: %v", err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Business{},
		&models.Place{},
		&models.User{},
		&models.MenuItem{},
		&models.Table{},
		&models.GuestSessionGroup{},
		&models.GuestSession{},
		&models.Order{},
		&models.ProductPerOrder{},
		&models.Notification{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}
}
