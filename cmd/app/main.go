package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"pizzeria/cmd"
	"pizzeria/internal/adapters/out/postgres/sessionrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gormDB := mustConnectDB(configs)

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}

	refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := app.Catalog().Refresh(refreshCtx); err != nil {
		logger.Warn("initial location refresh failed, waiting for the refresh job",
			"error", err)
	}
	cancel()

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(app, configs.HTTPPort)
}

func getConfigs() cmd.Config {
	config := cmd.Config{
		HTTPPort:             goDotEnvVariable("HTTP_PORT"),
		WebhookSecret:        goDotEnvVariable("WEBHOOK_SECRET"),
		DBHost:               goDotEnvVariable("DB_HOST"),
		DBPort:               goDotEnvVariable("DB_PORT"),
		DBUser:               goDotEnvVariable("DB_USER"),
		DBPassword:           goDotEnvVariable("DB_PASSWORD"),
		DBName:               goDotEnvVariable("DB_NAME"),
		DBSslMode:            goDotEnvVariable("DB_SSLMODE"),
		CommerceBaseURL:      goDotEnvVariable("COMMERCE_BASE_URL"),
		CommerceTokenURL:     goDotEnvVariable("COMMERCE_TOKEN_URL"),
		CommerceClientID:     goDotEnvVariable("COMMERCE_CLIENT_ID"),
		CommerceClientSecret: goDotEnvVariable("COMMERCE_CLIENT_SECRET"),
		GeocoderBaseURL:      goDotEnvVariable("GEOCODER_BASE_URL"),
		GeocoderAPIKey:       goDotEnvVariable("GEOCODER_API_KEY"),
		ChatAPIBaseURL:       goDotEnvVariable("CHAT_API_BASE_URL"),
		BotToken:             goDotEnvVariable("BOT_TOKEN"),
		PaymentProviderToken: goDotEnvVariable("PAYMENT_PROVIDER_TOKEN"),
		PaymentCurrency:      goDotEnvVariable("PAYMENT_CURRENCY"),
		FeedbackDelay:        goDotEnvVariable("FEEDBACK_DELAY"),
	}
	return config
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func mustConnectDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if err := gormDB.AutoMigrate(&sessionrepo.SessionSlotDTO{}); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	return gormDB
}

func startWebServer(app *cmd.CompositionRoot, port string) {
	server, err := app.CreateWebhookServer()
	if err != nil {
		log.Fatalf("Error creating webhook server: %v", err)
	}

	e := echo.New()
	server.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", port)))
}
