package main

import (
	"strconv"
	"time"

	authHandler "github.com/Meesho/BharatMLStack/model-serving/internal/auth/handler"
	authRouter "github.com/Meesho/BharatMLStack/model-serving/internal/auth/router"
	"github.com/Meesho/BharatMLStack/model-serving/internal/configs"
	"github.com/Meesho/BharatMLStack/model-serving/internal/middleware"
	mlmodelController "github.com/Meesho/BharatMLStack/model-serving/internal/mlmodel/controller"
	"github.com/Meesho/BharatMLStack/model-serving/internal/mlmodel/handler"
	mlmodelRouter "github.com/Meesho/BharatMLStack/model-serving/internal/mlmodel/router"
	"github.com/Meesho/BharatMLStack/model-serving/internal/repositories/sql/prediction"
	"github.com/Meesho/BharatMLStack/model-serving/internal/repositories/sql/token"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/httpframework"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/infra"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/logger"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/metric"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	Configs        configs.Configs
	DynamicConfigs configs.DynamicConfigs
}

func (cfg *AppConfig) GetStaticConfig() interface{} {
	return &cfg.Configs
}

func (cfg *AppConfig) GetDynamicConfig() interface{} {
	return &cfg.DynamicConfigs
}

var (
	appConfig AppConfig
)

func main() {
	configs.InitConfig(&appConfig)

	logger.Init(appConfig.Configs)
	infra.InitDBConnectors(appConfig.Configs)
	metric.Init(appConfig.Configs)
	authHandler.Configure(appConfig.Configs)

	httpframework.Init(middleware.NewMiddleware().GetMiddleWares()...)
	authRouter.Init()

	connection, err := infra.SQL.GetConnection()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get database connection")
	}
	sqlConn := connection.(*infra.SQLConnection)
	repo, err := prediction.NewRepository(sqlConn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize prediction repository")
	}

	tokenRepo, err := token.NewRepository(sqlConn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token repository")
	}
	go cleanupExpiredTokens(tokenRepo)

	state := handler.NewModelState(appConfig.Configs.ModelName, appConfig.Configs.ModelVersion)
	predictor := handler.NewPredictor(state, handler.NewMockBackend())
	batch := handler.NewBatchPredictor(predictor, state, repo)
	updater := handler.NewModelUpdater(state, &handler.FileValidator{})
	mlmodelRouter.Init(mlmodelController.NewController(
		state, predictor, batch, updater, appConfig.Configs.ModelArtifactDir))

	port := appConfig.Configs.AppPort
	if port == 0 {
		port = 8080
		log.Warn().Int("port", port).Msg("App port not set, defaulting to 8080")
	}
	if err := httpframework.Instance().Run(":" + strconv.Itoa(port)); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// cleanupExpiredTokens prunes expired session tokens every hour.
func cleanupExpiredTokens(tokenRepo token.Repository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		if err := tokenRepo.CleanupExpiredTokens(); err != nil {
			log.Error().Err(err).Msg("Failed to clean up expired tokens")
		}
	}
}
