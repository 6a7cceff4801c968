package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"catalog_service/config"
	"catalog_service/internal/catalog"
	"catalog_service/internal/delivery"
	"catalog_service/internal/domain"
	"catalog_service/internal/middleware"
	"catalog_service/internal/repository"
	"catalog_service/internal/usecase"
	"catalog_service/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// HTML content for the test page
const htmlTestPageContent = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Catalog Service API Test Page</title>
    <style>
        body { font-family: Helvetica, Arial, sans-serif; line-height: 1.6; padding: 20px; background-color: #f9f9f9; color: #333; }
        h1, h2 { border-bottom: 1px solid #ccc; padding-bottom: 5px; }
        ul { list-style: none; padding-left: 0; }
        li { margin-bottom: 15px; background-color: #fff; padding: 10px; border: 1px solid #eee; border-radius: 4px; }
        code { background-color: #e8e8e8; padding: 3px 6px; border-radius: 3px; font-family: Consolas, Monaco, monospace; }
        .method { font-weight: bold; display: inline-block; width: 60px; }
        .method-post { color: #49cc90; }
        .method-get { color: #61affe; }
        .method-put { color: #9012fe; }
        .method-patch { color: #fca130; }
        .method-delete { color: #f93e3e; }
        a { color: #007bff; text-decoration: none; }
    </style>
</head>
<body>
    <h1>Catalog Service API Endpoints</h1>

    <h2>Categories API</h2>
    <ul>
        <li><span class="method method-post">POST</span> <code>/categories</code> - Create a category (admin bearer token). Body: <code>{"name": "string"}</code></li>
        <li><span class="method method-get">GET</span> <code><a href="/categories">/categories</a></code> - List categories.</li>
        <li><span class="method method-get">GET</span> <code>/categories/{id}</code> - Retrieve a category.</li>
        <li><span class="method method-patch">PATCH</span> <code>/categories/{id}</code> - Rename a category (admin bearer token).</li>
        <li><span class="method method-delete">DELETE</span> <code>/categories/{id}</code> - Delete a category and its configuration (admin bearer token).</li>
        <li><span class="method method-get">GET</span> <code><a href="/categories/resolve?name=Headlight">/categories/resolve?name=</a></code> - Resolve the effective configuration for a category name.</li>
        <li><span class="method method-get">GET</span> <code><a href="/categories/defaults">/categories/defaults</a></code> - List the built-in configurations.</li>
        <li><span class="method method-get">GET</span> <code>/categories/{id}/config</code> - Retrieve the stored configuration.</li>
        <li><span class="method method-put">PUT</span> <code>/categories/{id}/config</code> - Replace the stored configuration (admin bearer token).</li>
        <li><span class="method method-delete">DELETE</span> <code>/categories/{id}/config</code> - Remove the stored configuration (admin bearer token).</li>
    </ul>

    <h2>Items API</h2>
    <ul>
        <li><span class="method method-post">POST</span> <code>/items</code> - Create a base product or, with <code>parent_id</code>, a variant.</li>
        <li><span class="method method-get">GET</span> <code><a href="/items">/items</a></code> - List items. Query: <code>limit</code>, <code>offset</code>, <code>category_id</code>, <code>parent_id</code>.</li>
        <li><span class="method method-get">GET</span> <code>/items/{id}</code> - Retrieve an item.</li>
        <li><span class="method method-patch">PATCH</span> <code>/items/{id}</code> - Update any item fields, including the <code>attributes</code> object.</li>
        <li><span class="method method-delete">DELETE</span> <code>/items/{id}</code> - Delete an item without variants.</li>
        <li><span class="method method-get">GET</span> <code>/items/{id}/variants</code> - List the variants of a base product.</li>
        <li><span class="method method-get">GET</span> <code>/items/{id}/specs</code> - Build the spec sheet of an item.</li>
        <li><span class="method method-get">GET</span> <code><a href="/items/export.csv">/items/export.csv</a></code> - Download spec sheets as CSV. Query: <code>category_id</code>.</li>
    </ul>
</body>
</html>
`

func serveTestPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(htmlTestPageContent))
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	//  Configuration and Logging Setup
	cfg := config.LoadConfig(logger)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL '%s', using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Starting Catalog Service...")

	// --- Database Connection ---
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connection established.")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.EnsureSchema(ctx, database)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to prepare database schema: %v", err)
	}

	// --- Dependency Injection ---
	// Repository Layer
	categoryRepo := repository.NewPostgresCategoryRepository(database, logger)
	itemRepo := repository.NewPostgresItemRepository(database, logger)
	var configRepo domain.CategoryConfigRepository = repository.NewPostgresConfigRepository(database, logger)
	var configCache domain.ConfigCache
	if cached := cachedConfigRepository(cfg, configRepo, logger); cached != nil {
		configRepo = cached
		configCache = cached
	}
	logger.Info("Repositories initialized.")

	// Usecase Layer
	resolver := catalog.NewResolver(configRepo, logger)
	categoryUseCase := usecase.NewCategoryUseCase(categoryRepo, configCache, logger)
	configUseCase := usecase.NewConfigUseCase(configRepo, categoryRepo, resolver, logger)
	itemUseCase := usecase.NewItemUseCase(itemRepo, categoryRepo, resolver, logger)
	logger.Info("Use cases initialized.")

	categoryHandler := delivery.NewCategoryHandler(categoryUseCase, configUseCase, logger)
	itemHandler := delivery.NewItemHandler(itemUseCase, logger)
	logger.Info("Handlers initialized.")

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	//Route Registration
	router.GET("/", serveTestPage)

	categoryHandler.RegisterRoutes(router, middleware.AdminAuth(cfg.AdminTokenHash, logger))
	itemHandler.RegisterRoutes(router)
	logger.Info("API Routes registered.")

	//  Start Server
	logger.Infof("Starting server on port %s", cfg.HTTPPort)
	if err := router.Run(cfg.HTTPPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

// cachedConfigRepository puts the Redis cache in front of repo when REDIS_ADDR
// is set and the server answers. It returns nil otherwise.
func cachedConfigRepository(cfg *config.Config, repo domain.CategoryConfigRepository, logger *logrus.Logger) *repository.CachedConfigRepository {
	if cfg.RedisAddr == "" {
		logger.Info("Config cache disabled: REDIS_ADDR is not set")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("Config cache disabled: Redis at %s is unreachable: %v", cfg.RedisAddr, err)
		_ = rdb.Close()
		return nil
	}

	logger.Infof("Config cache enabled: Redis at %s", cfg.RedisAddr)
	return repository.NewCachedConfigRepository(repo, rdb, cfg.ConfigCacheTTL, logger)
}
