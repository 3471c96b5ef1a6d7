package router

import (
	"time"

	"pharmazine/internal/config"
	"pharmazine/internal/handler"
	"pharmazine/internal/middleware"
	"pharmazine/internal/repository"
	"pharmazine/internal/service"
	"pharmazine/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	ledgerSvc := service.NewLedgerService(batchRepo, productRepo, movementRepo)
	allocator := service.NewAllocator(ledgerSvc)
	analyticsSvc := service.NewAnalyticsService(saleRepo, rdb, service.ABCThresholds{
		ClassA: cfg.ABCClassACutoff,
		ClassB: cfg.ABCClassBCutoff,
	})

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	saleSvc := service.NewSaleService(saleRepo, productRepo, allocator, ledgerSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productRepo)
	batchesH := handler.NewBatchesHandler(ledgerSvc, allocator)
	salesH := handler.NewSalesHandler(saleSvc)
	analyticsH := handler.NewAnalyticsHandler(analyticsSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		v1.GET("/products", productsH.ListProducts)
		v1.POST("/products", productsH.CreateProduct)
		v1.GET("/products/:id", productsH.GetProduct)
		v1.GET("/products/:id/batches", batchesH.ListBatches)
		v1.GET("/products/:id/allocation", batchesH.PreviewAllocation)

		v1.POST("/batches", batchesH.ReceiveBatch)
		v1.POST("/batches/:id/write-off", batchesH.WriteOff)

		v1.POST("/sales", salesH.CommitSale)
		v1.GET("/sales", salesH.ListSales)
		v1.GET("/sales/:id", salesH.GetSale)

		v1.GET("/analytics/abc", analyticsH.ABCClassification)

		v1.GET("/alerts/expiry", batchesH.ExpiryAlerts(cfg.ExpiryAlertDays))
		v1.GET("/alerts/low-stock", batchesH.LowStockAlerts)
	}

	return r
}
