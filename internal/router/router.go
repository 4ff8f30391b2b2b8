package router

import (
	"context"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/config"
	"github.com/YarKhan02/Workshop-sub000/internal/handler"
	"github.com/YarKhan02/Workshop-sub000/internal/infra"
	"github.com/YarKhan02/Workshop-sub000/internal/middleware"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"
	"github.com/YarKhan02/Workshop-sub000/internal/service"
	"github.com/YarKhan02/Workshop-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer shared by the HTTP routes and the
// background workers.
type Services struct {
	Products     repository.ProductRepository
	Availability service.AvailabilityService
	Ledger       service.StockLedgerService
	Product      service.ProductService
	Booking      service.BookingService
	Invoice      service.InvoiceService
	Jobs         service.JobDispatcher
}

// NewServices wires repositories into services.
// Dependency graph: Service ← Repository ← DB. events may be nil.
func NewServices(cfg *config.Config, db *gorm.DB, events service.EventPublisher, jobs service.JobDispatcher) *Services {
	txRunner := repository.NewTxRunner(db, time.Duration(cfg.DBLockTimeoutMS)*time.Millisecond)

	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, bookingRepo, txRunner, events, cfg.DefaultDailySlots)
	ledgerSvc := service.NewStockLedgerService(productRepo, movementRepo, txRunner, events, jobs)

	return &Services{
		Products:     productRepo,
		Availability: availabilitySvc,
		Ledger:       ledgerSvc,
		Product:      service.NewProductService(productRepo, ledgerSvc, txRunner, events),
		Booking:      service.NewBookingService(bookingRepo, availabilitySvc, txRunner),
		Invoice:      service.NewInvoiceService(invoiceRepo, productRepo, ledgerSvc),
		Jobs:         jobs,
	}
}

// New returns a configured Gin engine. brokerCB is nil when event
// publishing is disabled.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, svcs *Services, brokerCB *infra.Breaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	limiter := middleware.NewIPRateLimiter(1000, time.Minute) // 1000 req/min per IP
	limiter.StartPurge(ctx)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Prometheus())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(limiter.Middleware())

	availabilityH := handler.NewAvailabilityHandler(svcs.Availability, svcs.Jobs)
	bookingsH := handler.NewBookingsHandler(svcs.Booking)
	productsH := handler.NewProductsHandler(svcs.Product)
	stockH := handler.NewStockHandler(svcs.Ledger)
	invoicesH := handler.NewInvoicesHandler(svcs.Invoice)
	deadLetters := worker.NewDeadLetters(rdb)
	jobsH := handler.NewJobsHandler(deadLetters)

	// Public
	r.GET("/health", handler.Health(db, rdb, deadLetters, brokerCB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	Register(r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret)), availabilityH, bookingsH, productsH, stockH, invoicesH, jobsH)
	return r
}

// Register mounts the versioned API on v1. Roles: staff, admin.
func Register(
	v1 *gin.RouterGroup,
	availabilityH *handler.AvailabilityHandler,
	bookingsH *handler.BookingsHandler,
	productsH *handler.ProductsHandler,
	stockH *handler.StockHandler,
	invoicesH *handler.InvoicesHandler,
	jobsH *handler.JobsHandler,
) {
	anyRole := middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	avail := v1.Group("/availability")
	{
		avail.GET("", anyRole, availabilityH.List)
		avail.GET("/:date", anyRole, availabilityH.Get)
		avail.PUT("/:date", adminOnly, availabilityH.Update)
		avail.POST("/sync", adminOnly, availabilityH.Sync)
	}

	bookings := v1.Group("/bookings", anyRole)
	{
		bookings.POST("", bookingsH.Create)
		bookings.GET("", bookingsH.List)
		bookings.GET("/:id", bookingsH.Get)
		bookings.PATCH("/:id/status", bookingsH.UpdateStatus)
		bookings.PATCH("/:id/reschedule", bookingsH.Reschedule)
	}

	products := v1.Group("/products")
	{
		products.GET("", anyRole, productsH.List)
		products.GET("/:id", anyRole, productsH.Get)
		products.POST("", adminOnly, productsH.Create)
		products.POST("/:id/variants", adminOnly, productsH.CreateVariant)
	}

	variants := v1.Group("/variants")
	{
		variants.GET("", anyRole, productsH.ListVariants)
		variants.GET("/:id", anyRole, productsH.GetVariant)
		variants.GET("/:id/stock/history", anyRole, stockH.History)
		variants.GET("/:id/stock/summary", anyRole, stockH.Summary)
		variants.POST("/:id/stock/sale", anyRole, stockH.Sale())
		variants.POST("/:id/stock/restock", anyRole, stockH.Restock())
		variants.POST("/:id/stock/damage", anyRole, stockH.Damage())
		variants.POST("/:id/stock/adjust", adminOnly, stockH.Adjust)
		variants.POST("/:id/stock/count", adminOnly, stockH.Count)
		variants.POST("/:id/stock/recompute", adminOnly, stockH.Recompute)
	}

	v1.GET("/stock/movements", anyRole, stockH.Movements)

	invoices := v1.Group("/invoices", anyRole)
	{
		invoices.POST("", invoicesH.Create)
		invoices.GET("", invoicesH.List)
		invoices.GET("/:id", invoicesH.Get)
		invoices.POST("/:id/void", adminOnly, invoicesH.Void)
	}

	jobs := v1.Group("/jobs", adminOnly)
	{
		jobs.GET("/dead-letters", jobsH.DeadLetters)
		jobs.POST("/:queue/replay", jobsH.Replay)
	}
}
