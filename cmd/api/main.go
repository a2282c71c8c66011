package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/jhoicas/pyme-stock-api/internal/application/catalog"
	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/application/orders"
	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/domain/repository"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/messaging"
	infrapdf "github.com/jhoicas/pyme-stock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/pyme-stock-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/pyme-stock-api/internal/interfaces/http"
	"github.com/jhoicas/pyme-stock-api/pkg/config"
	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

// storage repositorios y TxRunner del driver configurado.
type storage struct {
	tenants  repository.TenantRepository
	products repository.ProductRepository
	batches  repository.BatchRepository
	txRunner inventory.TxRunner
	close    func()
}

const swaggerFile = "./docs/swagger.json"

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		demo := &entity.Tenant{
			ID:        uuid.New().String(),
			Name:      "Demo",
			Slug:      "demo",
			Status:    entity.TenantStatusActive,
			CreatedAt: time.Now().UTC(),
		}
		if err := store.Tenants().Create(ctx, demo); err != nil {
			log.Fatal().Err(err).Msg("crear tenant demo")
		}
		log.Info().Str("tenant_id", demo.ID).Str("slug", demo.Slug).Msg("tenant demo registrado")
		return storage{
			tenants:  store.Tenants(),
			products: store.Products(),
			batches:  store.Batches(),
			txRunner: memory.NewTxRunner(store),
			close:    func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
		log.Info().Msg("esquema aplicado")
	}
	return storage{
		tenants:  postgres.NewTenantRepository(pool),
		products: postgres.NewProductRepository(pool),
		batches:  postgres.NewBatchRepository(pool),
		txRunner: postgres.NewTxRunner(pool),
		close:    pool.Close,
	}
}

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs --outputTypes json

// @title                       Pyme Stock API
// @version                     1.0
// @description                 Stock por tenant: productos, lotes FIFO y documentos de venta, compra y producción.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store := openStorage(ctx, cfg, log)
	defer store.close()

	// Cache de tenants (opcional)
	var tenantCache tenancy.TenantCache
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, se resuelve sin cache")
		} else {
			defer client.Close()
			tenantCache = infraredis.NewTenantCache(client)
		}
	}

	// Publicación de cambios de stock (opcional)
	var publisher inventory.StockPublisher = messaging.NopStockPublisher{}
	if cfg.Kafka.Enabled() {
		kp := messaging.NewKafkaStockPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicando cambios de stock")
	}

	retry := inventory.RetryPolicy{Attempts: cfg.Stock.RetryAttempts, Backoff: cfg.Stock.RetryBackoff()}
	resolver := tenancy.NewResolver(store.tenants, tenantCache, cfg.Tenant.BaseDomain, cfg.Tenant.CacheTTL(), log.Component("tenancy"))
	engine := inventory.NewStockEngine(store.txRunner, publisher, retry, log.Component("stock_engine"))
	ledger := inventory.NewBatchLedger(store.products, store.batches)
	batchReportUC := inventory.NewBatchReportUseCase(ledger, infrapdf.NewBatchReportGenerator())
	productUC := catalog.NewProductUseCase(store.products, store.txRunner)
	processor := orders.NewProcessor(store.txRunner, engine, retry, log.Component("orders"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	if cfg.HTTP.DocsEnabled {
		mountDocs(app, swaggerFile, log)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Resolver:     resolver,
		TenantHeader: cfg.Tenant.Header,
		ProductUC:    productUC,
		Engine:       engine,
		Ledger:       ledger,
		BatchReport:  batchReportUC,
		SalesUC:      orders.NewSalesUseCase(processor),
		PurchasesUC:  orders.NewPurchasesUseCase(processor),
		ProductionUC: orders.NewProductionUseCase(processor),
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// mountDocs monta la UI de Swagger en /docs. El JSON se genera con `go generate ./cmd/api`;
// si no existe se registra un aviso y la API arranca sin docs.
func mountDocs(app *fiber.App, file string, log *logger.Logger) bool {
	if _, err := os.Stat(file); err != nil {
		log.Warn().Err(err).Str("file", file).Msg("swagger deshabilitado: ejecute go generate ./cmd/api")
		return false
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: file,
		Path:     "docs",
		Title:    "Pyme Stock API",
	}))
	return true
}
