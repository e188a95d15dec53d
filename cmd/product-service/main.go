package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/docs"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/cache"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/config"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/db"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/health"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/httpx"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

type services struct {
	products  product.Repository
	catalog   *product.Catalog
	syncer    *product.Syncer
	platforms *platform.Service
	health    *health.Checker
	upgrader  *websocket.Upgrader
}

func newRouter(s services, origins []string) *gin.Engine {
	r := httpx.NewEngine(origins)

	r.GET("/healthz", s.health.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.SwaggerInfoProducts.InstanceName())))

	r.GET("/products", listOnlyHandler(s.products))
	r.GET("/products/search", searchHandler(s.catalog, s.platforms))
	r.POST("/products/import", importHandler(s.catalog))
	r.GET("/products/:id", getProductHandler(s.products))

	r.GET("/platforms", getPlatformHandler(s.platforms))
	r.PUT("/platforms", setPlatformHandler(s.platforms))
	r.POST("/platforms/sync", syncHandler(s.platforms, s.syncer))
	r.GET("/platforms/sync/stream", syncStreamHandler(s.platforms, s.syncer, s.upgrader))
	r.GET("/platforms/status", platformStatusHandler(s.platforms))
	return r
}

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[db] connect: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[db] migrate: %v", err)
	}

	checks := map[string]health.Check{"postgres": pool.Ping}
	registry := provider.FromConfig(cfg)
	repo := product.NewPGRepo(pool)
	margin := product.ParseMargin(cfg.DefaultMargin)
	catalog := product.NewCatalog(repo, registry).WithMargin(margin)
	platforms := platform.NewService(platform.NewPGRepo(pool), registry, cfg.ActiveProvider)

	// Without redis searches are not cached and concurrent syncs of one
	// provider are not prevented.
	var locker product.Locker
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("[cache] %v; continuing without cache", err)
		} else {
			defer rdb.Close()
			store := cache.New(rdb, "elitedrops:")
			catalog = catalog.WithCache(store, cfg.SearchCacheTTL)
			locker = store
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	syncer := product.NewSyncer(repo, registry, locker, platforms, product.SyncOptions{
		PageSize:    cfg.SyncPageSize,
		Concurrency: cfg.SyncConcurrency,
		Margin:      margin,
	})

	hc := health.New("product-service", checks)
	go hc.Watch(ctx, 15*time.Second)

	r := newRouter(services{
		products:  repo,
		catalog:   catalog,
		syncer:    syncer,
		platforms: platforms,
		health:    hc,
		upgrader:  newUpgrader(cfg.CORSOrigins),
	}, cfg.CORSOrigins)

	srv := &http.Server{Addr: cfg.ProductSvcAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("product-service listening on %s", cfg.ProductSvcAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
