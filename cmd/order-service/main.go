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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/docs"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/config"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/customer"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/db"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/fulfillment"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/health"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/httpx"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/notify"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/payment"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

const productLookupTimeout = 5 * time.Second

type services struct {
	orders      *order.Service
	confirmer   *payment.Confirmer
	webhook     *payment.Webhook
	fulfillment *fulfillment.Service
	pushes      *fulfillment.Pushes
	customers   *customer.Service
	health      *health.Checker
}

func newRouter(s services, origins []string) *gin.Engine {
	r := httpx.NewEngine(origins)

	r.GET("/healthz", s.health.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.SwaggerInfoOrders.InstanceName())))

	r.POST("/orders", createOrderHandler(s.orders))
	r.GET("/orders", listOrdersHandler(s.orders))
	r.PUT("/orders", updateOrderHandler(s.orders))
	r.GET("/orders/:id", getOrderHandler(s.orders))
	r.POST("/orders/cj-sync", providerOrderHandler(s.fulfillment))
	r.POST("/webhooks/:provider", providerWebhookHandler(s.pushes))

	r.POST("/payment/intent", createIntentHandler(s.confirmer))
	r.POST("/payment/confirm", confirmPaymentHandler(s.confirmer))
	r.POST("/payment/webhook", webhookHandler(s.webhook))

	r.POST("/customers", createCustomerHandler(s.customers))
	r.GET("/customers", findCustomerHandler(s.customers))
	r.GET("/customers/:id", getCustomerHandler(s.customers))
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

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}
	if cfg.StripeSecretKey == "" {
		log.Printf("[payment] STRIPE_SECRET_KEY not set, payment calls will be rejected")
	}

	orders := order.NewService(order.NewPGRepo(pool)).
		WithProducts(order.NewProductClient(cfg.ProductSvcURL, productLookupTimeout))
	confirmer := payment.NewConfirmer(orders, payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeTimeout), notifier)

	hc := health.New("order-service", map[string]health.Check{"postgres": pool.Ping})
	go hc.Watch(ctx, 15*time.Second)
	go func() {
		if err := hc.Serve(ctx, cfg.HealthGRPCAddr); err != nil {
			log.Printf("[health] grpc server stopped: %v", err)
		}
	}()

	// New provider orders follow the platform stored by the product
	// service; ACTIVE_PROVIDER only applies until one has been set.
	registry := provider.FromConfig(cfg)
	platforms := platform.NewService(platform.NewPGRepo(pool), registry, cfg.ActiveProvider)
	ful := fulfillment.New(orders, registry, platforms)

	r := newRouter(services{
		orders:      orders,
		confirmer:   confirmer,
		webhook:     payment.NewWebhook(cfg.StripeWebhookSecret, confirmer, orders),
		fulfillment: ful,
		pushes:      fulfillment.NewPushes(ful, provider.WebhookSecrets(cfg)),
		customers:   customer.NewService(customer.NewPGRepo(pool)),
		health:      hc,
	}, cfg.CORSOrigins)

	srv := &http.Server{Addr: cfg.OrderSvcAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("order-service listening on %s", cfg.OrderSvcAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
