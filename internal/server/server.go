package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accessdomain "github.com/sitesell/sitesell/internal/access/domain"
	balancedomain "github.com/sitesell/sitesell/internal/balance/domain"
	catalogdomain "github.com/sitesell/sitesell/internal/catalog/domain"
	"github.com/sitesell/sitesell/internal/config"
	invoicedomain "github.com/sitesell/sitesell/internal/invoice/domain"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
	paymentdomain "github.com/sitesell/sitesell/internal/payment/domain"
	payoutdomain "github.com/sitesell/sitesell/internal/payout/domain"
	refunddomain "github.com/sitesell/sitesell/internal/refund/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewHTTPMetrics),
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, metrics *HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLogMiddleware(log))
	r.Use(MetricsMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, log *zap.Logger, metrics *HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, log, metrics)
}

func accessLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	accessLog := log.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		accessLog.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	catalogSvc catalogdomain.Service
	orderSvc   orderdomain.Service
	paymentSvc paymentdomain.Service
	reconciler paymentdomain.Reconciler
	accessSvc  accessdomain.Granter
	invoiceSvc invoicedomain.Issuer
	ledger     balancedomain.Ledger
	payoutSvc  payoutdomain.Service
	refundSvc  refunddomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	CatalogSvc catalogdomain.Service
	OrderSvc   orderdomain.Service
	PaymentSvc paymentdomain.Service
	Reconciler paymentdomain.Reconciler
	AccessSvc  accessdomain.Granter
	InvoiceSvc invoicedomain.Issuer
	Ledger     balancedomain.Ledger
	PayoutSvc  payoutdomain.Service
	RefundSvc  refunddomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		catalogSvc: p.CatalogSvc,
		orderSvc:   p.OrderSvc,
		paymentSvc: p.PaymentSvc,
		reconciler: p.Reconciler,
		accessSvc:  p.AccessSvc,
		invoiceSvc: p.InvoiceSvc,
		ledger:     p.Ledger,
		payoutSvc:  p.PayoutSvc,
		refundSvc:  p.RefundSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// Gateway callbacks authenticate with their own signatures, not the
	// edge identity headers.
	s.engine.POST("/api/payments/webhooks/:provider", s.handlePaymentCallback)

	api := s.engine.Group("/api")
	api.Use(ActorMiddleware())

	api.GET("/websites", s.handleListWebsites)
	api.GET("/websites/:id", s.handleGetWebsite)
	api.POST("/websites", s.handleCreateWebsite)
	api.POST("/websites/:id/tiers", s.handleCreateTier)

	api.POST("/orders", s.handleCreateOrder)
	api.GET("/orders", s.handleListOrders)
	api.GET("/orders/:id", s.handleGetOrder)
	api.POST("/orders/:id/cancel", s.handleCancelOrder)
	api.GET("/orders/:id/invoice", s.handleGetOrderInvoice)
	api.GET("/orders/:id/transactions", s.handleListOrderTransactions)
	api.POST("/orders/:id/refunds", s.handleRequestRefund)
	api.GET("/orders/:id/refunds", s.handleListOrderRefunds)

	api.POST("/payments", s.handleInitiatePayment)

	api.GET("/access", s.handleListAccess)
	api.GET("/invoices", s.handleListInvoices)

	api.GET("/balance", s.handleGetBalance)
	api.GET("/balance/withdrawable", s.handleGetWithdrawable)

	api.POST("/bank-accounts", s.handleAddBankAccount)
	api.GET("/bank-accounts", s.handleListBankAccounts)

	api.POST("/payouts", s.handleRequestPayout)
	api.GET("/payouts", s.handleListPayouts)
	api.GET("/payouts/:id", s.handleGetPayout)

	admin := api.Group("/admin")
	admin.GET("/payouts", s.handleAdminListPayouts)
	admin.POST("/payouts/:id/process", s.handleProcessPayout)
	admin.GET("/refunds/:id", s.handleGetRefund)
	admin.POST("/refunds/:id/approve", s.handleApproveRefund)
	admin.POST("/refunds/:id/reject", s.handleRejectRefund)
	admin.POST("/refunds/:id/complete", s.handleCompleteRefund)
	admin.POST("/balances/:creator_id/recalculate", s.handleRecalculateBalance)
}
