package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	accountdomain "github.com/shopbooks/shopbooks/internal/account/domain"
	allocationdomain "github.com/shopbooks/shopbooks/internal/allocation/domain"
	auditdomain "github.com/shopbooks/shopbooks/internal/audit/domain"
	"github.com/shopbooks/shopbooks/internal/config"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	"github.com/shopbooks/shopbooks/internal/observability/logger"
	"github.com/shopbooks/shopbooks/internal/observability/metrics"
	"github.com/shopbooks/shopbooks/internal/observability/tracing"
	reconciliationdomain "github.com/shopbooks/shopbooks/internal/reconciliation/domain"
	recurringdomain "github.com/shopbooks/shopbooks/internal/recurring/domain"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

const (
	headerShopID  = "X-Shop-ID"
	headerActorID = "X-Actor-ID"
)

type Params struct {
	fx.In

	Log               *zap.Logger
	Config            config.Config
	AccountSvc        accountdomain.Service
	JournalSvc        journaldomain.Service
	RecurringSvc      recurringdomain.Service
	ReconciliationSvc reconciliationdomain.Service
	AllocationSvc     allocationdomain.Service
	AuditSvc          auditdomain.Service
}

type Server struct {
	log               *zap.Logger
	cfg               config.Config
	accountSvc        accountdomain.Service
	journalSvc        journaldomain.Service
	recurringSvc      recurringdomain.Service
	reconciliationSvc reconciliationdomain.Service
	allocationSvc     allocationdomain.Service
	auditSvc          auditdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		log:               p.Log.Named("server"),
		cfg:               p.Config,
		accountSvc:        p.AccountSvc,
		journalSvc:        p.JournalSvc,
		recurringSvc:      p.RecurringSvc,
		reconciliationSvc: p.ReconciliationSvc,
		allocationSvc:     p.AllocationSvc,
		auditSvc:          p.AuditSvc,
	}
}

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware("shopbooks"))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(metrics.HTTP(metrics.Config{
		ServiceName: "shopbooks",
		Environment: cfg.Environment,
	})))
	return engine
}

// RegisterRoutes mounts the accounting API. Every route except the health
// check requires a tenant shop header.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api", s.shopScope())

	accounts := api.Group("/accounts")
	accounts.POST("", s.CreateAccount)
	accounts.POST("/seed", s.SeedAccounts)
	accounts.GET("", s.ListAccounts)
	accounts.GET("/:id", s.GetAccount)
	accounts.GET("/:id/balance", s.GetAccountBalance)
	accounts.PUT("/:id/parent", s.ReparentAccount)
	accounts.POST("/:id/deactivate", s.DeactivateAccount)
	accounts.POST("/:id/activate", s.ActivateAccount)

	journal := api.Group("/journal-entries")
	journal.POST("", s.CreateDraftEntry)
	journal.GET("", s.ListEntries)
	journal.GET("/:id", s.GetEntry)
	journal.POST("/:id/post", s.PostEntry)
	journal.POST("/:id/void", s.VoidEntry)
	journal.DELETE("/:id", s.DiscardDraftEntry)

	recurring := api.Group("/recurring-transactions")
	recurring.POST("", s.CreateRecurring)
	recurring.GET("/:id", s.GetRecurring)
	recurring.POST("/:id/deactivate", s.DeactivateRecurring)
	recurring.GET("/:id/executions", s.ListRecurringExecutions)

	reconciliations := api.Group("/reconciliations")
	reconciliations.POST("", s.ImportStatementLine)
	reconciliations.GET("", s.ListReconciliations)
	reconciliations.POST("/:id/match", s.MatchReconciliation)
	reconciliations.GET("/:id/suggestions", s.SuggestReconciliationMatches)
	reconciliations.POST("/:id/reconcile", s.ReconcileStatement)

	allocations := api.Group("/allocations")
	allocations.POST("", s.AllocateLine)
	allocations.GET("/lines/:lineId", s.ListLineAllocations)

	api.GET("/audit-logs", s.ListAuditLogs)
}

// shopScope resolves the tenant from X-Shop-ID and stashes it, along with
// the acting user, on the request context.
func (s *Server) shopScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerShopID))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_shop_id"})
			return
		}
		shopID, err := snowflake.ParseString(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_shop_id"})
			return
		}

		ctx := shopcontext.WithShopID(c.Request.Context(), shopID)
		if actor := strings.TrimSpace(c.GetHeader(headerActorID)); actor != "" {
			ctx = shopcontext.WithActor(ctx, string(auditdomain.ActorTypeUser), actor)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) actorID(c *gin.Context) string {
	if actor := strings.TrimSpace(c.GetHeader(headerActorID)); actor != "" {
		return actor
	}
	return "unknown"
}

func idParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server, engine *gin.Engine) {
		s.RegisterRoutes(engine)
	}),
	fx.Invoke(RunHTTP),
)
