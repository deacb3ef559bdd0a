package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/scraprates/internal/activation"
	activationdomain "github.com/smallbiznis/scraprates/internal/activation/domain"
	"github.com/smallbiznis/scraprates/internal/audit"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	"github.com/smallbiznis/scraprates/internal/authorization"
	"github.com/smallbiznis/scraprates/internal/category"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/smallbiznis/scraprates/internal/note"
	notedomain "github.com/smallbiznis/scraprates/internal/note/domain"
	"github.com/smallbiznis/scraprates/internal/observability"
	obsmiddleware "github.com/smallbiznis/scraprates/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/scraprates/internal/observability/metrics"
	obstracing "github.com/smallbiznis/scraprates/internal/observability/tracing"
	"github.com/smallbiznis/scraprates/internal/rateitem"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"github.com/smallbiznis/scraprates/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	audit.Module,
	category.Module,
	rateitem.Module,
	activation.Module,
	note.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
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
	engine            *gin.Engine
	cfg               config.Config
	log               *zap.Logger
	clock             clock.Clock
	authn             authorization.Authenticator
	authzSvc          authorization.Service
	auditSvc          auditdomain.Service
	categorySvc       categorydomain.Service
	rateItemSvc       rateitemdomain.Service
	activationSvc     activationdomain.Service
	noteSvc           notedomain.Service
	paymentInfo       *config.PaymentInfoHolder
	activationLimiter activationLimiter
	obsMetrics        *obsmetrics.Metrics
}

// activationLimiter decides whether a client may attempt another activation.
type activationLimiter interface {
	Enabled() bool
	Allow(ctx context.Context, clientIP string) (*ratelimit.Result, error)
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	Log               *zap.Logger
	Clock             clock.Clock
	Authn             authorization.Authenticator
	AuthzSvc          authorization.Service
	AuditSvc          auditdomain.Service
	CategorySvc       categorydomain.Service
	RateItemSvc       rateitemdomain.Service
	ActivationSvc     activationdomain.Service
	NoteSvc           notedomain.Service
	PaymentInfo       *config.PaymentInfoHolder    `optional:"true"`
	ActivationLimiter *ratelimit.ActivationLimiter `optional:"true"`
	ObsMetrics        *obsmetrics.Metrics          `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	svc := &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		log:               log.Named("http.server"),
		clock:             p.Clock,
		authn:             p.Authn,
		authzSvc:          p.AuthzSvc,
		auditSvc:          p.AuditSvc,
		categorySvc:       p.CategorySvc,
		rateItemSvc:       p.RateItemSvc,
		activationSvc:     p.ActivationSvc,
		noteSvc:           p.NoteSvc,
		paymentInfo:       p.PaymentInfo,
		obsMetrics:        p.ObsMetrics,
	}
	if svc.clock == nil {
		svc.clock = clock.System()
	}
	if p.ActivationLimiter != nil {
		svc.activationLimiter = p.ActivationLimiter
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Catalog --------
	api.GET("/categories", s.ListCategories)
	api.GET("/categories/:id", s.GetCategoryByID)
	api.GET("/categories/:id/items", s.ListCategoryItems)
	api.GET("/categories/:id/ratesheet.pdf", s.GetCategoryRateSheet)
	api.GET("/items/:id/rate", s.GetItemRate)

	// -------- Subscription --------
	api.GET("/payment-info", s.GetPaymentInfo)
	api.POST("/activate", s.ActivationRateLimit(), s.Activate)

	// -------- Notes --------
	api.GET("/notes", s.ListActiveNotes)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")
	admin.Use(s.AdminRequired())

	admin.POST("/categories", s.authorizeAction(authorization.ObjectCategory, authorization.ActionCreate), s.CreateCategory)
	admin.PUT("/categories/:id", s.authorizeAction(authorization.ObjectCategory, authorization.ActionUpdate), s.UpdateCategory)
	admin.DELETE("/categories/:id", s.authorizeAction(authorization.ObjectCategory, authorization.ActionDelete), s.DeleteCategory)

	admin.POST("/items", s.authorizeAction(authorization.ObjectRateItem, authorization.ActionCreate), s.CreateRateItem)
	admin.PUT("/items/:id", s.authorizeAction(authorization.ObjectRateItem, authorization.ActionUpdate), s.UpdateRateItem)
	admin.DELETE("/items/:id", s.authorizeAction(authorization.ObjectRateItem, authorization.ActionDelete), s.DeleteRateItem)

	admin.GET("/activation-codes", s.authorizeAction(authorization.ObjectActivationCode, authorization.ActionView), s.ListActivationCodes)
	admin.POST("/activation-codes", s.authorizeAction(authorization.ObjectActivationCode, authorization.ActionGenerate), s.GenerateActivationCodes)
	admin.DELETE("/activation-codes/unused", s.authorizeAction(authorization.ObjectActivationCode, authorization.ActionPurge), s.DeleteUnusedActivationCodes)

	admin.GET("/notes", s.authorizeAction(authorization.ObjectNote, authorization.ActionView), s.ListNotes)
	admin.POST("/notes", s.authorizeAction(authorization.ObjectNote, authorization.ActionCreate), s.CreateNote)
	admin.PUT("/notes/:id", s.authorizeAction(authorization.ObjectNote, authorization.ActionUpdate), s.UpdateNote)
	admin.DELETE("/notes/:id", s.authorizeAction(authorization.ObjectNote, authorization.ActionDelete), s.DeleteNote)

	admin.GET("/audit-logs", s.authorizeAction(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
