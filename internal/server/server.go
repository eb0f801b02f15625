package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tenantd/internal/auth/token"
	cachepkg "github.com/smallbiznis/tenantd/internal/cache"
	"github.com/smallbiznis/tenantd/internal/clock"
	"github.com/smallbiznis/tenantd/internal/config"
	"github.com/smallbiznis/tenantd/internal/ratelimit"
	"github.com/smallbiznis/tenantd/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware(log))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	db        *gorm.DB
	tenants   domain.Service
	tokens    *token.Issuer
	limiter   *ratelimit.Limiter
	cache     *cachepkg.Cache
	log       *zap.Logger
	startedAt time.Time
}

type ServerParams struct {
	fx.In

	Gin     *gin.Engine
	Cfg     config.Config
	DB      *gorm.DB
	Tenants domain.Service
	Tokens  *token.Issuer
	Limiter *ratelimit.Limiter
	Cache   *cachepkg.Cache
	Clock   clock.Clock
	Log     *zap.Logger
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		db:        p.DB,
		tenants:   p.Tenants,
		tokens:    p.Tokens,
		limiter:   p.Limiter,
		cache:     p.Cache,
		log:       p.Log,
		startedAt: p.Clock.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/health", s.Health)
	r.GET("/health/detailed", s.HealthDetailed)
	r.GET("/health/ready", s.HealthReady)
	r.GET("/health/live", s.HealthLive)

	api := r.Group("/api")
	api.POST("/admin/login", s.RateLimit(ratelimit.ClassAuth), s.AdminLogin)

	org := api.Group("/org")
	org.POST("/create", s.RateLimit(ratelimit.ClassCreate), s.CreateOrg)
	org.GET("/:organization_name", s.RateLimit(ratelimit.ClassRead), s.AuthRequired(), s.GetOrg)
	org.PUT("/update", s.RateLimit(ratelimit.ClassGeneral), s.AuthRequired(), s.UpdateOrg)
	org.DELETE("/delete", s.RateLimit(ratelimit.ClassGeneral), s.AuthRequired(), s.DeleteOrg)
}

func (s *Server) pingDB(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
