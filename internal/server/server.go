package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	"github.com/smallbiznis/seatwise/internal/auth/session"
	"github.com/smallbiznis/seatwise/internal/authorization"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	dashboarddomain "github.com/smallbiznis/seatwise/internal/dashboard/domain"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	environmentaldomain "github.com/smallbiznis/seatwise/internal/environmental/domain"
	gamificationdomain "github.com/smallbiznis/seatwise/internal/gamification/domain"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/observability"
	obscontext "github.com/smallbiznis/seatwise/internal/observability/context"
	obsmiddleware "github.com/smallbiznis/seatwise/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/seatwise/internal/observability/metrics"
	obstracing "github.com/smallbiznis/seatwise/internal/observability/tracing"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	RegisterValidators()

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

// RunHTTP serves the engine for the lifetime of the fx app.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	clock    clock.Clock
	sessions *session.Manager

	authsvc          authdomain.Service
	authzSvc         authorization.Service
	organizationSvc  organizationdomain.Service
	departmentSvc    departmentdomain.Service
	licenseSvc       licensedomain.Service
	insightSvc       insightdomain.Service
	gamificationSvc  gamificationdomain.Service
	environmentalSvc environmentaldomain.Service
	dashboardSvc     dashboarddomain.Service
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Sessions *session.Manager

	Authsvc          authdomain.Service
	AuthzSvc         authorization.Service
	OrganizationSvc  organizationdomain.Service
	DepartmentSvc    departmentdomain.Service
	LicenseSvc       licensedomain.Service
	InsightSvc       insightdomain.Service
	GamificationSvc  gamificationdomain.Service
	EnvironmentalSvc environmentaldomain.Service
	DashboardSvc     dashboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		log:              p.Log.Named("http.server"),
		clock:            p.Clock,
		sessions:         p.Sessions,
		authsvc:          p.Authsvc,
		authzSvc:         p.AuthzSvc,
		organizationSvc:  p.OrganizationSvc,
		departmentSvc:    p.DepartmentSvc,
		licenseSvc:       p.LicenseSvc,
		insightSvc:       p.InsightSvc,
		gamificationSvc:  p.GamificationSvc,
		environmentalSvc: p.EnvironmentalSvc,
		dashboardSvc:     p.DashboardSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterRoutes mounts the auth and API route groups.
func (s *Server) RegisterRoutes() {
	s.RegisterAuthRoutes()
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Organizations --------
	api.POST("/organizations", s.CreateOrganization)

	org := api.Group("", s.OrgContext())

	org.GET("/organization", s.GetCurrentOrganization)
	org.PATCH("/organization/settings",
		s.authorizeOrgAction(authorization.ObjectOrganization, authorization.ActionSettingsUpdate),
		s.UpdateOrganizationSettings,
	)

	// -------- Departments --------
	org.GET("/departments", s.ListDepartments)
	org.POST("/departments", s.authorizeOrgAction(authorization.ObjectDepartment, authorization.ActionDepartmentManage), s.CreateDepartment)
	org.PATCH("/departments/:id", s.authorizeOrgAction(authorization.ObjectDepartment, authorization.ActionDepartmentManage), s.UpdateDepartment)
	org.DELETE("/departments/:id", s.authorizeOrgAction(authorization.ObjectDepartment, authorization.ActionDepartmentManage), s.DeleteDepartment)

	// -------- Licenses --------
	org.GET("/licenses", s.ListLicenses)
	org.GET("/licenses/export", s.ExportLicenses)
	org.POST("/licenses", s.authorizeOrgAction(authorization.ObjectLicense, authorization.ActionLicenseManage), s.CreateLicense)
	org.GET("/licenses/:id", s.GetLicenseByID)
	org.PATCH("/licenses/:id", s.authorizeOrgAction(authorization.ObjectLicense, authorization.ActionLicenseManage), s.UpdateLicense)
	org.DELETE("/licenses/:id", s.authorizeOrgAction(authorization.ObjectLicense, authorization.ActionLicenseManage), s.DeleteLicense)
	org.GET("/licenses/:id/usage", s.ListLicenseUsage)
	org.POST("/licenses/:id/usage", s.authorizeOrgAction(authorization.ObjectLicense, authorization.ActionLicenseManage), s.RecordLicenseUsage)

	// -------- Dashboard --------
	org.GET("/dashboard/overview", s.GetDashboardOverview)

	// -------- Insights --------
	org.GET("/insights", s.ListInsights)
	org.POST("/insights/generate", s.withGenerator("insights"), s.authorizeOrgAction(authorization.ObjectInsight, authorization.ActionInsightGenerate), s.GenerateInsights)
	org.PATCH("/insights/:id/status", s.UpdateInsightStatus)

	// -------- Gamification --------
	org.POST("/gamification/scores/calculate", s.withGenerator("scores"), s.authorizeOrgAction(authorization.ObjectScore, authorization.ActionScoreCalculate), s.CalculateScores)
	org.GET("/gamification/leaderboard", s.GetLeaderboard)
	org.GET("/gamification/departments/:id/performance", s.GetDepartmentPerformance)
	org.GET("/gamification/badges", s.ListBadges)
	org.POST("/gamification/badges", s.authorizeOrgAction(authorization.ObjectBadge, authorization.ActionBadgeAward), s.AwardBadge)

	// -------- Environmental --------
	org.POST("/environmental/calculate", s.withGenerator("impact"), s.authorizeOrgAction(authorization.ObjectImpact, authorization.ActionImpactCalculate), s.CalculateImpact)
	org.GET("/environmental/overview", s.GetImpactOverview)
	org.GET("/environmental/trend", s.GetImpactTrend)
	org.GET("/environmental/rankings", s.GetImpactRankings)
	org.GET("/environmental/report.pdf", s.DownloadImpactReport)
}

// withGenerator tags the request context, and so its log lines, with the generator it triggers.
func (s *Server) withGenerator(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(obscontext.WithRun(c.Request.Context(), name, ""))
		c.Next()
	}
}
