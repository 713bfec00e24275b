package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/fallback"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/mfa"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/middleware"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/monitoring"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/tenantgate"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/token"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

// Server wires the HTTP surface together.
type Server struct {
	cfg      *config.Config
	codec    *token.Codec
	auth     *middleware.Auth
	fallback *fallback.Manager
	mfa      *mfa.Service
	gate     *tenantgate.Factory
	metrics  *monitoring.Metrics
	log      logger.Logger

	engine *gin.Engine
	http   *http.Server
}

// New assembles the server. metrics may be nil (tests).
func New(
	cfg *config.Config,
	codec *token.Codec,
	auth *middleware.Auth,
	fallbackManager *fallback.Manager,
	mfaService *mfa.Service,
	gate *tenantgate.Factory,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		codec:    codec,
		auth:     auth,
		fallback: fallbackManager,
		mfa:      mfaService,
		gate:     gate,
		metrics:  metrics,
		log:      log.WithComponent("http-server"),
	}
	s.engine = s.buildRouter()
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) buildRouter() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if s.metrics != nil {
		engine.Use(s.metrics.RequestDuration())
	}

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = s.cfg.Server.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsCfg))

	engine.GET("/health", s.handleHealth)
	if s.metrics != nil {
		engine.GET("/metrics", s.metrics.Handler())
	}
	if s.cfg.Server.PprofEnabled {
		pprof.Register(engine)
	}

	authGroup := engine.Group("/auth")
	{
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)
		authGroup.POST("/logout", s.auth.OptionalAuth(), s.handleLogout)
		authGroup.GET("/me", s.auth.Authenticate(), s.handleMe)

		mfaGroup := authGroup.Group("/mfa", s.auth.Authenticate())
		{
			mfaGroup.POST("/setup", s.handleMFASetup)
			mfaGroup.POST("/verify", s.handleMFAVerify)
		}
	}

	// Tenant-scoped resources run the full chain and reach storage only
	// through the gate. These endpoints opt into resilience mode.
	api := engine.Group("/api",
		s.auth.AuthenticateWithFallback(),
		s.auth.RequireTenant(),
		s.auth.ValidateTenantAccess(),
	)
	{
		api.GET("/appointments", s.auth.RequirePermission("appointments.read"), s.handleListAppointments)
		api.POST("/appointments", s.auth.RequirePermission("appointments.create"), s.handleCreateAppointment)
		api.GET("/clients", s.auth.RequirePermission("clients.read"), s.handleListClients)
		api.POST("/clients", s.auth.RequirePermission("clients.create"), s.handleCreateClient)
		api.GET("/tenants/:tenantId/appointments", s.auth.RequirePermission("appointments.read"), s.handleListAppointments)
	}

	return engine
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", logger.Fields{"addr": s.http.Addr})
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info(shutdownCtx, "http server draining")
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "identity",
	})
}

// gateFor returns the data gate handle matching the identity: global for the
// platform operator, tenant-pinned for everyone else. RequireTenant has
// already guaranteed a tenant is present for non-admin roles.
func (s *Server) gateFor(identity *middleware.Identity) (*tenantgate.Handle, error) {
	if identity.IsSuperAdmin() && identity.TenantID == "" {
		return s.gate.Global(), nil
	}
	return s.gate.ForTenant(identity.TenantID)
}
