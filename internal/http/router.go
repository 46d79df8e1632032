package api

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "fleetledger/internal/config"
	h "fleetledger/internal/http/handlers"
	"fleetledger/internal/http/middleware"
	"fleetledger/internal/repositories"
	"fleetledger/internal/services"
	"fleetledger/internal/utils"
)

// NewIftaHandler wires the MySQL repositories behind the ledger handler.
func NewIftaHandler(env intconfig.Env) (h.IftaHandler, error) {
	lanes, err := services.ParseLaneTable(env.LoadDistanceTable)
	if err != nil {
		return h.IftaHandler{}, fmt.Errorf("IFTA_LOAD_DISTANCE_TABLE: %w", err)
	}

	var locks services.ScopeLocker = services.NewLocalScopeLocks()
	if env.UseDatabaseScopeLocks {
		locks = services.ChainLocks{locks, repositories.NamedLock{TimeoutSeconds: env.LockTimeoutSeconds}}
	}

	return h.IftaHandler{
		Trips:       repositories.IftaTripRepository{},
		Fuel:        repositories.FuelPurchaseRepository{},
		Loads:       repositories.LoadRepository{},
		Mileage:     repositories.StateMileageRepository{},
		Eld:         repositories.EldRepository{},
		Vehicles:    repositories.VehicleRepository{},
		Locks:       locks,
		Distances:   lanes,
		FallbackMPG: env.FallbackMPG,
		Discrepancy: services.DiscrepancyThresholds{OkPct: env.EldOkPct, WarnPct: env.EldWarnPct},
	}, nil
}

// NewRouter builds the engine over the shared DB connection. done stops
// background workers owned by middleware.
func NewRouter(env intconfig.Env, done <-chan struct{}) (*gin.Engine, error) {
	ifta, err := NewIftaHandler(env)
	if err != nil {
		return nil, err
	}
	return NewRouterWith(env, ifta, done), nil
}

// NewRouterWith builds the engine around an already wired ledger handler.
func NewRouterWith(env intconfig.Env, ifta h.IftaHandler, done <-chan struct{}) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	secret := []byte(env.JWTSecret)
	auth := h.AuthHandler{
		ClientID:         env.APIClientID,
		ClientSecretHash: env.APIClientSecretHash,
		Secret:           secret,
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		api.POST("/auth/token", auth.Token)

		ledger := api.Group("/ifta", middleware.Auth(secret))
		ledger.GET("/quarters/:quarter/aggregate", ifta.Aggregate)
		ledger.GET("/quarters/:quarter/report", ifta.Report)
		ledger.GET("/quarters/:quarter/trips", ifta.ListTrips)
		ledger.GET("/vehicles", ifta.ListVehicles)

		writer := middleware.RequireRoles(middleware.RoleClient)
		ledger.POST("/trips", writer, ifta.CreateTrip)

		ledger.GET("/quarters/:quarter/imports", ifta.PreviewImports)
		ledger.GET("/quarters/:quarter/imports/:source", ifta.PreviewImport)
		ledger.POST("/quarters/:quarter/imports/:source", writer,
			middleware.RateLimit(env.ImportRatePerMinute, 5, done), ifta.RunImport)
	}

	h.SetRouter(r)
	return r
}
