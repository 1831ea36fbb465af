package router

import (
	"errors"

	auditsvc "loadplan-backend/internal/application/audit"
	authsvc "loadplan-backend/internal/application/auth"
	bulksvc "loadplan-backend/internal/application/bulk"
	catsvc "loadplan-backend/internal/application/catalog"
	demandsvc "loadplan-backend/internal/application/demand"
	"loadplan-backend/internal/application/gaps"
	"loadplan-backend/internal/application/notifications"
	orgsvc "loadplan-backend/internal/application/org"
	pwsvc "loadplan-backend/internal/application/planningweeks"
	supplysvc "loadplan-backend/internal/application/supply"
	usersvc "loadplan-backend/internal/application/user"
	"loadplan-backend/internal/config"
	"loadplan-backend/internal/constants"
	"loadplan-backend/internal/infrastructure/database"
	audithandler "loadplan-backend/internal/interfaces/handlers/audit"
	authhandler "loadplan-backend/internal/interfaces/handlers/auth"
	bulkhandler "loadplan-backend/internal/interfaces/handlers/bulk"
	cathandler "loadplan-backend/internal/interfaces/handlers/catalog"
	demandhandler "loadplan-backend/internal/interfaces/handlers/demand"
	healthhandler "loadplan-backend/internal/interfaces/handlers/health"
	orghandler "loadplan-backend/internal/interfaces/handlers/org"
	pwhandler "loadplan-backend/internal/interfaces/handlers/planningweeks"
	supplyhandler "loadplan-backend/internal/interfaces/handlers/supply"
	userhandler "loadplan-backend/internal/interfaces/handlers/user"
	"loadplan-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp opens the database and Redis named by cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.RedisURL == "" {
		return nil, nil, nil, errors.New("REDIS_URL is not set")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redis.NewClient(opts)
	return New(cfg, db, rdb), db, rdb, nil
}

// New registers every route on a fresh app backed by db and rdb.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	// Services
	audits := &auditsvc.Service{DB: db}
	engine := &gaps.Engine{DB: db, Redis: rdb, TTL: cfg.GapCacheTTL}
	var notifier notifications.Notifier = notifications.Nop{}
	if cfg.SendinblueAPIKey != "" {
		notifier = &notifications.BrevoNotifier{
			DB:         db,
			APIKey:     cfg.SendinblueAPIKey,
			MailFrom:   cfg.MailFrom,
			AppBaseURL: cfg.AppBaseURL,
		}
	}
	weeks := &pwsvc.Service{DB: db, Audit: audits, Listener: engine}
	catalog := &catsvc.Service{DB: db, Audit: audits}
	demand := &demandsvc.Service{DB: db, Audit: audits, Notifier: notifier, Watcher: engine}
	supply := &supplysvc.Service{DB: db, Audit: audits, Watcher: engine}

	// Health
	hh := &healthhandler.Handlers{Rdb: rdb, DB: &gormDBPinger{db: db}, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	// Auth
	ah := &authhandler.Handlers{UserFinder: &authsvc.GormUserFinder{DB: db}, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	// Users; create-user is public registration.
	uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db, Rdb: rdb, Audit: audits}, Config: sessionCfg}
	app.Post("/api/v1/users/create-user", uh.CreateUser)
	ug := app.Group("/api/v1/users", middleware.RequireAuth())
	ug.Get("/view-user", uh.ViewUser)
	ug.Get("/members", middleware.RequireTenant(), middleware.AuthorizePermission(constants.ViewPlans), uh.ListMembers)
	ug.Patch("/update-role", middleware.RequireTenant(), middleware.AuthorizePermission(constants.ManageMembers), uh.UpdateRole)

	// Orgs
	oh := &orghandler.Handlers{Service: &orgsvc.Service{DB: db}, Rdb: rdb, Config: sessionCfg}
	og := app.Group("/api/v1/orgs", middleware.RequireAuth())
	og.Post("/create-org", oh.CreateOrg)
	og.Get("/view-org", middleware.RequireTenant(), oh.ViewOrg)
	og.Patch("/update-org", middleware.RequireTenant(), middleware.AuthorizePermission(constants.UpdateOrg), oh.UpdateOrg)

	// Everything below is tenant data.
	api := app.Group("/api/v1", middleware.RequireAuth(), middleware.RequireTenant())
	view := middleware.AuthorizePermission(constants.ViewPlans)

	pwh := &pwhandler.Handlers{Service: weeks}
	pw := api.Group("/planning-weeks")
	pw.Get("/", view, pwh.List)
	pw.Post("/", view, pwh.Create)
	pw.Get("/:id", view, pwh.Get)
	pw.Post("/:id/lock", middleware.AuthorizePermission(constants.LockWeek), pwh.Lock)
	pw.Post("/:id/unlock", middleware.AuthorizePermission(constants.LockWeek), pwh.Unlock)

	bh := &bulkhandler.Handlers{Targets: map[string]bulksvc.Target{"demand": demand}, BatchSize: cfg.BulkBatchSize}

	ch := &cathandler.Handlers{Service: catalog}
	manage := middleware.AuthorizePermission(constants.ManageMasterData)
	for _, kind := range []catsvc.Kind{catsvc.KindCities, catsvc.KindClients, catsvc.KindSuppliers, catsvc.KindTruckTypes, catsvc.KindDemandCategories} {
		name := string(kind)
		bh.Targets[name] = catsvc.Target{Service: catalog, Kind: kind}
		g := api.Group("/" + name)
		g.Get("/", view, ch.List(kind))
		g.Post("/", manage, ch.Create(kind))
		g.Patch("/:id/deactivate", manage, ch.Deactivate(kind))
		g.Post("/check-dependencies-batch", manage, bh.CheckDependencies(name))
		g.Post("/bulk-delete", manage, bh.BulkDelete(name))
	}

	dh := &demandhandler.Handlers{Service: demand}
	editDemand := middleware.AuthorizePermission(constants.EditDemand)
	dg := api.Group("/demand")
	dg.Get("/", view, dh.List)
	dg.Post("/", editDemand, dh.Create)
	dg.Post("/check-dependencies-batch", editDemand, bh.CheckDependencies("demand"))
	dg.Post("/bulk-delete", editDemand, bh.BulkDelete("demand"))
	dg.Get("/:id", view, dh.Get)
	dg.Patch("/:id", editDemand, dh.Update)
	dg.Delete("/:id", editDemand, dh.Delete)

	sh := &supplyhandler.Handlers{Service: supply, Gaps: engine}
	editSupply := middleware.AuthorizePermission(constants.EditSupply)
	sg := api.Group("/supply")
	sg.Get("/gaps", view, sh.GapTargets)
	sg.Get("/", view, sh.List)
	sg.Post("/", editSupply, sh.Create)
	sg.Get("/:id", view, sh.Get)
	sg.Patch("/:id", editSupply, sh.Update)
	sg.Delete("/:id", editSupply, sh.Delete)

	adh := &audithandler.Handlers{Service: audits}
	api.Get("/audit-logs", view, adh.List)

	return app
}
