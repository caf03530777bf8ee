package main

import (
	"context"
	"fmt"
	common_api "go-taskhub/internal/common/api"
	"go-taskhub/internal/authz"
	"go-taskhub/internal/authz/mongostore"
	"go-taskhub/internal/config"
	"go-taskhub/internal/database"
	"go-taskhub/internal/features/audit"
	"go-taskhub/internal/features/capability"
	"go-taskhub/internal/features/maintenance"
	"go-taskhub/internal/features/member"
	"go-taskhub/internal/features/permgroup"
	"go-taskhub/internal/features/policy"
	"go-taskhub/internal/features/review"
	"go-taskhub/internal/features/role"
	"go-taskhub/internal/features/system"
	"go-taskhub/internal/logger"
	"go-taskhub/internal/middleware"
	"go-taskhub/internal/versionfeed"
	"go-taskhub/pkg/utils"
	"log"
	"time"

	_ "go-taskhub/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, memberRepo member.MemberRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := memberRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure member indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// @title           TaskHub Authorization API
// @version         1.0
// @description     Role inheritance, permission bundles, attribute policies and version-vector cached capability checks.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Version feed (in-process hub + redis bridge)
			versionfeed.NewHub,
			versionfeed.NewFeed,

			// Initialize Repository
			audit.NewAuditRepository,
			permgroup.NewGroupRepository,
			policy.NewPolicyRepository,
			role.NewRoleRepository,
			member.NewMemberRepository,

			// Authorization engine over the feature repositories
			mongostore.NewStore,
			authz.NewEngine,

			audit.NewAuditService,
			permgroup.NewGroupService,
			policy.NewPolicyService,
			role.NewRoleService,
			member.NewMemberService,
			review.NewReviewService,
			maintenance.NewMaintenanceService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s *mongostore.Store) authz.EntityStore { return s },
			func(f *versionfeed.Feed) versionfeed.Publisher { return f },
			func(r member.MemberRepository) role.MemberRefChecker { return r },

			// Initialize Controller
			audit.NewAuditController,
			permgroup.NewGroupController,
			policy.NewPolicyController,
			role.NewRoleController,
			member.NewMemberController,
			review.NewReviewController,
			capability.NewCapabilityController,
			capability.NewFeedHandler,

			// Initialize API Routes
			AsRoute(audit.NewAuditApi),
			AsRoute(permgroup.NewGroupApi),
			AsRoute(policy.NewPolicyApi),
			AsRoute(role.NewRoleApi),
			AsRoute(member.NewMemberApi),
			AsRoute(review.NewReviewApi),
			AsRoute(capability.NewCapabilityApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,

			// Instantiating the maintenance service arms its scheduler.
			func(maintenance.MaintenanceService) {},
		),
	)

	app.Run()
}
