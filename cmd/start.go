package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"license-manager/core/config"
	"license-manager/core/database"
	"license-manager/core/loader"
	"license-manager/core/logger"
	"license-manager/core/middleware/auth"
	"license-manager/core/middleware/rayid"
	"license-manager/core/storage"

	"license-manager/feature/license"
	"license-manager/feature/license/store"
	licsync "license-manager/feature/license/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "license-manager/docs/swagger"
)

// @title License Manager API
// @version 1.0
// @description API for reconciling internal licenses against the partner mirror.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the license manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (Required)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		// Preflight: both license tables must exist with the columns the
		// engine matches and bookmarks on. We never migrate at startup.
		if err := database.VerifyLicenseSchema(db); err != nil {
			logg.Fatal("License schema verification failed", zap.Error(err))
		}
		logg.Info("Connected to license database", zap.String("database", cfg.Database.Name))

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			BodyLimit:             cfg.Server.BodyLimitBytes(),
		})

		// 5. Initialize Report Archiver (Optional)
		var archiver *licsync.ReportArchiver
		if cfg.Sync.ArchiveReports {
			client, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			if err := storage.EnsureBucket(cmd.Context(), client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
				logg.Fatal("Failed to prepare report bucket", zap.Error(err))
			}
			archiver = licsync.NewReportArchiver(client, cfg.Storage.Bucket, cfg.Sync.ReportPrefix)
			logg.Info("Report archiving enabled",
				zap.String("bucket", cfg.Storage.Bucket),
				zap.String("prefix", cfg.Sync.ReportPrefix),
			)
		}

		// 6. Wire the Sync Engine
		external := store.NewExternalStore(db)
		internal := store.NewInternalStore(db)
		engine := licsync.NewEngine(external, internal, archiver, logg, cfg.Sync.Options())

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(license.NewFeature(engine, external, internal, archiver, logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 2.5 Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
