package config

import (
	"io"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/api/handlers"
	"nutrition-catalog/internal/api/routes"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/internal/middleware"
	"nutrition-catalog/internal/utils"
	"nutrition-catalog/pkg/approved"
	"nutrition-catalog/pkg/asset"
	"nutrition-catalog/pkg/catalog"
	"nutrition-catalog/pkg/jwt"
	"nutrition-catalog/pkg/submission"
	"nutrition-catalog/pkg/verification"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

type (
	Services struct {
		Metrics      *metrics.Registry
		Submissions  submission.SubmissionRepository
		Approved     approved.ApprovedRepository
		Verification verification.VerificationService
		Assets       asset.AssetStore
		Sessions     *catalog.Sessions
		JWTService   jwt.JWTService
	}

	AppOptions struct {
		// AccessLog receives the HTTP access log. Nil opens ./logs/app.log.
		AccessLog io.Writer
		// RateLimit is the per-client request budget per second. Zero disables it.
		RateLimit int
	}
)

func NewServices(b Backends) *Services {
	m := metrics.NewRegistry()

	// Repository
	submissionRepository := submission.NewSubmissionRepository(b.Docs, m)
	approvedRepository := approved.NewApprovedRepository(b.Docs, m)

	// Service
	assetStore := asset.NewAssetStore(b.RemoteBlobs, b.LocalBlobs, m, asset.Options{RemoteTimeout: b.RemoteTimeout})
	verificationService := verification.NewVerificationService(
		submissionRepository,
		approvedRepository,
		b.Moderators,
		b.Events,
		b.Notifier,
		m,
	)
	sessions := catalog.NewSessions(func(user domain.Identity) catalog.Aggregator {
		return catalog.NewAggregator(catalog.Dependencies{
			Reference:   b.Reference,
			Approved:    approvedRepository,
			Submissions: submissionRepository,
			Legacy:      b.Legacy.For(user.ID),
			Assets:      assetStore,
			Metrics:     m,
		})
	}, catalog.DefaultSessionIdle)

	return &Services{
		Metrics:      m,
		Submissions:  submissionRepository,
		Approved:     approvedRepository,
		Verification: verificationService,
		Assets:       assetStore,
		Sessions:     sessions,
		JWTService:   jwt.NewJWTService(b.JWTSecret),
	}
}

func NewApp(svc *Services, opts AppOptions) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         8 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	output := opts.AccessLog
	if output == nil {
		err := os.MkdirAll("./logs", os.ModePerm)
		if err != nil {
			log.Errorf("error creating logs directory: %v", err)
			return nil, err
		}
		file, err := os.OpenFile(
			"./logs/app.log",
			os.O_RDWR|os.O_CREATE|os.O_APPEND,
			0666,
		)
		if err != nil {
			log.Errorf("error opening file: %v", err)
			return nil, err
		}
		output = file
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Output:     output,
	}))

	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Second,
		}))
	}

	// Handler
	catalogHandler := handlers.NewCatalogHandler(svc.Sessions, validator)
	submissionHandler := handlers.NewSubmissionHandler(svc.Submissions, svc.Verification, validator)
	assetHandler := handlers.NewAssetHandler(svc.Assets)

	// routes
	routesConfig := routes.Config{
		App:               app,
		CatalogHandler:    catalogHandler,
		SubmissionHandler: submissionHandler,
		AssetHandler:      assetHandler,
		Middleware:        middlewares,
		JWTService:        svc.JWTService,
		Verification:      svc.Verification,
		Metrics:           svc.Metrics,
	}
	routesConfig.Setup()
	return app, nil
}
