package main

import (
	appcontext "github.com/SeakMengs/DocSign/internal/app_context"
	"github.com/SeakMengs/DocSign/internal/auth"
	"github.com/SeakMengs/DocSign/internal/config"
	"github.com/SeakMengs/DocSign/internal/controller"
	"github.com/SeakMengs/DocSign/internal/database"
	"github.com/SeakMengs/DocSign/internal/env"
	filestorage "github.com/SeakMengs/DocSign/internal/file_storage"
	"github.com/SeakMengs/DocSign/internal/mailer"
	"github.com/SeakMengs/DocSign/internal/middleware"
	ratelimiter "github.com/SeakMengs/DocSign/internal/rate_limiter"
	"github.com/SeakMengs/DocSign/internal/repository"
	"github.com/SeakMengs/DocSign/internal/route"
	"github.com/SeakMengs/DocSign/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	defer logger.Sync()
	logger.Debugf("Configuration: port=%s env=%s db=%s:%s/%s", cfg.Port, cfg.ENV, cfg.DB.DB_HOST, cfg.DB.DB_PORT, cfg.DB.DB_DATABASE)

	if cfg.Auth.JWT_SECRET == "" {
		logger.Panic("AUTH_JWT_SECRET must be set")
	}

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected")

	s3, err := filestorage.NewMinioClient(cfg.Minio)
	if err != nil {
		logger.Error("Error connecting to minio")
		logger.Panic(err)
	}

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			logger.Panic(err)
		}
	}

	var mail mailer.Client = mailer.NewNopMailer(logger)
	if cfg.Mail.SENDGRID_API_KEY != "" {
		mail = mailer.NewSendgrid(cfg.Mail.SENDGRID_API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger)
	} else {
		logger.Info("SENDGRID_API_KEY not set, mail delivery disabled")
	}

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	jwtService := auth.NewJwt(cfg.Auth, logger)
	repo := repository.NewRepository(db, logger, s3)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		JWTService: jwtService,
		S3:         s3,
		Mailer:     mail,
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.Document.MaxUploadSize

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	route.Auth(rApi, _controller.Auth, _middleware)
	route.Documents(rApi, _controller.Document, _middleware)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v", err)
	}
}
