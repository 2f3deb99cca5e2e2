package appcontext

import (
	"github.com/SeakMengs/DocSign/internal/auth"
	"github.com/SeakMengs/DocSign/internal/config"
	"github.com/SeakMengs/DocSign/internal/mailer"
	"github.com/SeakMengs/DocSign/internal/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides access to users and documents.
	Repository *repository.Repository

	// JWTService issues and verifies access tokens.
	JWTService auth.JWTInterface

	// S3 stores the PDF bytes, including signed revisions.
	S3 *minio.Client

	// Mailer sends owner notifications.
	Mailer mailer.Client
}
