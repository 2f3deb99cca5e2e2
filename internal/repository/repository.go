package repository

import (
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type baseRepository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
	s3     *minio.Client
}

type Repository struct {
	// DB can be used for transaction. Example usage:
	// tx := r.DB.Begin()
	// defer tx.Commit()
	// Then pass tx to the repository function. and use tx.Rollback() if error occurred
	DB       *gorm.DB
	User     *UserRepository
	File     *FileRepository
	Document *DocumentRepository
}

func newBaseRepository(db *gorm.DB, logger *zap.SugaredLogger, s3 *minio.Client) *baseRepository {
	return &baseRepository{db: db, logger: logger, s3: s3}
}

func NewRepository(db *gorm.DB, logger *zap.SugaredLogger, s3 *minio.Client) *Repository {
	br := newBaseRepository(db, logger, s3)
	fileRepo := &FileRepository{baseRepository: br}

	return &Repository{
		DB:       db,
		User:     &UserRepository{baseRepository: br},
		File:     fileRepo,
		Document: &DocumentRepository{baseRepository: br, file: fileRepo},
	}
}

// Note: GORM perform write (create/update/delete) operations run inside a transaction to ensure data consistency | So this function is helpful only if we disable auto transaction
// Docs: https://gorm.io/docs/transactions.html#Disable-Default-Transaction
func (b baseRepository) withTx(db *gorm.DB, fn func(*gorm.DB) error) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})

	if err != nil {
		b.logger.Errorf("withTx Transaction error: %v", err)
	}

	return err
}

func (b baseRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}

	return b.db
}
