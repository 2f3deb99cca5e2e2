package repository

import (
	"context"
	"time"

	constant "github.com/SeakMengs/DocSign/internal/constant"
	"github.com/SeakMengs/DocSign/internal/model"
	"github.com/SeakMengs/DocSign/pkg/docsign"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	*baseRepository
	file *FileRepository
}

// Create stores the file row and the document pointing at it in one transaction.
func (dr DocumentRepository) Create(ctx context.Context, tx *gorm.DB, doc *model.Document) (*model.Document, error) {
	dr.logger.Debugf("Create document %s for user %s", doc.Name, doc.UserID)

	db := dr.getDB(tx)
	err := dr.withTx(db, func(tx *gorm.DB) error {
		file, err := dr.file.Create(ctx, tx, &doc.File)
		if err != nil {
			return err
		}
		doc.FileID = file.ID

		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		return tx.WithContext(ctx).Model(&model.Document{}).Omit("File", "User").Create(doc).Error
	})

	return doc, err
}

// GetById returns the document only when userId owns it.
func (dr DocumentRepository) GetById(ctx context.Context, tx *gorm.DB, documentId string, userId string) (*model.Document, error) {
	dr.logger.Debugf("Get document %s of user %s", documentId, userId)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var doc model.Document
	if err := db.WithContext(ctx).Model(&model.Document{}).Preload("File").Where(&model.Document{
		BaseModel: model.BaseModel{ID: documentId},
		UserID:    userId,
	}).First(&doc).Error; err != nil {
		return nil, err
	}

	return &doc, nil
}

// Exists reports whether any user has a document with this id.
func (dr DocumentRepository) Exists(ctx context.Context, tx *gorm.DB, documentId string) (bool, error) {
	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var count int64
	if err := db.WithContext(ctx).Model(&model.Document{}).Where(&model.Document{
		BaseModel: model.BaseModel{ID: documentId},
	}).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (dr DocumentRepository) ListByUser(ctx context.Context, tx *gorm.DB, userId string, page, pageSize uint) ([]model.Document, int64, error) {
	dr.logger.Debugf("List documents of user %s, page %d size %d", userId, page, pageSize)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var (
		docs  []model.Document
		total int64
	)

	query := db.WithContext(ctx).Model(&model.Document{}).Where(&model.Document{UserID: userId})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := int((page - 1) * pageSize)
	if err := query.Order("created_at DESC").Offset(offset).Limit(int(pageSize)).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func (dr DocumentRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, documentId string, status docsign.DocumentStatus) error {
	dr.logger.Debugf("Update status of document %s to %s", documentId, status)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.Document{}).Where(&model.Document{
		BaseModel: model.BaseModel{ID: documentId},
	}).Update("status", status).Error
}

// MarkSigned records a completed placement and the new size of the stored PDF.
func (dr DocumentRepository) MarkSigned(ctx context.Context, tx *gorm.DB, doc *model.Document, size int64, signedAt time.Time) error {
	dr.logger.Debugf("Mark document %s as signed", doc.ID)

	db := dr.getDB(tx)
	return dr.withTx(db, func(tx *gorm.DB) error {
		if err := dr.file.UpdateSize(ctx, tx, doc.FileID, size); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		return tx.WithContext(ctx).Model(&model.Document{}).Where(&model.Document{
			BaseModel: model.BaseModel{ID: doc.ID},
		}).Updates(map[string]any{
			"status":         docsign.DocumentStatusSigned,
			"file_size":      size,
			"last_signed_at": signedAt,
		}).Error
	})
}

func (dr DocumentRepository) Delete(ctx context.Context, tx *gorm.DB, doc *model.Document) error {
	dr.logger.Debugf("Delete document %s", doc.ID)

	db := dr.getDB(tx)
	return dr.withTx(db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		if err := tx.WithContext(ctx).Model(&model.Document{}).Where(&model.Document{
			BaseModel: model.BaseModel{ID: doc.ID},
		}).Delete(&model.Document{}).Error; err != nil {
			return err
		}

		return dr.file.Delete(ctx, tx, doc.FileID)
	})
}
