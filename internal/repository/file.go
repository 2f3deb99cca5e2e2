package repository

import (
	"context"

	constant "github.com/SeakMengs/DocSign/internal/constant"
	"github.com/SeakMengs/DocSign/internal/model"
	"gorm.io/gorm"
)

type FileRepository struct {
	*baseRepository
}

func (fr FileRepository) Create(ctx context.Context, tx *gorm.DB, file *model.File) (*model.File, error) {
	fr.logger.Debugf("Create file: %s", file.UniqueFileName)

	db := fr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.File{}).Create(file).Error; err != nil {
		return file, err
	}

	return file, nil
}

func (fr FileRepository) UpdateSize(ctx context.Context, tx *gorm.DB, fileID string, size int64) error {
	fr.logger.Debugf("Update size of file %s to %d", fileID, size)

	db := fr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.File{}).Where(&model.File{
		BaseModel: model.BaseModel{
			ID: fileID,
		},
	}).Update("size", size).Error
}

func (fr FileRepository) Delete(ctx context.Context, tx *gorm.DB, fileID string) error {
	fr.logger.Debugf("Delete file with fileID: %s", fileID)

	db := fr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.File{}).Where(&model.File{
		BaseModel: model.BaseModel{
			ID: fileID,
		},
	}).Delete(&model.File{}).Error
}
