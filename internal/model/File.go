package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

type File struct {
	BaseModel
	FileName       string `gorm:"type:text;not null" json:"fileName"`
	UniqueFileName string `gorm:"type:text;not null;uniqueIndex" json:"uniqueFileName"`
	BucketName     string `gorm:"type:text;not null" json:"bucketName"`
	Size           int64  `gorm:"type:bigint;not null" json:"size"`
}

func (f File) TableName() string {
	return "files"
}

func (f File) Read(ctx context.Context, s3 *minio.Client) ([]byte, error) {
	if f.BucketName == "" || f.UniqueFileName == "" {
		return nil, errors.New("bucket name and unique file name cannot be empty")
	}

	object, err := s3.GetObject(ctx, f.BucketName, f.UniqueFileName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	return io.ReadAll(object)
}

func (f File) DownloadToLocal(ctx context.Context, s3 *minio.Client, localPath string) error {
	if f.BucketName == "" || f.UniqueFileName == "" || localPath == "" {
		return fmt.Errorf("bucket name, unique file name, and local path cannot be empty: bucket=%s, uniqueFileName=%s, localPath=%s", f.BucketName, f.UniqueFileName, localPath)
	}

	return s3.FGetObject(ctx, f.BucketName, f.UniqueFileName, localPath, minio.GetObjectOptions{})
}

func (f File) Delete(ctx context.Context, s3 *minio.Client) error {
	if f.BucketName == "" || f.UniqueFileName == "" {
		return errors.New("bucket name and unique file name cannot be empty")
	}

	return s3.RemoveObject(ctx, f.BucketName, f.UniqueFileName, minio.RemoveObjectOptions{})
}

func (f File) ToBaseFilename() string {
	return filepath.Base(f.FileName)
}
