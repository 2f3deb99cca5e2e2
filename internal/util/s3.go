package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/SeakMengs/DocSign/internal/constant"
	"github.com/minio/minio-go/v7"
)

func GetDocumentDirectoryPath(userId string) string {
	return path.Join(constant.DocumentDirectory, userId)
}

func ToDocumentObjectName(userId string, uniqueFileName string) string {
	return path.Join(GetDocumentDirectoryPath(userId), path.Base(uniqueFileName))
}

func CreateBucketIfNotExists(ctx context.Context, s3 *minio.Client, bucketName string) error {
	exists, err := s3.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if !exists {
		err = s3.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return err
		}
	}

	return nil
}

type FileUploadOptions struct {
	// Object key, including any directory prefix, e.g. "documents/<userId>/<name>.pdf".
	ObjectName  string
	ContentType string
	Bucket      string
	S3          *minio.Client
}

// UploadBytesToS3 stores data under fuo.ObjectName, replacing any existing object.
func UploadBytesToS3(ctx context.Context, data []byte, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := CreateBucketIfNotExists(ctx, fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	info, err := fuo.S3.PutObject(
		ctx,
		fuo.Bucket,
		fuo.ObjectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: fuo.ContentType,
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

// UploadFileToS3ByPath uploads a local file, replacing any existing object.
func UploadFileToS3ByPath(ctx context.Context, localPath string, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := CreateBucketIfNotExists(ctx, fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	info, err := fuo.S3.FPutObject(
		ctx,
		fuo.Bucket,
		fuo.ObjectName,
		localPath,
		minio.PutObjectOptions{
			ContentType: fuo.ContentType,
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

func ReadObjectFromS3(ctx context.Context, s3 *minio.Client, bucket, objectName string) ([]byte, error) {
	object, err := s3.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return data, nil
}
