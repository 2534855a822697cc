package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider abstracts where uploaded lesson media lands.
type StorageProvider interface {
	Upload(ctx context.Context, file *multipart.FileHeader, objectName string) (string, error)
	Delete(ctx context.Context, objectName string) error
}

type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var provider StorageProvider
	var err error

	switch cfg.Storage.Type {
	case util.StorageMinio:
		provider, err = newMinioStorage(cfg)
	case util.StorageOSS:
		provider, err = newOSSStorage(cfg)
	default:
		provider = &localStorage{basePath: cfg.Storage.LocalPath}
	}
	if err != nil {
		return nil, err
	}
	return &StorageService{Provider: provider}, nil
}

// UploadMedia validates an audio or video upload and stores it under a
// generated object name.
func (s *StorageService) UploadMedia(ctx context.Context, file *multipart.FileHeader, kind string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))

	allowed := util.AllowedVideoExtensions
	if kind == "audio" {
		allowed = util.AllowedAudioExtensions
	}
	ok := false
	for _, a := range allowed {
		if ext == a {
			ok = true
			break
		}
	}
	if !ok {
		return "", util.ErrUnsupportedMediaFormat
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	mimeType, err := util.ValidateMimeType(src, []string{util.MimeAudio, util.MimeVideo, util.MimeOctetStream})
	src.Close()
	if err != nil {
		return "", util.ErrUnsupportedMediaFormat
	}
	if kind == "audio" && util.IsVideo(mimeType) {
		return "", util.ErrUnsupportedMediaFormat
	}

	objectName := fmt.Sprintf("%s/%s%s", kind, model.GenerateUUID(), ext)
	return s.Provider.Upload(ctx, file, objectName)
}

type localStorage struct {
	basePath string
}

func (l *localStorage) Upload(_ context.Context, file *multipart.FileHeader, objectName string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dstPath := filepath.Join(l.basePath, objectName)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/uploads/" + objectName, nil
}

func (l *localStorage) Delete(_ context.Context, objectName string) error {
	return os.Remove(filepath.Join(l.basePath, objectName))
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

func newMinioStorage(cfg *config.Config) (*minioStorage, error) {
	client, err := minio.New(cfg.Storage.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.MinioAccessID, cfg.Storage.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Storage.MinioBucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Storage.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &minioStorage{client: client, bucket: cfg.Storage.MinioBucket}, nil
}

func (m *minioStorage) Upload(ctx context.Context, file *multipart.FileHeader, objectName string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}

	_, err = m.client.PutObject(ctx, m.bucket, objectName, src, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/%s/%s", m.bucket, objectName), nil
}

func (m *minioStorage) Delete(ctx context.Context, objectName string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
}

type ossStorage struct {
	bucket *oss.Bucket
}

func newOSSStorage(cfg *config.Config) (*ossStorage, error) {
	client, err := oss.New(cfg.Storage.OSSEndpoint, cfg.Storage.OSSAccessKey, cfg.Storage.OSSSecretKey)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.Storage.OSSBucket)
	if err != nil {
		return nil, err
	}
	return &ossStorage{bucket: bucket}, nil
}

func (o *ossStorage) Upload(_ context.Context, file *multipart.FileHeader, objectName string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := o.bucket.PutObject(objectName, src); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.%s/%s", o.bucket.BucketName, o.bucket.Client.Config.Endpoint, objectName), nil
}

func (o *ossStorage) Delete(_ context.Context, objectName string) error {
	return o.bucket.DeleteObject(objectName)
}
