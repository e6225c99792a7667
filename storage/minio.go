package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"trackviz/config"
	"trackviz/logger"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const snapshotPrefix = "snapshots/"

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
	Chart        string
}

// SnapshotStore persists rendered chart frames.
type SnapshotStore interface {
	Put(ctx context.Context, id, chart string, svg []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// MinioSnapshotStore 基于 MinIO 的快照存储
type MinioSnapshotStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinioSnapshotStore 创建 MinIO 客户端并确保存储桶存在
func NewMinioSnapshotStore(ctx context.Context, cfg *config.Config) (*MinioSnapshotStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}
	return &MinioSnapshotStore{client: client, bucketName: cfg.MinioBucket}, nil
}

// ObjectName is the object key of snapshot id.
func ObjectName(id string) string {
	return snapshotPrefix + id + ".svg"
}

// Put 上传快照
func (s *MinioSnapshotStore) Put(ctx context.Context, id, chart string, svg []byte) error {
	_, err := s.client.PutObject(ctx, s.bucketName, ObjectName(id), bytes.NewReader(svg), int64(len(svg)), minio.PutObjectOptions{
		ContentType:  "image/svg+xml",
		UserMetadata: map[string]string{"chart": chart},
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", id, err)
	}
	logger.Info("快照已上传",
		logger.String("id", id),
		logger.String("chart", chart),
		logger.Int("size", len(svg)))
	return nil
}

// Get 下载快照
func (s *MinioSnapshotStore) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, ObjectName(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(id, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, notFound(id, err)
	}
	return data, nil
}

// notFound maps MinIO's NoSuchKey to ErrSnapshotNotFound.
func notFound(id string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return fmt.Errorf("failed to read snapshot %s: %w", id, err)
}

// List 列出快照，按修改时间倒序
func (s *MinioSnapshotStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:       snapshotPrefix + prefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          strings.TrimSuffix(strings.TrimPrefix(object.Key, snapshotPrefix), ".svg"),
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
			Chart:        object.UserMetadata["X-Amz-Meta-Chart"],
		})
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}
