package storage

import (
	"context"
	"fmt"
)

// Storage 保存生成的收据文档并返回可访问的 URL
type Storage interface {
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// Options 各存储后端所需的配置
type Options struct {
	Backend            string
	LocalPath          string
	PublicBaseURL      string
	S3Region           string
	S3Bucket           string
	GCSBucketName      string
	GCSCredentialsFile string
}

// New 按配置创建存储后端
func New(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Backend {
	case "local":
		return NewLocalStorage(opts.LocalPath, opts.PublicBaseURL)
	case "s3":
		return NewS3Client(opts.S3Region, opts.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, opts.GCSBucketName, opts.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", opts.Backend)
	}
}
