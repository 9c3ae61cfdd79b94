package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"donation-backend/internal/util"

	"go.uber.org/zap"
)

type LocalStorage struct {
	basePath      string
	publicBaseURL string
}

func NewLocalStorage(basePath, publicBaseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStorage{basePath: basePath, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

func (s *LocalStorage) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + path)[1:]
	fullPath := filepath.Join(s.basePath, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	util.Logger.Info("文件保存成功", zap.String("fullPath", fullPath))
	return s.publicBaseURL + "/" + filepath.ToSlash(clean), nil
}
