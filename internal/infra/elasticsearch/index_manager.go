package elasticsearch

import (
	"context"
	"fmt"
	"strings"

	"friendhub/pkg/logger"

	"go.uber.org/zap"
)

// videosIndexMapping 视频索引 mapping
// title、description 用 wildcard 类型，子串匹配语义与数据库 LIKE 一致
const videosIndexMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	},
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"title": {"type": "wildcard"},
			"description": {"type": "wildcard"},
			"category": {"type": "keyword"},
			"uploader": {"type": "keyword"},
			"created_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
		}
	}
}`

// EnsureVideosIndex 确保视频索引存在，不存在则创建
func EnsureVideosIndex(ctx context.Context, index string) error {
	exists, err := IndicesExists(ctx, index)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		logger.Info("Elasticsearch videos index already exists", zap.String("index", index))
		return nil
	}

	resp, err := IndicesCreate(ctx, index, strings.NewReader(videosIndexMapping))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	// 多个进程同时启动时可能已被另一方创建
	if resp.IsError() && !strings.Contains(resp.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch videos index created", zap.String("index", index))
	return nil
}
