package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"friendhub/internal/model"
	"friendhub/pkg/logger"

	"go.uber.org/zap"
)

// maxResultWindow ES 默认 index.max_result_window
const maxResultWindow = 10000

// ErrResultWindowExceeded 命中数超过单次可取回的上限，调用方应改查数据库
var ErrResultWindowExceeded = errors.New("search hits exceed result window")

// VideoDoc ES 视频文档结构
type VideoDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Uploader    string `json:"uploader"`
	CreatedAt   string `json:"created_at"`
}

// DocFromVideo 由数据库记录构造文档
func DocFromVideo(v *model.Video) *VideoDoc {
	return &VideoDoc{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Category:    v.Category,
		Uploader:    v.Uploader,
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// SyncVideo 写入或覆盖单个视频文档
func SyncVideo(ctx context.Context, index string, doc *VideoDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	resp, err := Index(ctx, index, doc.ID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index document failed: %s", resp.String())
	}

	logger.Debug("Video synced to ES", zap.String("video_id", doc.ID))
	return nil
}

// DeleteVideo 删除视频文档，文档不存在视为成功
func DeleteVideo(ctx context.Context, index, videoID string) error {
	resp, err := Delete(ctx, index, videoID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() && resp.StatusCode != 404 {
		return fmt.Errorf("delete document failed: %s", resp.String())
	}
	return nil
}

// BulkSyncVideos 批量重建视频文档
func BulkSyncVideos(ctx context.Context, index string, videos []model.Video) (success, failed int, err error) {
	var buf bytes.Buffer
	for i := range videos {
		docBody, err := json.Marshal(DocFromVideo(&videos[i]))
		if err != nil {
			return 0, len(videos), err
		}
		meta, _ := json.Marshal(map[string]any{
			"index": map[string]string{"_index": index, "_id": videos[i].ID},
		})
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(docBody)
		buf.WriteByte('\n')
	}

	if buf.Len() == 0 {
		return 0, 0, nil
	}

	resp, err := Bulk(ctx, &buf)
	if err != nil {
		return 0, len(videos), err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, len(videos), fmt.Errorf("bulk failed: %s", resp.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				Status int `json:"status"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return 0, len(videos), fmt.Errorf("decode bulk response: %w", err)
	}

	for _, item := range bulkResp.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			success++
		} else {
			failed++
		}
	}

	logger.Info("Bulk sync to ES completed", zap.Int("success", success), zap.Int("failed", failed))
	return success, failed, nil
}

// SearchQuery 搜索条件，空字段表示不过滤
type SearchQuery struct {
	Query    string
	Category string
	Uploader string
}

// BuildSearchBody 构造搜索请求体：分类、上传者精确过滤，关键词对标题或描述做大小写不敏感的子串匹配
func BuildSearchBody(q SearchQuery) map[string]any {
	filters := make([]any, 0, 3)
	if q.Category != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"category": q.Category}})
	}
	if q.Uploader != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"uploader": q.Uploader}})
	}
	if q.Query != "" {
		pattern := "*" + escapeWildcard(q.Query) + "*"
		filters = append(filters, map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"wildcard": map[string]any{"title": map[string]any{"value": pattern, "case_insensitive": true}}},
					map[string]any{"wildcard": map[string]any{"description": map[string]any{"value": pattern, "case_insensitive": true}}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	return map[string]any{
		"size":             maxResultWindow,
		"_source":          false,
		"track_total_hits": true,
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
		"sort": []any{
			map[string]any{"created_at": map[string]any{"order": "desc"}},
			map[string]any{"id": map[string]any{"order": "asc"}},
		},
	}
}

// SearchVideoIDs 返回命中的视频 ID，按创建时间倒序
func SearchVideoIDs(ctx context.Context, index string, q SearchQuery) ([]string, error) {
	body, err := json.Marshal(BuildSearchBody(q))
	if err != nil {
		return nil, err
	}

	resp, err := Search(ctx, index, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("search failed: %s", resp.String())
	}

	return decodeSearchIDs(resp.Body)
}

// decodeSearchIDs 解析命中 ID，命中总数多于取回条数时返回 ErrResultWindowExceeded
func decodeSearchIDs(r io.Reader) ([]string, error) {
	var result struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if total := result.Hits.Total.Value; total > len(result.Hits.Hits) {
		logger.Warn("Search hits exceed result window",
			zap.Int("total", total), zap.Int("returned", len(result.Hits.Hits)))
		return nil, ErrResultWindowExceeded
	}

	ids := make([]string, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// escapeWildcard 转义 wildcard 查询中的 * ? 和反斜杠
func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(s)
}
