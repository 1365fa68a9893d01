package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	infraES "friendhub/internal/infra/elasticsearch"
	infraKafka "friendhub/internal/infra/kafka"
	"friendhub/internal/model"
	"friendhub/internal/repository"
	"friendhub/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SearchService 基于 ES 的视频检索，ES 只用来取 ID，视频数据以数据库为准
type SearchService struct {
	videoRepo *repository.VideoRepository
	index     string
}

func NewSearchService(videoRepo *repository.VideoRepository, index string) *SearchService {
	return &SearchService{videoRepo: videoRepo, index: index}
}

// Search 在索引中检索，按命中顺序返回数据库中的视频
func (s *SearchService) Search(ctx context.Context, filter repository.VideoFilter) ([]model.Video, error) {
	if !infraES.Enabled() {
		return nil, errors.New("elasticsearch client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ids, err := infraES.SearchVideoIDs(ctx, s.index, infraES.SearchQuery{
		Query:    filter.Query,
		Category: filter.Category,
		Uploader: filter.Uploader,
	})
	if err != nil {
		return nil, err
	}

	found, err := s.videoRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

// orderByIDs 按 ids 顺序排列，索引中存在但库里已删除的跳过
func orderByIDs(videos []model.Video, ids []string) []model.Video {
	byID := make(map[string]model.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	out := make([]model.Video, 0, len(videos))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// IndexVideo 写入单个视频文档
func (s *SearchService) IndexVideo(ctx context.Context, video *model.Video) error {
	return infraES.SyncVideo(ctx, s.index, infraES.DocFromVideo(video))
}

// RemoveVideo 删除单个视频文档
func (s *SearchService) RemoveVideo(ctx context.Context, videoID string) error {
	return infraES.DeleteVideo(ctx, s.index, videoID)
}

// HandleVideoEvent 消费 Kafka 视频事件，created 以数据库记录为准重新索引
func (s *SearchService) HandleVideoEvent(ctx context.Context, event *infraKafka.VideoEvent) error {
	switch event.Type {
	case infraKafka.EventVideoCreated:
		video, err := s.videoRepo.GetByID(event.VideoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 事件到达前视频已被删除
				logger.Info("Skip indexing deleted video", zap.String("video_id", event.VideoID))
				return nil
			}
			return err
		}
		return s.IndexVideo(ctx, video)
	case infraKafka.EventVideoDeleted:
		return s.RemoveVideo(ctx, event.VideoID)
	default:
		return fmt.Errorf("unknown video event type %q", event.Type)
	}
}

// Reindex 将数据库中的全部视频批量写入索引
func (s *SearchService) Reindex(ctx context.Context) (success, failed int, err error) {
	videos, err := s.videoRepo.List(repository.VideoFilter{})
	if err != nil {
		return 0, 0, err
	}
	return infraES.BulkSyncVideos(ctx, s.index, videos)
}
