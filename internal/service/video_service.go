package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"friendhub/internal/api/dto"
	"friendhub/internal/config"
	infraKafka "friendhub/internal/infra/kafka"
	"friendhub/internal/model"
	"friendhub/internal/repository"
	"friendhub/internal/storage"
	"friendhub/internal/thumbnail"
	"friendhub/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrVideoNotFound     = errors.New("视频不存在")
	ErrVideoNoPermission = errors.New("只有上传者可以删除该视频")
	ErrFileTooLarge      = errors.New("文件超过上传大小上限")
)

const maxTitleLen = 120

// EventPublisher 视频变更事件发布
type EventPublisher interface {
	PublishVideoEvent(ctx context.Context, event *infraKafka.VideoEvent) error
}

type VideoService struct {
	videoRepo *repository.VideoRepository
	userRepo  *repository.UserRepository
	store     storage.Storage
	extractor thumbnail.Extractor
	uploadCfg *config.UploadConfig

	search *SearchService
	events EventPublisher
}

func NewVideoService(
	videoRepo *repository.VideoRepository,
	userRepo *repository.UserRepository,
	store storage.Storage,
	extractor thumbnail.Extractor,
	uploadCfg *config.UploadConfig,
) *VideoService {
	if extractor == nil {
		extractor = thumbnail.NopExtractor{}
	}
	return &VideoService{
		videoRepo: videoRepo,
		userRepo:  userRepo,
		store:     store,
		extractor: extractor,
		uploadCfg: uploadCfg,
	}
}

// WithSearch 启用 ES 检索，List 优先走索引
func (s *VideoService) WithSearch(search *SearchService) *VideoService {
	s.search = search
	return s
}

// WithEvents 启用 Kafka 事件，索引由 worker 异步维护
func (s *VideoService) WithEvents(events EventPublisher) *VideoService {
	s.events = events
	return s
}

// Upload 保存视频文件，尽力生成缩略图，写入视频记录
func (s *VideoService) Upload(ctx context.Context, uploader string, req *dto.VideoUploadRequest, filename string, file io.Reader, fileSize int64) (*dto.VideoInfo, error) {
	if uploader == "" {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newValidationError("title", "标题不能为空")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, newValidationError("title", "标题不能超过 120 个字符")
	}
	if file == nil || filename == "" || fileSize == 0 {
		return nil, newValidationError("file", "请选择要上传的视频文件")
	}
	if fileSize > s.uploadCfg.MaxSize {
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.uploadCfg.IsAllowedExt(ext) {
		return nil, newValidationError("file", fmt.Sprintf("不支持的文件类型，仅允许 %s", strings.Join(s.uploadCfg.AllowedExts, " ")))
	}

	exists, err := s.userRepo.ExistsByUsername(uploader)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	video := &model.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Uploader:    uploader,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		ViewCount:   0,
		LikeCount:   0,
	}
	video.Filename = video.ID + ext

	// 先落到临时文件：ffmpeg 需要本地路径，也能得到实际大小
	staged, size, err := s.stage(file, ext)
	if err != nil {
		return nil, err
	}
	defer func() {
		staged.Close()
		os.Remove(staged.Name())
	}()

	thumbPath := staged.Name() + ".jpg"
	defer os.Remove(thumbPath)
	video.HasThumbnail = s.extractor.Extract(ctx, staged.Name(), thumbPath)

	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind staged upload: %w", err)
	}
	if err := s.store.Put(ctx, storage.KindVideo, video.Filename, staged, size, storage.ContentTypeByName(video.Filename)); err != nil {
		return nil, fmt.Errorf("store video file: %w", err)
	}

	if video.HasThumbnail {
		if err := s.putThumbnail(ctx, thumbPath, video.ThumbnailName()); err != nil {
			logger.Warn("Store thumbnail failed, using placeholder",
				zap.String("video_id", video.ID), zap.Error(err))
			video.HasThumbnail = false
		}
	}

	if err := s.videoRepo.Create(video); err != nil {
		s.removeFiles(ctx, video)
		return nil, err
	}

	logger.Info("Video uploaded",
		zap.String("video_id", video.ID),
		zap.String("uploader", uploader),
		zap.Int64("size", size),
		zap.Bool("thumbnail", video.HasThumbnail),
	)

	s.notifyCreated(ctx, video)
	return toVideoInfo(video), nil
}

// stage 将上传内容写入临时文件，超过上限或为空时报错
func (s *VideoService) stage(file io.Reader, ext string) (*os.File, int64, error) {
	workDir := s.uploadCfg.WorkDir
	if workDir != "" {
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return nil, 0, fmt.Errorf("create work dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(workDir, "upload-*"+ext)
	if err != nil {
		return nil, 0, fmt.Errorf("create staging file: %w", err)
	}

	n, err := io.Copy(tmp, io.LimitReader(file, s.uploadCfg.MaxSize+1))
	if err == nil {
		switch {
		case n == 0:
			err = newValidationError("file", "上传的文件为空")
		case n > s.uploadCfg.MaxSize:
			err = ErrFileTooLarge
		}
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, err
	}
	return tmp, n, nil
}

func (s *VideoService) putThumbnail(ctx context.Context, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return s.store.Put(ctx, storage.KindThumbnail, name, f, info.Size(), "image/jpeg")
}

// List 按关键词、分类筛选视频，最新的在前
func (s *VideoService) List(ctx context.Context, req *dto.VideoListRequest) (*dto.VideoListData, error) {
	filter := repository.VideoFilter{Query: req.Q, Category: req.Category}

	var (
		videos []model.Video
		err    error
	)
	if s.search != nil {
		videos, err = s.search.Search(ctx, filter)
		if err != nil {
			logger.Warn("ES search failed, fallback to DB", zap.Error(err))
		}
	}
	if s.search == nil || err != nil {
		videos, err = s.videoRepo.List(filter)
		if err != nil {
			return nil, err
		}
	}

	items := toVideoInfos(videos)
	return &dto.VideoListData{Videos: items, Total: len(items)}, nil
}

// GetDetail 获取视频详情，每次调用播放量 +1（不去重）
func (s *VideoService) GetDetail(videoID string) (*dto.VideoInfo, error) {
	if err := s.videoRepo.IncrementViewCount(videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	video, err := s.videoRepo.GetByID(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return toVideoInfo(video), nil
}

// Delete 删除视频（仅上传者本人），文件删除失败只记录日志
func (s *VideoService) Delete(ctx context.Context, videoID, requester string) error {
	video, err := s.videoRepo.GetByID(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}

	if requester == "" || video.Uploader != requester {
		return ErrVideoNoPermission
	}

	s.removeFiles(ctx, video)

	if err := s.videoRepo.Delete(video.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}

	logger.Info("Video deleted", zap.String("video_id", video.ID), zap.String("uploader", requester))

	s.notifyDeleted(ctx, video)
	return nil
}

func (s *VideoService) removeFiles(ctx context.Context, video *model.Video) {
	if err := s.store.Remove(ctx, storage.KindVideo, video.Filename); err != nil {
		logger.Warn("Remove video file failed", zap.String("video_id", video.ID), zap.Error(err))
	}
	if err := s.store.Remove(ctx, storage.KindThumbnail, video.ThumbnailName()); err != nil {
		logger.Warn("Remove thumbnail failed", zap.String("video_id", video.ID), zap.Error(err))
	}
}

// notifyCreated 有 Kafka 时发事件，否则直接同步索引；失败不影响上传结果
func (s *VideoService) notifyCreated(ctx context.Context, video *model.Video) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	switch {
	case s.events != nil:
		event := &infraKafka.VideoEvent{
			Type:        infraKafka.EventVideoCreated,
			VideoID:     video.ID,
			Title:       video.Title,
			Description: video.Description,
			Category:    video.Category,
			Uploader:    video.Uploader,
			CreatedAt:   video.CreatedAt,
		}
		if err := s.events.PublishVideoEvent(ctx, event); err != nil {
			logger.Error("Publish video event failed", zap.String("video_id", video.ID), zap.Error(err))
		}
	case s.search != nil:
		if err := s.search.IndexVideo(ctx, video); err != nil {
			logger.Warn("Index video failed", zap.String("video_id", video.ID), zap.Error(err))
		}
	}
}

func (s *VideoService) notifyDeleted(ctx context.Context, video *model.Video) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	switch {
	case s.events != nil:
		event := &infraKafka.VideoEvent{Type: infraKafka.EventVideoDeleted, VideoID: video.ID}
		if err := s.events.PublishVideoEvent(ctx, event); err != nil {
			logger.Error("Publish video event failed", zap.String("video_id", video.ID), zap.Error(err))
		}
	case s.search != nil:
		if err := s.search.RemoveVideo(ctx, video.ID); err != nil {
			logger.Warn("Remove video from index failed", zap.String("video_id", video.ID), zap.Error(err))
		}
	}
}

func toVideoInfo(v *model.Video) *dto.VideoInfo {
	info := &dto.VideoInfo{
		ID:           v.ID,
		Title:        v.Title,
		Filename:     v.Filename,
		Uploader:     v.Uploader,
		Category:     v.Category,
		Description:  v.Description,
		HasThumbnail: v.HasThumbnail,
		VideoURL:     "/uploads/" + v.Filename,
		ViewCount:    v.ViewCount,
		LikeCount:    v.LikeCount,
		CreatedAt:    v.CreatedAt,
	}
	if v.HasThumbnail {
		info.ThumbnailURL = "/thumbnails/" + v.ThumbnailName()
	}
	return info
}

func toVideoInfos(videos []model.Video) []dto.VideoInfo {
	items := make([]dto.VideoInfo, 0, len(videos))
	for i := range videos {
		items = append(items, *toVideoInfo(&videos[i]))
	}
	return items
}
