package service

import (
	"errors"

	"friendhub/internal/api/dto"
	"friendhub/internal/repository"

	"gorm.io/gorm"
)

type UserService struct {
	userRepo  *repository.UserRepository
	videoRepo *repository.VideoRepository
}

func NewUserService(userRepo *repository.UserRepository, videoRepo *repository.VideoRepository) *UserService {
	return &UserService{userRepo: userRepo, videoRepo: videoRepo}
}

// ListByUploader 用户主页：用户信息及其上传的视频，最新的在前
func (s *UserService) ListByUploader(username string) (*dto.ProfileData, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	videos, err := s.videoRepo.List(repository.VideoFilter{Uploader: user.Username})
	if err != nil {
		return nil, err
	}

	items := toVideoInfos(videos)
	return &dto.ProfileData{
		User:   *toUserInfo(user),
		Videos: items,
		Total:  len(items),
	}, nil
}
