package web

import (
	"time"

	"friendhub/internal/api/dto"
)

// Layout 所有页面共用的布局数据
type Layout struct {
	Title       string
	CurrentUser string
	Flashes     []Flash
	Query       string
	Category    string
	Categories  []string
}

// VideoCard 列表中的视频卡片
type VideoCard struct {
	ID           string
	Title        string
	Category     string
	Uploader     string
	ThumbnailURL string
	ViewCount    int64
	CreatedAt    time.Time
}

// VideoDetail 视频页展示数据
type VideoDetail struct {
	VideoCard
	Description string
	VideoURL    string
	ContentType string
	LikeCount   int64
}

type HomePage struct {
	Layout
	Heading string
	Videos  []VideoCard
}

type VideoPage struct {
	Layout
	Video     VideoDetail
	CanDelete bool
}

// UploadForm 上传表单回填值
type UploadForm struct {
	Title       string
	Category    string
	Description string
}

type UploadPage struct {
	Layout
	Form      UploadForm
	Accept    string
	MaxSizeMB int64
}

// AuthPage 登录、注册页
type AuthPage struct {
	Layout
	Heading  string
	Action   string
	Submit   string
	Username string
	Next     string
}

type ProfilePage struct {
	Layout
	Username string
	Videos   []VideoCard
}

type ErrorPage struct {
	Layout
	Status  int
	Message string
}

func newVideoCard(v *dto.VideoInfo, placeholder string) VideoCard {
	thumb := v.ThumbnailURL
	if thumb == "" {
		thumb = placeholder
	}
	return VideoCard{
		ID:           v.ID,
		Title:        v.Title,
		Category:     v.Category,
		Uploader:     v.Uploader,
		ThumbnailURL: thumb,
		ViewCount:    v.ViewCount,
		CreatedAt:    v.CreatedAt,
	}
}

func newVideoCards(videos []dto.VideoInfo, placeholder string) []VideoCard {
	cards := make([]VideoCard, 0, len(videos))
	for i := range videos {
		cards = append(cards, newVideoCard(&videos[i], placeholder))
	}
	return cards
}
