package dto

import "time"

// VideoUploadRequest 视频上传请求（multipart/form-data），文件字段名为 file
type VideoUploadRequest struct {
	Title       string `form:"title" binding:"required,max=120"`
	Category    string `form:"category" binding:"omitempty,max=80"`
	Description string `form:"description"`
}

// VideoListRequest 视频列表查询参数
type VideoListRequest struct {
	Q        string `form:"q"`
	Category string `form:"category"`
}

// VideoInfo 视频详情
type VideoInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	Uploader     string    `json:"uploader"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	HasThumbnail bool      `json:"has_thumbnail"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// VideoListData 视频列表响应数据，不分页
type VideoListData struct {
	Videos []VideoInfo `json:"videos"`
	Total  int         `json:"total"`
}
