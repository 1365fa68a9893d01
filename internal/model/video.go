package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Video 视频模型
// Uploader 保存上传者用户名，与 users 表之间没有数据库外键，由服务层在写入时校验
type Video struct {
	ID           string    `gorm:"primaryKey;size:36;comment:视频标识（UUID）" json:"id"`
	Title        string    `gorm:"size:120;not null;comment:视频标题" json:"title"`
	Filename     string    `gorm:"size:255;not null;comment:存储文件名" json:"filename"`
	Uploader     string    `gorm:"size:80;not null;index:idx_videos_uploader;comment:上传者用户名" json:"uploader"`
	Category     string    `gorm:"size:80;index:idx_videos_category;comment:分类" json:"category"`
	Description  string    `gorm:"type:text;comment:视频描述" json:"description"`
	HasThumbnail bool      `gorm:"not null;default:false;comment:是否已生成本地缩略图" json:"has_thumbnail"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_videos_created_at;comment:创建时间" json:"created_at"`
	ViewCount    int64     `gorm:"not null;default:0;comment:播放量" json:"view_count"`
	LikeCount    int64     `gorm:"not null;default:0;comment:点赞数" json:"like_count"`

	// 检索用的小写副本，sqlite 的 LOWER 只处理 ASCII
	TitleFolded       string `gorm:"type:text;comment:小写标题" json:"-"`
	DescriptionFolded string `gorm:"type:text;comment:小写描述" json:"-"`
}

func (Video) TableName() string {
	return "videos"
}

// BeforeSave 写入前刷新检索列
func (v *Video) BeforeSave(*gorm.DB) error {
	v.TitleFolded = FoldSearchText(v.Title)
	v.DescriptionFolded = FoldSearchText(v.Description)
	return nil
}

// FoldSearchText 关键词和检索列统一按 Unicode 小写化
func FoldSearchText(s string) string {
	return strings.ToLower(s)
}

// ThumbnailName 缩略图文件名，与视频 ID 同名
func (v *Video) ThumbnailName() string {
	return v.ID + ".jpg"
}
