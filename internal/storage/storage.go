package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Kind 文件类别，决定落在哪个目录或 Bucket
type Kind string

const (
	KindVideo     Kind = "videos"
	KindThumbnail Kind = "thumbnails"
)

var (
	ErrObjectNotFound = errors.New("file not found")
	ErrInvalidName    = errors.New("invalid file name")
	ErrUnknownKind    = errors.New("unknown storage kind")
)

// Object 打开的文件，Body 支持 Seek 以便 http.ServeContent 处理 Range 请求
type Object struct {
	Body        io.ReadSeekCloser
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Storage 视频与缩略图的文件存储
type Storage interface {
	Put(ctx context.Context, kind Kind, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, kind Kind, name string) (*Object, error)
	Remove(ctx context.Context, kind Kind, name string) error
}

// ValidName 只接受不含路径成分的普通文件名
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ContentTypeByName 根据扩展名推断 Content-Type，系统 mime 表里常缺视频类型
func ContentTypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := videoContentTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}
