package thumbnail

import (
	"context"
	"os"
	"os/exec"
	"time"

	"friendhub/internal/config"
	"friendhub/pkg/logger"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// Extractor 从视频中截取一帧 JPEG 作为缩略图
// 返回 false 表示没有生成缩略图，调用方使用占位图，不重试
type Extractor interface {
	Extract(ctx context.Context, videoPath, thumbPath string) bool
}

// FFmpegExtractor 调用外部 ffmpeg 截图，带固定超时
type FFmpegExtractor struct {
	binary  string
	offset  string
	timeout time.Duration
}

func NewFFmpegExtractor(cfg *config.ThumbnailConfig) *FFmpegExtractor {
	binary := cfg.FFmpeg
	if binary == "" {
		binary = "ffmpeg"
	}
	offset := cfg.Offset
	if offset == "" {
		offset = "0"
	}
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FFmpegExtractor{binary: binary, offset: offset, timeout: timeout}
}

// Args 返回 ffmpeg 参数：-ss 放在 -i 之前做快速定位
func (e *FFmpegExtractor) Args(videoPath, thumbPath string) []string {
	return ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": e.offset}).
		Output(thumbPath, ffmpeg.KwArgs{"vframes": 1, "q:v": 2}).
		OverWriteOutput().
		GetArgs()
}

func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath, thumbPath string) bool {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, e.Args(videoPath, thumbPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		logger.Warn("FFmpeg extract thumbnail failed",
			zap.String("video", videoPath),
			zap.Bool("timeout", ctx.Err() != nil),
			zap.Error(err),
			zap.ByteString("output", tail(output, 512)),
		)
		os.Remove(thumbPath)
		return false
	}

	// 视频比 offset 短时 ffmpeg 可能正常退出却不输出任何帧
	info, err := os.Stat(thumbPath)
	if err != nil || info.Size() == 0 {
		logger.Warn("FFmpeg produced no thumbnail", zap.String("video", videoPath))
		os.Remove(thumbPath)
		return false
	}
	return true
}

// NopExtractor 关闭缩略图功能时使用
type NopExtractor struct{}

func (NopExtractor) Extract(context.Context, string, string) bool {
	return false
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
