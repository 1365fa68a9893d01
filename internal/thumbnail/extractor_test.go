package thumbnail

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"friendhub/internal/config"
)

func TestFFmpegExtractorArgs(t *testing.T) {
	e := NewFFmpegExtractor(&config.ThumbnailConfig{Offset: "1", Timeout: 5})
	args := strings.Join(e.Args("in.mp4", "out.jpg"), " ")

	for _, want := range []string{"-ss 1", "-i in.mp4", "-vframes 1", "out.jpg", "-y"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if strings.Index(args, "-ss") > strings.Index(args, "-i") {
		t.Errorf("-ss should come before -i: %q", args)
	}
}

func TestFFmpegExtractorMissingBinary(t *testing.T) {
	dir := t.TempDir()
	thumb := filepath.Join(dir, "out.jpg")
	e := NewFFmpegExtractor(&config.ThumbnailConfig{
		FFmpeg:  filepath.Join(dir, "no-such-ffmpeg"),
		Timeout: 1,
	})

	if e.Extract(context.Background(), filepath.Join(dir, "in.mp4"), thumb) {
		t.Fatal("extract should fail when the binary is missing")
	}
	if _, err := os.Stat(thumb); !os.IsNotExist(err) {
		t.Fatalf("no thumbnail should be left behind, stat err = %v", err)
	}
}

func TestNopExtractor(t *testing.T) {
	if (NopExtractor{}).Extract(context.Background(), "in.mp4", "out.jpg") {
		t.Fatal("NopExtractor must always report no thumbnail")
	}
}
