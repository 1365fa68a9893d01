package service

import (
	"context"
	"testing"

	infraKafka "friendhub/internal/infra/kafka"
	"friendhub/internal/model"
)

func TestOrderByIDs(t *testing.T) {
	videos := []model.Video{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := orderByIDs(videos, []string{"c", "gone", "a", "b"})

	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %d videos, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, want[i])
		}
	}
}

func TestHandleVideoEvent(t *testing.T) {
	env := newTestEnv(t)
	search := NewSearchService(env.videoRepo, "videos")
	ctx := context.Background()

	t.Run("UnknownType", func(t *testing.T) {
		if err := search.HandleVideoEvent(ctx, &infraKafka.VideoEvent{Type: "video.liked", VideoID: "x"}); err == nil {
			t.Fatal("expected error for unknown event type")
		}
	})

	t.Run("CreatedButAlreadyDeleted", func(t *testing.T) {
		err := search.HandleVideoEvent(ctx, &infraKafka.VideoEvent{Type: infraKafka.EventVideoCreated, VideoID: "missing"})
		if err != nil {
			t.Fatalf("missing video should be skipped, got %v", err)
		}
	})
}
