package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"friendhub/internal/model"
)

func TestBuildSearchBody(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		body := BuildSearchBody(SearchQuery{})
		filters := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
		if len(filters) != 0 {
			t.Fatalf("expected no filters, got %v", filters)
		}
	})

	t.Run("AllFields", func(t *testing.T) {
		raw, err := json.Marshal(BuildSearchBody(SearchQuery{Query: "c*t?", Category: "Music", Uploader: "bob"}))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		s := string(raw)
		for _, want := range []string{
			`{"term":{"category":"Music"}}`,
			`{"term":{"uploader":"bob"}}`,
			`"value":"*c\\*t\\?*"`,
			`"case_insensitive":true`,
			`"minimum_should_match":1`,
			`{"created_at":{"order":"desc"}}`,
			`"track_total_hits":true`,
		} {
			if !strings.Contains(s, want) {
				t.Errorf("search body %s missing %s", s, want)
			}
		}
	})
}

func TestDecodeSearchIDs(t *testing.T) {
	t.Run("AllHitsReturned", func(t *testing.T) {
		resp := `{"hits":{"total":{"value":2,"relation":"eq"},"hits":[{"_id":"v2"},{"_id":"v1"}]}}`
		ids, err := decodeSearchIDs(strings.NewReader(resp))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(ids) != 2 || ids[0] != "v2" || ids[1] != "v1" {
			t.Fatalf("ids = %v", ids)
		}
	})

	t.Run("NoHits", func(t *testing.T) {
		ids, err := decodeSearchIDs(strings.NewReader(`{"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`))
		if err != nil || len(ids) != 0 {
			t.Fatalf("ids = %v, err = %v", ids, err)
		}
	})

	// 命中数超过窗口时不能静默截断
	t.Run("TruncatedByWindow", func(t *testing.T) {
		resp := `{"hits":{"total":{"value":10001,"relation":"eq"},"hits":[{"_id":"v1"}]}}`
		if _, err := decodeSearchIDs(strings.NewReader(resp)); !errors.Is(err, ErrResultWindowExceeded) {
			t.Fatalf("expected ErrResultWindowExceeded, got %v", err)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		if _, err := decodeSearchIDs(strings.NewReader(`{`)); err == nil {
			t.Fatal("expected decode error")
		}
	})
}

func TestDocFromVideo(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CST", 8*3600))
	doc := DocFromVideo(&model.Video{ID: "v1", Title: "Demo", Category: "Vlog", Uploader: "alice", CreatedAt: created})
	if doc.ID != "v1" || doc.Uploader != "alice" || doc.Category != "Vlog" {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if doc.CreatedAt != "2024-05-01T04:00:00Z" {
		t.Fatalf("created_at = %s", doc.CreatedAt)
	}
}

func TestClientNotInitialized(t *testing.T) {
	if Enabled() {
		t.Skip("client initialized by another test")
	}
	if _, err := SearchVideoIDs(context.Background(), "videos", SearchQuery{}); err == nil {
		t.Fatal("expected error without client")
	}
}
