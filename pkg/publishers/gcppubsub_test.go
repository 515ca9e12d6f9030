package publishers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

func TestGCPPubSubPublisherPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "articles"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	pub, err := newGCPPubSubPublisher(ctx, PublisherConfig{
		ID:     "pubsub",
		Type:   TypeGCPPubSub,
		PubSub: &GCPPubSubPublisherConfig{ProjectID: "test-project", Topic: "articles"},
	}, nil)
	if err != nil {
		t.Fatalf("newGCPPubSubPublisher: %v", err)
	}
	defer pub.(*gcpPubSubPublisher).Close()

	if err := pub.Publish(ctx, NewEvent(domain.Article{ID: 3, Title: "스포츠", Source: "스포츠조선"})); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message on emulator, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["source"]; got != "스포츠조선" {
		t.Fatalf("source attribute = %q", got)
	}
	var evt Event
	if err := json.Unmarshal(msgs[0].Data, &evt); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if evt.Article.ID != 3 || evt.Type != EventArticleIngested {
		t.Fatalf("unexpected payload %+v", evt)
	}
}
