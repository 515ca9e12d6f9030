package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/samvad-hq/news-ingestor/internal/domain"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      noopLogger{},
	}

	err := pub.Publish(context.Background(), NewEvent(domain.Article{ID: 1, Title: "속보", Source: "한겨레"}))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["source"]
	if !ok || aws.ToString(attr.StringValue) != "한겨레" {
		t.Fatalf("source attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if got := aws.ToString(client.input.MessageAttributes["event_type"].StringValue); got != EventArticleIngested {
		t.Fatalf("event_type = %q", got)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"title":"속보"`) {
		t.Fatalf("MessageBody missing article: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSPublisherPublishError(t *testing.T) {
	client := &fakeSQSClient{err: errors.New("boom")}
	pub := &sqsPublisher{queueURL: "q", client: client, log: noopLogger{}}

	err := pub.Publish(context.Background(), NewEvent(domain.Article{ID: 2}))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestNewSQSPublisherRequiresConfig(t *testing.T) {
	if _, err := newSQSPublisher(context.Background(), PublisherConfig{ID: "q", Type: TypeSQS}, nil); err == nil {
		t.Fatalf("expected error for missing sqs block")
	}
}

func TestNewSQSPublisherStaticCredentials(t *testing.T) {
	pub, err := newSQSPublisher(context.Background(), PublisherConfig{
		ID:   "q",
		Type: TypeSQS,
		SQS: &SQSPublisherConfig{
			QueueURL: "http://localhost:4566/000000000000/news",
			Region:   "ap-northeast-2",
			AWSCredentials: AWSCredentials{
				AccessKeyID:     "test",
				SecretAccessKey: "test",
				Endpoint:        "http://localhost:4566",
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newSQSPublisher: %v", err)
	}
	if pub.Type() != TypeSQS || pub.ID() != "q" {
		t.Fatalf("unexpected publisher identity %s/%s", pub.Type(), pub.ID())
	}
}
