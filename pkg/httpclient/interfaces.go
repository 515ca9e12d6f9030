package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so feed and page fetchers can be tested without a network.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
