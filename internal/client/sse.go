package client

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/folio/internal/events"
)

// StreamEvents subscribes to the server's SSE event stream. Events are
// delivered on the returned channel, which is closed when ctx is cancelled
// or the stream ends. An empty topics list receives every topic.
func (c *HTTPClient) StreamEvents(ctx context.Context, topics []string) (<-chan events.Envelope, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	path := "/api/events/stream"
	if len(topics) > 0 {
		path += "?topics=" + url.QueryEscape(strings.Join(topics, ","))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "event stream unavailable"}
	}

	ch := make(chan events.Envelope, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		var env events.Envelope
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if env.Topic != "" {
					select {
					case ch <- env:
					case <-ctx.Done():
						return
					}
				}
				env = events.Envelope{}
			case strings.HasPrefix(line, "event:"):
				env.Topic = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				env.Data = append(env.Data, strings.TrimPrefix(line, "data:")...)
			}
		}
	}()
	return ch, nil
}
