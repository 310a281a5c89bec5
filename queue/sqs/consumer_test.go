package sqs

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/lakechain/awsconfig"
	"github.com/poiesic/lakechain/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSQS answers the JSON protocol ReceiveMessage and DeleteMessage calls.
type fakeSQS struct {
	mu       sync.Mutex
	bodies   []string
	requests []map[string]any
	deleted  []string
}

func (f *fakeSQS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, _ := io.ReadAll(r.Body)
	req := map[string]any{}
	_ = json.Unmarshal(raw, &req)
	f.requests = append(f.requests, req)

	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	switch r.Header.Get("X-Amz-Target") {
	case "AmazonSQS.ReceiveMessage":
		messages := []map[string]any{}
		for i, body := range f.bodies {
			sum := md5.Sum([]byte(body))
			messages = append(messages, map[string]any{
				"MessageId":     "msg-" + string(rune('a'+i)),
				"ReceiptHandle": "rh-" + string(rune('a'+i)),
				"Body":          body,
				"MD5OfBody":     hex.EncodeToString(sum[:]),
				"Attributes":    map[string]string{"ApproximateReceiveCount": "2"},
			})
		}
		f.bodies = nil
		_ = json.NewEncoder(w).Encode(map[string]any{"Messages": messages})
	case "AmazonSQS.DeleteMessage":
		f.deleted = append(f.deleted, req["ReceiptHandle"].(string))
		_, _ = io.WriteString(w, "{}")
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newTestConsumer(t *testing.T, opts ...Option) (*Consumer, *fakeSQS) {
	t.Helper()
	fake := &fakeSQS{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), &awsconfig.Config{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        srv.URL,
	}, srv.URL+"/000000000000/input", opts...)
	require.NoError(t, err)
	return c, fake
}

func TestNewRequiresQueueURL(t *testing.T) {
	_, err := New(context.Background(), &awsconfig.Config{Region: "us-east-1"}, "")
	assert.ErrorIs(t, err, queue.ErrMissingQueueURL)
}

func TestReceiveAndDelete(t *testing.T) {
	c, fake := newTestConsumer(t, WithVisibilityTimeout(5*time.Minute))
	fake.bodies = []string{`{"a":1}`, `{"b":2}`}
	ctx := context.Background()

	messages, err := c.Receive(ctx, 50, time.Minute)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "msg-a", messages[0].ID)
	assert.Equal(t, "rh-a", messages[0].ReceiptHandle)
	assert.Equal(t, `{"a":1}`, string(messages[0].Body))
	assert.Equal(t, 2, messages[0].ReceiveCount)

	req := fake.requests[0]
	assert.EqualValues(t, MaxBatchSize, req["MaxNumberOfMessages"])
	assert.EqualValues(t, 20, req["WaitTimeSeconds"])
	assert.EqualValues(t, 300, req["VisibilityTimeout"])

	require.NoError(t, c.Delete(ctx, messages[1]))
	assert.Equal(t, []string{"rh-b"}, fake.deleted)
}

func TestReceiveEmpty(t *testing.T) {
	c, _ := newTestConsumer(t)

	messages, err := c.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
