package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/service"
)

type MockBoundary struct {
	mock.Mock
}

func (m *MockBoundary) Handle(ctx context.Context, req domain.MatchRequest) service.Response {
	args := m.Called(ctx, req)
	return args.Get(0).(service.Response)
}

type published struct {
	topic   string
	payload []byte
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, payload: payload})
	return p.err
}

func (p *recordingPublisher) replies(t *testing.T) []Reply {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Reply, 0, len(p.msgs))
	for _, m := range p.msgs {
		var r Reply
		require.NoError(t, json.Unmarshal(m.payload, &r))
		out = append(out, r)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_HandleMessage(t *testing.T) {
	boundary := new(MockBoundary)
	pub := &recordingPublisher{}
	ok := service.Response{StatusCode: 200, Body: `{"message":"Request processed successfully","match":[3]}`}

	boundary.On("Handle", mock.MatchedBy(func(ctx context.Context) bool {
		return service.RequestID(ctx) == "req-9"
	}), domain.MatchRequest{GalleryID: "12", ImageKey: "selfie.jpg"}).Return(ok)

	w := New(boundary, pub, discardLogger())
	err := w.HandleMessage(context.Background(),
		[]byte(`{"requestId":"req-9","galleryId":12,"key":"selfie.jpg","responseTo":"replies/app-1"}`))

	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "replies/app-1", pub.msgs[0].topic)
	assert.Equal(t, []Reply{{RequestID: "req-9", StatusCode: 200, Body: ok.Body}}, pub.replies(t))
	boundary.AssertExpectations(t)
}

func TestWorker_HandleMessage_GeneratesRequestID(t *testing.T) {
	boundary := new(MockBoundary)
	pub := &recordingPublisher{}
	boundary.On("Handle", mock.Anything, mock.Anything).Return(service.Response{StatusCode: 400, Body: `{"error":"key is required"}`})

	err := New(boundary, pub, discardLogger()).HandleMessage(context.Background(),
		[]byte(`{"galleryId":"1","responseTo":"r"}`))

	require.NoError(t, err)
	replies := pub.replies(t)
	require.Len(t, replies, 1)
	assert.Len(t, replies[0].RequestID, 36)
	assert.Equal(t, 400, replies[0].StatusCode)
}

func TestWorker_HandleMessage_BadGalleryType(t *testing.T) {
	boundary := new(MockBoundary)
	pub := &recordingPublisher{}

	err := New(boundary, pub, discardLogger()).HandleMessage(context.Background(),
		[]byte(`{"requestId":"r1","galleryId":true,"key":"k","responseTo":"r"}`))

	require.NoError(t, err)
	replies := pub.replies(t)
	require.Len(t, replies, 1)
	assert.Equal(t, 400, replies[0].StatusCode)
	assert.JSONEq(t, `{"error":"Invalid request"}`, replies[0].Body)
	boundary.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestWorker_HandleMessage_Unanswerable(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `galleryId=1`},
		{"no reply topic", `{"requestId":"r1","galleryId":"1","key":"k"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			err := New(new(MockBoundary), pub, discardLogger()).HandleMessage(context.Background(), []byte(tt.payload))

			assert.Error(t, err)
			assert.Empty(t, pub.msgs)
		})
	}
}

func TestWorker_HandleMessage_PublishError(t *testing.T) {
	boundary := new(MockBoundary)
	boundary.On("Handle", mock.Anything, mock.Anything).Return(service.Response{StatusCode: 200, Body: "{}"})
	pub := &recordingPublisher{err: errors.New("not connected")}

	err := New(boundary, pub, discardLogger()).HandleMessage(context.Background(),
		[]byte(`{"requestId":"r1","galleryId":"1","key":"k","responseTo":"r"}`))

	assert.ErrorContains(t, err, "publish reply r1")
}

func TestWorker_Dispatch(t *testing.T) {
	boundary := new(MockBoundary)
	boundary.On("Handle", mock.Anything, mock.Anything).Return(service.Response{StatusCode: 200, Body: "{}"})
	pub := &recordingPublisher{}

	w := New(boundary, pub, discardLogger())
	for i := 0; i < 10; i++ {
		w.Dispatch(context.Background(), []byte(`{"galleryId":"1","key":"k","responseTo":"r"}`))
	}
	w.Wait()

	assert.Len(t, pub.replies(t), 10)
	boundary.AssertNumberOfCalls(t, "Handle", 10)
}
