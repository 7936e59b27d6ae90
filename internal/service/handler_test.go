package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/metrics"
)

type MockMatchService struct {
	mock.Mock
}

func (m *MockMatchService) Match(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

type panickingService struct{}

func (panickingService) Match(context.Context, domain.MatchRequest) (*domain.MatchResult, error) {
	panic("unexpected nil gallery")
}

func resultOf(ids ...int64) *domain.MatchResult {
	r := domain.NewMatchResult()
	for _, id := range ids {
		r.Add(id)
	}
	return r
}

func TestHandler_Handle(t *testing.T) {
	req := domain.MatchRequest{GalleryID: "1", ImageKey: "k"}

	tests := []struct {
		name       string
		result     *domain.MatchResult
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "matches sorted ascending",
			result:     resultOf(30, 4, 12),
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Request processed successfully","match":[4,12,30]}`,
		},
		{
			name:       "no match is an empty array",
			result:     resultOf(),
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Request processed successfully","match":[]}`,
		},
		{
			name:       "missing gallery id",
			err:        domain.ErrGalleryIDRequired,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"galleryId is required"}`,
		},
		{
			name:       "invalid gallery id",
			err:        domain.ErrInvalidGalleryID.WithError(errors.New("strconv")),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"galleryId should be an integer number"}`,
		},
		{
			name:       "missing key",
			err:        domain.ErrImageKeyRequired,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"key is required"}`,
		},
		{
			name:       "acquisition failure",
			err:        domain.ErrAcquisitionFailed.WithError(errors.New("no such key")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Error downloading the image"}`,
		},
		{
			name:       "normalization failure",
			err:        domain.ErrNormalizationFailed.WithError(errors.New("decode")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Error processing the image"}`,
		},
		{
			name:       "plain error becomes internal",
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Error processing the request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockMatchService)
			if tt.err != nil {
				svc.On("Match", mock.Anything, req).Return(nil, tt.err)
			} else {
				svc.On("Match", mock.Anything, req).Return(tt.result, nil)
			}

			resp := NewHandler(svc, "test").Handle(context.Background(), req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.JSONEq(t, tt.wantBody, resp.Body)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Handle_RecoversPanic(t *testing.T) {
	resp := NewHandler(panickingService{}, "test").Handle(context.Background(), domain.MatchRequest{})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Error processing the request"}`, resp.Body)
}

func TestHandler_Handle_AssignsRequestID(t *testing.T) {
	svc := new(MockMatchService)
	var seen string
	svc.On("Match", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { seen = RequestID(args.Get(0).(context.Context)) }).
		Return(resultOf(), nil)

	NewHandler(svc, "test").Handle(context.Background(), domain.MatchRequest{})
	assert.Len(t, seen, 36)

	NewHandler(svc, "test").Handle(ContextWithRequestID(context.Background(), "req-1"), domain.MatchRequest{})
	assert.Equal(t, "req-1", seen)
}

func TestHandler_Handle_RecordsRequestMetric(t *testing.T) {
	m := metrics.NewManager()
	svc := new(MockMatchService)
	svc.On("Match", mock.Anything, mock.Anything).Return(nil, domain.ErrImageKeyRequired).Once()
	svc.On("Match", mock.Anything, mock.Anything).Return(resultOf(1), nil).Once()

	h := NewHandler(svc, "mqtt").WithMetrics(m)
	h.Handle(context.Background(), domain.MatchRequest{})
	h.Handle(context.Background(), domain.MatchRequest{})

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != "selfiematch_match_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, total)
}

func TestResponse_JSON(t *testing.T) {
	data, err := json.Marshal(Response{StatusCode: 200, Body: "{}"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode":200,"body":"{}"}`, string(data))
}

func TestHandler_HandleJSON(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		setupMock  func(*MockMatchService)
		wantStatus int
		wantBody   string
	}{
		{
			name:    "string gallery id",
			payload: `{"galleryId":"7","key":"selfie.jpg"}`,
			setupMock: func(m *MockMatchService) {
				m.On("Match", mock.Anything, domain.MatchRequest{GalleryID: "7", ImageKey: "selfie.jpg"}).
					Return(resultOf(2), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Request processed successfully","match":[2]}`,
		},
		{
			name:    "numeric gallery id and imageKey alias",
			payload: `{"galleryId":7,"imageKey":"selfie.jpg"}`,
			setupMock: func(m *MockMatchService) {
				m.On("Match", mock.Anything, domain.MatchRequest{GalleryID: "7", ImageKey: "selfie.jpg"}).
					Return(resultOf(), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Request processed successfully","match":[]}`,
		},
		{
			name:       "boolean gallery id",
			payload:    `{"galleryId":true,"key":"selfie.jpg"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid request"}`,
		},
		{
			name:       "not json",
			payload:    `galleryId=7`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockMatchService)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			m := metrics.NewManager()

			resp := NewHandler(svc, "lambda").WithMetrics(m).HandleJSON(context.Background(), []byte(tt.payload))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.JSONEq(t, tt.wantBody, resp.Body)
			svc.AssertExpectations(t)

			families, err := m.Registry().Gather()
			require.NoError(t, err)
			var total float64
			for _, f := range families {
				if f.GetName() == "selfiematch_match_requests_total" {
					for _, metric := range f.GetMetric() {
						total += metric.GetCounter().GetValue()
					}
				}
			}
			assert.Equal(t, float64(1), total)
		})
	}
}
