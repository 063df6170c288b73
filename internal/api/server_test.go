package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorlink/realtime-service/internal/cache"
	"github.com/tutorlink/realtime-service/internal/model"
)

type stubHistory struct {
	msgs []*model.Message
	err  error
}

func (s *stubHistory) Latest(_ context.Context, _ int64, _ int64) ([]*model.Message, error) {
	return s.msgs, s.err
}

type stubPresence struct {
	status cache.Status
	err    error
}

func (s *stubPresence) Get(_ context.Context, _ int64) (cache.Status, error) {
	return s.status, s.err
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	app, _ := New(&stubHistory{}, &stubPresence{}, zap.NewNop().Sugar())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestGetMessages(t *testing.T) {
	req := require.New(t)
	history := &stubHistory{msgs: []*model.Message{
		{ID: 1, ConversationID: 5, SenderID: 1, ReceiverID: 2, Content: "hello", CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)},
	}}
	app, _ := New(history, &stubPresence{}, zap.NewNop().Sugar())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/conversations/5/messages", nil))
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	var out struct {
		Status string           `json:"status"`
		Data   []*model.Message `json:"data"`
	}
	req.NoError(json.Unmarshal(body, &out))
	req.Equal("success", out.Status)
	req.Len(out.Data, 1)
	req.Equal("hello", out.Data[0].Content)
}

func TestGetMessages_BadID(t *testing.T) {
	req := require.New(t)
	app, _ := New(&stubHistory{}, &stubPresence{}, zap.NewNop().Sugar())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/conversations/conv_17_ab/messages", nil))
	req.NoError(err)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestGetMessages_StoreFailure(t *testing.T) {
	req := require.New(t)
	app, _ := New(&stubHistory{err: errors.New("primary stepped down")}, &stubPresence{}, zap.NewNop().Sugar())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/conversations/5/messages", nil))
	req.NoError(err)
	req.Equal(http.StatusInternalServerError, resp.StatusCode)
}

func TestGetPresence(t *testing.T) {
	req := require.New(t)
	app, _ := New(&stubHistory{}, &stubPresence{status: cache.Status{Online: true, LastSeen: 1700000000}}, zap.NewNop().Sugar())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/users/7/presence", nil))
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	var out struct {
		Data cache.Status `json:"data"`
	}
	req.NoError(json.Unmarshal(body, &out))
	req.True(out.Data.Online)
}
