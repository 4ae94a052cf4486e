package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akudrin/taskwire/internal/domain/broker"
	"github.com/akudrin/taskwire/internal/domain/notification"
	"github.com/akudrin/taskwire/internal/domain/settings"
	pg "github.com/akudrin/taskwire/internal/repository/postgres"
	"github.com/akudrin/taskwire/internal/services/notifier"
)

type stubSub struct {
	payloads [][]byte
	pos      int
	closed   int
}

func (s *stubSub) Next(time.Duration) ([]byte, error) {
	if s.pos >= len(s.payloads) {
		// End the stream deterministically once the script is exhausted.
		return nil, broker.ErrUnavailable
	}
	p := s.payloads[s.pos]
	s.pos++
	return p, nil
}

func (s *stubSub) Close() error { s.closed++; return nil }

type stubBroker struct {
	ready      bool
	publishErr error
	published  map[string][][]byte
	sub        *stubSub
}

func (b *stubBroker) Ready() bool { return b.ready }

func (b *stubBroker) Publish(_ context.Context, channel string, payload []byte) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	if b.published == nil {
		b.published = map[string][][]byte{}
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *stubBroker) Subscribe(string) (broker.Subscription, error) {
	if !b.ready {
		return nil, broker.ErrUnavailable
	}
	return b.sub, nil
}

type stubFanOut struct {
	events []notification.Event
	err    error
}

func (f *stubFanOut) NotifyTaskCollaborators(_ context.Context, ev notification.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type stubNotifs struct {
	items   []*notification.Notification
	listErr error
	readErr error
	read    []uuid.UUID
}

func (s *stubNotifs) Create(context.Context, *notification.Notification) error { return nil }

func (s *stubNotifs) ListByUser(context.Context, uuid.UUID, int) ([]*notification.Notification, error) {
	return s.items, s.listErr
}

func (s *stubNotifs) MarkRead(_ context.Context, id, _ uuid.UUID) error {
	if s.readErr != nil {
		return s.readErr
	}
	s.read = append(s.read, id)
	return nil
}

type stubSettings struct {
	s      *settings.Settings
	getErr error
	updErr error
}

func (st *stubSettings) GetByUser(context.Context, uuid.UUID) (*settings.Settings, error) {
	return st.s, st.getErr
}

func (st *stubSettings) Update(context.Context, uuid.UUID, *settings.Update) (*settings.Settings, error) {
	if st.updErr != nil {
		return nil, st.updErr
	}
	return st.s, nil
}

func newTestHandler(b *stubBroker, fanout *stubFanOut, notifs *stubNotifs, st *stubSettings) *Handler {
	return NewHandler(zap.NewNop(), b, fanout, notifs, st, nil, 10*time.Millisecond)
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewRouter(h, []string{"*"}).ServeHTTP(rec, req)
	return rec
}

func TestSendToUser_PublishesToUserChannel(t *testing.T) {
	b := &stubBroker{ready: true}
	h := newTestHandler(b, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/sse/send-to-user/"+userID.String(),
		strings.NewReader(`{"message": {"hello": "world"}}`))
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body Ok
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]any{"channel": notifier.ChannelFor(userID)}, body.Data)
	require.Len(t, b.published[notifier.ChannelFor(userID)], 1)
}

func TestSendToUser_BrokerDownReturns503(t *testing.T) {
	b := &stubBroker{publishErr: broker.ErrUnavailable}
	h := newTestHandler(b, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodPost, "/sse/send-to-user/"+uuid.NewString(),
		strings.NewReader(`{"message": {"k": 1}}`))
	rec := serve(h, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSendToUser_BadBody(t *testing.T) {
	h := newTestHandler(&stubBroker{ready: true}, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodPost, "/sse/send-to-user/"+uuid.NewString(),
		strings.NewReader(`{}`))
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStream_DeliversEventsAndClosesOnBrokerLoss(t *testing.T) {
	sub := &stubSub{payloads: [][]byte{[]byte(`{"event":"new_comment"}`)}}
	b := &stubBroker{ready: true, sub: sub}
	h := newTestHandler(b, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodGet, "/sse/sse/"+uuid.NewString(), nil)
	rec := serve(h, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "data: {\"event\":\"new_comment\"}\n\n", rec.Body.String())
	assert.Equal(t, 1, sub.closed)
}

func TestStream_BrokerDisabledEndsWithoutEvents(t *testing.T) {
	h := newTestHandler(&stubBroker{ready: false}, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodGet, "/sse/sse/"+uuid.NewString(), nil)
	rec := serve(h, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String(), "no events, no heartbeats")
}

func TestIngestEvent_HandsEventToFanout(t *testing.T) {
	fanout := &stubFanOut{}
	h := newTestHandler(&stubBroker{ready: true}, fanout, &stubNotifs{}, &stubSettings{})

	actor := uuid.New()
	task := uuid.New()
	body := `{"actor_id":"` + actor.String() + `","type":"new_comment","message":"hi","task_id":"` + task.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	rec := serve(h, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, fanout.events, 1)
	assert.Equal(t, actor, fanout.events[0].ActorID)
	assert.Equal(t, task, fanout.events[0].TaskID)
	assert.Equal(t, "new_comment", fanout.events[0].Type)
	assert.Equal(t, "new_comment", fanout.events[0].Title, "title falls back to the type")
}

func TestIngestEvent_MissingFields(t *testing.T) {
	fanout := &stubFanOut{}
	h := newTestHandler(&stubBroker{ready: true}, fanout, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"type":"x"}`))
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fanout.events)
}

func TestListNotifications_RequiresIdentity(t *testing.T) {
	h := newTestHandler(&stubBroker{ready: true}, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rec := serve(h, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMarkNotificationRead_NotFound(t *testing.T) {
	notifs := &stubNotifs{readErr: pg.ErrNotFound}
	h := newTestHandler(&stubBroker{ready: true}, &stubFanOut{}, notifs, &stubSettings{})

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+uuid.NewString()+"/read", nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := serve(h, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUserSettings_NotFound(t *testing.T) {
	h := newTestHandler(&stubBroker{ready: true}, &stubFanOut{}, &stubNotifs{}, &stubSettings{getErr: pg.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/user-settings", nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := serve(h, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUserSettings_EmptyBodyRejected(t *testing.T) {
	h := newTestHandler(&stubBroker{ready: true}, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodPatch, "/api/user-settings", strings.NewReader(`{}`))
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUserSettings_AppliesPartialUpdate(t *testing.T) {
	stored := &settings.Settings{DisableAllNotifications: true}
	h := newTestHandler(&stubBroker{ready: true}, &stubFanOut{}, &stubNotifs{}, &stubSettings{s: stored})

	req := httptest.NewRequest(http.MethodPatch, "/api/user-settings",
		strings.NewReader(`{"disable_all_notifications": true}`))
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body Ok
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestHealth_BrokerDownStillHealthy(t *testing.T) {
	h := newTestHandler(&stubBroker{ready: false}, &stubFanOut{}, &stubNotifs{}, &stubSettings{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "unavailable", body.Broker)
}

func TestHealth_DBDownIsUnhealthy(t *testing.T) {
	h := NewHandler(zap.NewNop(), &stubBroker{ready: true}, &stubFanOut{}, &stubNotifs{}, &stubSettings{},
		func(context.Context) error { return errors.New("pool closed") }, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := serve(h, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
