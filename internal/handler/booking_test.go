package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anermers95/SWE5006/internal/middleware"
	"github.com/Anermers95/SWE5006/internal/model"
	"github.com/Anermers95/SWE5006/internal/repository"
	"github.com/Anermers95/SWE5006/internal/schedule"
	"github.com/Anermers95/SWE5006/internal/service"
)

// Minimal in-memory ports so handlers can be driven through real
// requests without a database.

type memBookings struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Booking
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

func (m *memBookings) Update(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[b.ID]; !ok {
		return repository.ErrBookingNotFound
	}
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memBookings) filter(keep func(model.Booking) bool) []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range m.rows {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (m *memBookings) ListAll(_ context.Context) ([]model.Booking, error) {
	return m.filter(func(model.Booking) bool { return true }), nil
}

func (m *memBookings) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (m *memBookings) ListByRoom(_ context.Context, roomID uint64) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool { return b.RoomID == roomID }), nil
}

func (m *memBookings) ListActiveByRoom(_ context.Context, roomID uint64) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool { return b.RoomID == roomID && b.IsActive }), nil
}

func (m *memBookings) ListActiveByRoomBetween(_ context.Context, roomID uint64, from, to time.Time) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool {
		return b.RoomID == roomID && b.IsActive && b.StartTime.Before(to) && b.EndTime.After(from)
	}), nil
}

func (m *memBookings) ListActiveEndedBefore(_ context.Context, cutoff time.Time) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool { return b.IsActive && !b.EndTime.After(cutoff) }), nil
}

type memRooms struct{ rooms map[uint64]model.Room }

func (m *memRooms) GetByID(_ context.Context, id uint64) (model.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return model.Room{}, repository.ErrRoomNotFound
	}
	return r, nil
}

type memUsers struct{ users map[uint64]model.User }

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type memLogs struct {
	mu      sync.Mutex
	entries []model.BookingLog
}

func (m *memLogs) Append(_ context.Context, e *model.BookingLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLogs) List(_ context.Context, bookingID uint64) ([]model.BookingLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.BookingLog, 0)
	for _, e := range m.entries {
		if bookingID == 0 || e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestHandler(t *testing.T) *BookingHandler {
	t.Helper()
	svc := service.NewBookingService(
		&memBookings{rows: map[uint64]model.Booking{}},
		&memRooms{rooms: map[uint64]model.Room{
			1: {ID: 1, Name: "Orchid", SeatingCapacity: 8, BuildingName: "Tower A", IsActive: true},
		}},
		&memUsers{users: map[uint64]model.User{
			7: {ID: 7, Email: "alice@example.com", FullName: "Alice Tan", Role: "MEMBER", IsActive: true},
		}},
		&memLogs{},
		nil,
		schedule.DefaultPolicy(),
	)
	return NewBookingHandler(svc)
}

// request runs a handler against a synthetic authenticated request and
// returns the recorder.
func request(t *testing.T, h echo.HandlerFunc, method, target, body string, userID uint64, role string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxRole, role)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func TestCreateBookingHTTP(t *testing.T) {
	h := newTestHandler(t)

	body := `{"room_id":1,"start_time":"2025-04-20T10:00:00Z","end_time":"2025-04-20T12:00:00Z","purpose":"standup"}`
	rec := request(t, h.Create, http.MethodPost, "/v1/bookings", body, 7, "MEMBER", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created model.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, uint64(7), created.UserID)
	assert.True(t, created.IsActive)
}

func TestCreateBookingHTTP_Errors(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{
			name: "end before start",
			body: `{"room_id":1,"start_time":"2025-04-20T12:00:00Z","end_time":"2025-04-20T10:00:00Z","purpose":"x"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "missing purpose",
			body: `{"room_id":1,"start_time":"2025-04-20T10:00:00Z","end_time":"2025-04-20T11:00:00Z","purpose":""}`,
			want: http.StatusBadRequest,
		},
		{
			name: "bad timestamp",
			body: `{"room_id":1,"start_time":"20 April","end_time":"2025-04-20T11:00:00Z","purpose":"x"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown room",
			body: `{"room_id":99,"start_time":"2025-04-20T10:00:00Z","end_time":"2025-04-20T11:00:00Z","purpose":"x"}`,
			want: http.StatusNotFound,
		},
		{
			name: "booking for someone else as member",
			body: `{"room_id":1,"user_id":42,"start_time":"2025-04-20T10:00:00Z","end_time":"2025-04-20T11:00:00Z","purpose":"x"}`,
			want: http.StatusForbidden,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := request(t, h.Create, http.MethodPost, "/v1/bookings", tc.body, 7, "MEMBER", nil)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateBookingHTTP_ConflictThenCancelThenRetry(t *testing.T) {
	h := newTestHandler(t)

	body := `{"room_id":1,"start_time":"2025-04-20T14:00:00Z","end_time":"2025-04-20T16:00:00Z","purpose":"workshop"}`
	rec := request(t, h.Create, http.MethodPost, "/v1/bookings", body, 7, "MEMBER", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var first model.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// Same slot again conflicts.
	rec = request(t, h.Create, http.MethodPost, "/v1/bookings", body, 7, "MEMBER", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Cancel frees the slot.
	rec = request(t, h.Cancel, http.MethodPatch, "/v1/bookings/1/cancel", "", 7, "MEMBER",
		map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h.Create, http.MethodPost, "/v1/bookings", body, 7, "MEMBER", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCancelBookingHTTP_Authorization(t *testing.T) {
	h := newTestHandler(t)

	body := `{"room_id":1,"start_time":"2025-04-20T10:00:00Z","end_time":"2025-04-20T11:00:00Z","purpose":"standup"}`
	rec := request(t, h.Create, http.MethodPost, "/v1/bookings", body, 7, "MEMBER", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Another member cannot cancel someone else's booking.
	rec = request(t, h.Cancel, http.MethodPatch, "/v1/bookings/1/cancel", "", 8, "MEMBER",
		map[string]string{"id": "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// An admin can.
	rec = request(t, h.Cancel, http.MethodPatch, "/v1/bookings/1/cancel", "", 99, "ADMIN",
		map[string]string{"id": "1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckConflictHTTP(t *testing.T) {
	h := newTestHandler(t)

	body := `{"room_id":1,"start_time":"2025-04-20T10:00:00Z","end_time":"2025-04-20T12:00:00Z","purpose":"standup"}`
	rec := request(t, h.Create, http.MethodPost, "/v1/bookings", body, 7, "MEMBER", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, h.CheckConflict, http.MethodGet,
		"/v1/bookings/check-conflict?room_id=1&start=2025-04-20T11:00:00Z&end=2025-04-20T13:00:00Z",
		"", 7, "MEMBER", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["conflict"])

	// Back to back is free under half-open intervals.
	rec = request(t, h.CheckConflict, http.MethodGet,
		"/v1/bookings/check-conflict?room_id=1&start=2025-04-20T12:00:00Z&end=2025-04-20T13:00:00Z",
		"", 7, "MEMBER", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp["conflict"])
}

func TestGetBookingHTTP_NotFound(t *testing.T) {
	h := newTestHandler(t)
	rec := request(t, h.Get, http.MethodGet, "/v1/bookings/404", "", 7, "MEMBER",
		map[string]string{"id": "404"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
