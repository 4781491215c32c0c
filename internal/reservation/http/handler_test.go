package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomhub/meeting-room-backend/internal/audit"
	"github.com/roomhub/meeting-room-backend/internal/auth"
	"github.com/roomhub/meeting-room-backend/internal/identity"
	"github.com/roomhub/meeting-room-backend/internal/notify"
	"github.com/roomhub/meeting-room-backend/internal/pkg/clock"
	"github.com/roomhub/meeting-room-backend/internal/reservation"
	"github.com/roomhub/meeting-room-backend/internal/room"
)

var testRoomID = uuid.NewString()

type stubRooms struct{}

func (stubRooms) GetByID(_ context.Context, id string) (*room.Room, error) {
	if id != testRoomID {
		return nil, room.ErrNotFound
	}
	return &room.Room{ID: testRoomID, Code: "A-101", Name: "Aurora", Type: room.TypeSmall, Capacity: 4, IsActive: true}, nil
}

type testEnv struct {
	router      *gin.Engine
	jwt         *auth.JWTManager
	memberToken string
	adminToken  string
	memberID    string
	adminID     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := reservation.NewMemoryRepository()
	repo.SetRoomName(testRoomID, "Aurora")
	svc := reservation.NewService(repo, stubRooms{}, clock.System{}, notify.NewLogNotifier(), audit.NewLogRecorder())

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	memberID := uuid.NewString()
	adminID := uuid.NewString()
	memberToken, err := jwtManager.GenerateAccessToken(memberID, "member@example.com", identity.RoleMember)
	require.NoError(t, err)
	adminToken, err := jwtManager.GenerateAccessToken(adminID, "admin@example.com", identity.RoleAdmin)
	require.NoError(t, err)

	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandler(svc), auth.AuthRequired(jwtManager), auth.RequireAdmin())

	return &testEnv{
		router:      router,
		jwt:         jwtManager,
		memberToken: memberToken,
		adminToken:  adminToken,
		memberID:    memberID,
		adminID:     adminID,
	}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createBody(fromNow, length time.Duration, partySize int) CreateReservationBody {
	start := time.Now().UTC().Add(fromNow).Truncate(time.Second)
	return CreateReservationBody{
		RoomID:    testRoomID,
		StartTime: start,
		EndTime:   start.Add(length),
		PartySize: partySize,
		Purpose:   "planning",
	}
}

func TestReservationEndpoints(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("GET", "/v1/reservations", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("member create returns pending reservation", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, createBody(time.Hour, time.Hour, 3))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp ReservationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, env.memberID, resp.User.ID)
		assert.Equal(t, "Aurora", resp.Room.Name)
	})

	t.Run("conflict carries conflicting id", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, createBody(time.Hour, time.Hour, 2))
		require.Equal(t, http.StatusCreated, w.Code)
		var first ReservationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

		w = env.do("POST", "/v1/reservations", env.adminToken, createBody(time.Hour+30*time.Minute, time.Hour, 2))
		require.Equal(t, http.StatusConflict, w.Code)

		var errResp struct {
			Error         string `json:"error"`
			ConflictingID string `json:"conflicting_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, first.ID, errResp.ConflictingID)
	})

	t.Run("capacity exceeded is a 400", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, createBody(time.Hour, time.Hour, 5))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, map[string]any{"room_id": "not-a-uuid"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("approve is admin only", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, createBody(time.Hour, time.Hour, 2))
		require.Equal(t, http.StatusCreated, w.Code)
		var rsv ReservationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsv))

		w = env.do("POST", fmt.Sprintf("/v1/reservations/%s/approve", rsv.ID), env.memberToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.do("POST", fmt.Sprintf("/v1/reservations/%s/approve", rsv.ID), env.adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsv))
		assert.Equal(t, "confirmed", rsv.Status)
	})

	t.Run("reject records the reason", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, createBody(time.Hour, time.Hour, 2))
		require.Equal(t, http.StatusCreated, w.Code)
		var rsv ReservationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsv))

		w = env.do("POST", fmt.Sprintf("/v1/reservations/%s/reject", rsv.ID), env.adminToken, ReasonBody{Reason: "maintenance"})
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsv))
		assert.Equal(t, "cancelled", rsv.Status)
		assert.Equal(t, "maintenance", rsv.CancelReason)
	})

	t.Run("cancel own reservation", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, createBody(2*time.Hour, time.Hour, 2))
		require.Equal(t, http.StatusCreated, w.Code)
		var rsv ReservationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsv))

		w = env.do("POST", fmt.Sprintf("/v1/reservations/%s/cancel", rsv.ID), env.memberToken, ReasonBody{Reason: "plans changed"})
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsv))
		assert.Equal(t, "cancelled", rsv.Status)
	})

	t.Run("member list hides other users", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.adminToken, createBody(time.Hour, time.Hour, 2))
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do("GET", "/v1/reservations", env.memberToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Items []ReservationResponse `json:"items"`
			Total int                   `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Zero(t, page.Total)
		assert.Empty(t, page.Items)
	})

	t.Run("get with malformed id", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("GET", "/v1/reservations/not-a-uuid", env.memberToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get of missing reservation is a 404", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("GET", "/v1/reservations/"+uuid.NewString(), env.memberToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("export streams csv", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do("POST", "/v1/reservations", env.memberToken, createBody(time.Hour, time.Hour, 2))
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do("GET", "/v1/reservations/export", env.memberToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Body.String(), "Aurora")
	})
}
