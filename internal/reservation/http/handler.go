package http

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roomhub/meeting-room-backend/internal/auth"
	"github.com/roomhub/meeting-room-backend/internal/identity"
	"github.com/roomhub/meeting-room-backend/internal/pkg/response"
	"github.com/roomhub/meeting-room-backend/internal/reservation"
)

type Handler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *Handler {
	return &Handler{service: service}
}

// renderError maps engine errors onto HTTP responses, surfacing the
// conflicting reservation id when there is one.
func renderError(c *gin.Context, err error) {
	var conflict *reservation.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":          conflict.Error(),
			"conflicting_id": conflict.ConflictingID,
		})
		return
	}

	var capacity *reservation.CapacityError
	if errors.As(err, &capacity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": capacity.Error()})
		return
	}

	var transition *reservation.TransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": transition.Error()})
		return
	}

	response.Error(c, err)
}

func actorFrom(c *gin.Context) (identity.Actor, bool) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return actor, ok
}

func parseFilter(c *gin.Context) reservation.Filter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := reservation.Filter{
		RoomID:   c.Query("room_id"),
		UserID:   c.Query("user_id"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("start_time_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartFrom = &t
		}
	}
	if v := c.Query("start_time_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartTo = &t
		}
	}
	return filter
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	filter := parseFilter(c)

	items, total, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		renderError(c, err)
		return
	}

	resp := make([]ReservationResponse, len(items))
	for i, rsv := range items {
		resp[i] = NewReservationResponse(rsv)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(resp, filter.Page, filter.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	rsv, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rsv))
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var body CreateReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rsv, err := h.service.Create(c.Request.Context(), actor, reservation.CreateRequest{
		RoomID:    body.RoomID,
		Start:     body.StartTime,
		End:       body.EndTime,
		PartySize: body.PartySize,
		Purpose:   body.Purpose,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewReservationResponse(rsv))
}

func (h *Handler) Edit(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body EditReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rsv, err := h.service.Edit(c.Request.Context(), actor, id, reservation.EditRequest{
		RoomID:    body.RoomID,
		Start:     body.StartTime,
		End:       body.EndTime,
		PartySize: body.PartySize,
		Purpose:   body.Purpose,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rsv))
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body ReasonBody
	_ = c.ShouldBindJSON(&body) // reason is optional

	rsv, err := h.service.Cancel(c.Request.Context(), actor, id, body.Reason)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rsv))
}

func (h *Handler) Approve(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	rsv, err := h.service.Approve(c.Request.Context(), actor, id)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rsv))
}

func (h *Handler) Reject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body ReasonBody
	_ = c.ShouldBindJSON(&body)

	rsv, err := h.service.Reject(c.Request.Context(), actor, id, body.Reason)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rsv))
}

// Export streams the caller-visible reservations as CSV. Non-admins export
// only their own rows; the same sweep-then-filter path as List applies.
func (h *Handler) Export(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	filter := parseFilter(c)
	filter.Page = 1
	filter.PageSize = 10000

	items, _, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		renderError(c, err)
		return
	}

	filename := fmt.Sprintf("reservations_%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv")

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "room", "user", "start_time", "end_time", "party_size", "purpose", "status", "cancel_reason", "created_at"})
	for _, rsv := range items {
		_ = w.Write([]string{
			rsv.ID,
			rsv.RoomName,
			rsv.UserName,
			rsv.Start.Format(time.RFC3339),
			rsv.End.Format(time.RFC3339),
			strconv.Itoa(rsv.PartySize),
			rsv.Purpose,
			string(rsv.Status),
			rsv.CancelReason,
			rsv.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}
