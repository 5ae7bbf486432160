package handler

import (
	"log/slog"
	"net/http"
	"time"

	"Community_Portal/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	svc *service.EventService
	log *slog.Logger
}

// CreateEventReq JSON 或 multipart（带 photo）均可
type CreateEventReq struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Location    string `json:"location" form:"location"`
	EventDate   string `json:"event_date" form:"event_date"` // 2006-01-02
	EventTime   string `json:"event_time" form:"event_time"` // 15:04
	Duration    string `json:"duration" form:"duration"`
}

func NewEventHandler(svc *service.Services, log *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc.Events, log: log}
}

// List ?filter=upcoming|past|all，默认 upcoming
func (h *EventHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), actor(c), c.Query("filter"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	in := service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Duration:    req.Duration,
	}
	if req.EventDate != "" {
		d, err := time.Parse(time.DateOnly, req.EventDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid event_date, expected YYYY-MM-DD"})
			return
		}
		in.EventDate = &d
	}
	if req.EventTime != "" {
		t, err := time.Parse("15:04", req.EventTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid event_time, expected HH:MM"})
			return
		}
		since := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
		in.EventTime = &since
	}
	photo, err := optionalFile(c, "photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid photo"})
		return
	}
	in.Photo = photo

	event, err := h.svc.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "event created successfully", "id": event.ID, "event": event})
}

func (h *EventHandler) Detail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Detail(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *EventHandler) Join(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	joined, err := h.svc.Join(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if !joined {
		c.JSON(http.StatusOK, gin.H{"msg": "you are already attending this event", "joined": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "you have joined the event", "joined": true})
}

func (h *EventHandler) Leave(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	left, err := h.svc.Leave(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "you have left the event", "left": left})
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "event deleted successfully"})
}
