package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/blushbox/internal/config"
	"github.com/sujalbistaa/blushbox/internal/logging"
	"github.com/sujalbistaa/blushbox/internal/metrics"
	"github.com/sujalbistaa/blushbox/internal/models"
	"github.com/sujalbistaa/blushbox/internal/store"
	"github.com/sujalbistaa/blushbox/internal/ws"
)

// --- Structs for request binding ---
type CreateConfessionInput struct {
	Content  string `json:"content" binding:"required,notblank"`
	Category string `json:"category" binding:"required,notblank"`
	Color    string `json:"color" binding:"required,notblank"`
	Mood     string `json:"mood" binding:"required,mood"`
}

type ReactInput struct {
	Type string `json:"type" binding:"required"`
}

type CreateCommentInput struct {
	Content  string `json:"content" binding:"required,notblank"`
	ParentID *uint  `json:"parent_id"`
}

// --- Handlers ---

// Env carries the dependencies every handler needs.
type Env struct {
	Store   *store.Store
	Hub     *ws.Hub
	Metrics *metrics.Metrics
	Limits  config.LimitsConfig
	Admin   config.AdminConfig
}

// NewEnv wires the handler dependencies. hub and m may be nil.
func NewEnv(s *store.Store, hub *ws.Hub, m *metrics.Metrics, cfg *config.Config) *Env {
	return &Env{
		Store:   s,
		Hub:     hub,
		Metrics: m,
		Limits:  cfg.Limits,
		Admin:   cfg.Admin,
	}
}

func (e *Env) Health(c *gin.Context) {
	if err := e.Store.Ping(c.Request.Context()); err != nil {
		requestLogger(c).Error("health check failed", logging.Err(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (e *Env) GetConfessions(c *gin.Context) {
	q := store.FeedQuery{Sort: store.SortRecent}
	if mood := c.Query("mood"); mood != "" && mood != "All" {
		m, ok := models.ParseMood(mood)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mood: " + mood})
			return
		}
		q.Mood = m
	}
	if c.Query("sort") == string(store.SortTrending) {
		q.Sort = store.SortTrending
	}

	confessions, err := e.Store.ListConfessions(c.Request.Context(), q)
	if err != nil {
		e.fail(c, err, "Failed to fetch confessions")
		return
	}
	c.JSON(http.StatusOK, confessions)
}

func (e *Env) GetDailyConfession(c *gin.Context) {
	confession, err := e.Store.DailyPick(c.Request.Context())
	if err != nil {
		e.fail(c, err, "Failed to fetch daily confession")
		return
	}
	// A nil pointer renders as JSON null.
	c.JSON(http.StatusOK, confession)
}

func (e *Env) GetRandomConfession(c *gin.Context) {
	confession, err := e.Store.RandomPick(c.Request.Context())
	if err != nil {
		e.fail(c, err, "Failed to fetch random confession")
		return
	}
	c.JSON(http.StatusOK, confession)
}

func (e *Env) CreateConfession(c *gin.Context) {
	var input CreateConfessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if utf8.RuneCountInString(input.Content) > e.Limits.MaxConfessionLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Content must be at most %d characters", e.Limits.MaxConfessionLength)})
		return
	}

	confession := models.Confession{
		Content:  input.Content,
		Category: input.Category,
		Color:    input.Color,
		Mood:     models.Mood(input.Mood),
	}
	if err := e.Store.CreateConfession(c.Request.Context(), &confession); err != nil {
		e.fail(c, err, "Failed to create confession")
		return
	}

	e.Metrics.ConfessionCreated()
	e.publish(ws.EventNewConfession, confession)

	c.JSON(http.StatusCreated, gin.H{"id": confession.ID})
}

func (e *Env) ReactToConfession(c *gin.Context) {
	id, ok := confessionID(c)
	if !ok {
		return
	}
	var input ReactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	reaction, valid := models.ParseReaction(input.Type)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reaction type"})
		return
	}

	if err := e.Store.React(c.Request.Context(), id, reaction); err != nil {
		e.fail(c, err, "Failed to record reaction")
		return
	}

	e.Metrics.Reacted(reaction)
	e.publish(ws.EventReaction, gin.H{"id": id, "type": reaction})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (e *Env) ReportConfession(c *gin.Context) {
	id, ok := confessionID(c)
	if !ok {
		return
	}
	if err := e.Store.Report(c.Request.Context(), id); err != nil {
		e.fail(c, err, "Failed to report confession")
		return
	}

	e.Metrics.Reported()
	e.publish(ws.EventReport, gin.H{"id": id})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (e *Env) GetComments(c *gin.Context) {
	id, ok := confessionID(c)
	if !ok {
		return
	}
	comments, err := e.Store.ListComments(c.Request.Context(), id)
	if err != nil {
		e.fail(c, err, "Failed to fetch comments")
		return
	}
	if c.Query("view") == "thread" {
		c.JSON(http.StatusOK, models.ThreadComments(comments))
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (e *Env) CreateComment(c *gin.Context) {
	id, ok := confessionID(c)
	if !ok {
		return
	}
	var input CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if utf8.RuneCountInString(input.Content) > e.Limits.MaxCommentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Comment must be at most %d characters", e.Limits.MaxCommentLength)})
		return
	}
	// The feed client sends 0 or null for a top-level comment.
	if input.ParentID != nil && *input.ParentID == 0 {
		input.ParentID = nil
	}

	comment := models.Comment{
		ConfessionID: id,
		ParentID:     input.ParentID,
		Content:      input.Content,
	}
	if err := e.Store.CreateComment(c.Request.Context(), &comment); err != nil {
		e.fail(c, err, "Failed to create comment")
		return
	}

	e.Metrics.CommentCreated(comment.IsReply())
	e.publish(ws.EventNewComment, comment)

	c.JSON(http.StatusCreated, gin.H{"id": comment.ID})
}

// GetReportedConfessions is the moderation view behind the admin token.
func (e *Env) GetReportedConfessions(c *gin.Context) {
	confessions, err := e.Store.Reported(c.Request.Context(), e.Admin.ReportThreshold)
	if err != nil {
		e.fail(c, err, "Failed to fetch reported confessions")
		return
	}
	c.JSON(http.StatusOK, confessions)
}

// confessionID parses the :id path parameter, writing a 400 when it is not
// a positive integer.
func confessionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confession ID"})
		return 0, false
	}
	return uint(id), true
}

// fail maps store errors to a status. Validation failures echo the error;
// anything else is logged and hidden behind msg.
func (e *Env) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrMissingField),
		errors.Is(err, store.ErrInvalidMood),
		errors.Is(err, store.ErrInvalidReaction),
		errors.Is(err, store.ErrParentNotFound),
		errors.Is(err, store.ErrNestedReply):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		requestLogger(c).Error(msg, logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// publish pushes an event to websocket clients when a hub is configured.
func (e *Env) publish(eventType string, data any) {
	if e.Hub == nil {
		return
	}
	e.Hub.Publish(eventType, data)
}
