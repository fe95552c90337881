package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"cmdhub/db"
	"cmdhub/model"

	"github.com/gin-gonic/gin"
)

// Store is the persistence the handler delegates to. *db.Store satisfies it.
type Store interface {
	List(ctx context.Context) ([]model.Command, error)
	Get(ctx context.Context, id int64) (model.Command, error)
	Create(ctx context.Context, c model.Command) (model.Command, error)
	Update(ctx context.Context, c model.Command) error
	Delete(ctx context.Context, id int64) (model.Command, error)
	Ping(ctx context.Context) error
}

// Handler serves the /api/commands resource.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Register mounts the command routes under the given group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	cmds := rg.Group("/commands")
	{
		cmds.GET("", h.List)
		cmds.GET("/:id", h.Get)
		cmds.POST("", h.Create)
		cmds.PUT("/:id", h.Update)
		cmds.DELETE("/:id", h.Delete)
	}
}

// Health reports 200 when the store answers a ping, 503 otherwise.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/commands
func (h *Handler) List(c *gin.Context) {
	commands, err := h.store.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if commands == nil {
		commands = []model.Command{}
	}
	c.JSON(http.StatusOK, commands)
}

// GET /api/commands/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cmd, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

// POST /api/commands
func (h *Handler) Create(c *gin.Context) {
	var body model.Command
	if !bindCommand(c, &body) {
		return
	}
	cmd, err := h.store.Create(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", CommandPath(cmd.ID))
	c.JSON(http.StatusCreated, cmd)
}

// PUT /api/commands/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body model.Command
	if !bindCommand(c, &body) {
		return
	}
	if body.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id in path does not match id in body"})
		return
	}
	if err := h.store.Update(c.Request.Context(), body); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/commands/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cmd, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

// CommandPath is the location of a single command.
func CommandPath(id int64) string {
	return "/api/commands/" + strconv.FormatInt(id, 10)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}

// bindCommand decodes the body and runs validation on it.
func bindCommand(c *gin.Context, dst *model.Command) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if err := model.Validate(*dst); err != nil {
		var verr *model.ValidationError
		errors.As(err, &verr)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": verr.Fields})
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, db.ErrConstraint):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
