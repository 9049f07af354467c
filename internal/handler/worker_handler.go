package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/precache"
	"github.com/quocanhngo/raven-push/internal/push"
)

// WorkerHandler reports the worker state and serves precached assets
type WorkerHandler struct {
	worker   *push.Worker
	precache *precache.Precache // nil when no manifest is configured
}

func NewWorkerHandler(worker *push.Worker, precache *precache.Precache) *WorkerHandler {
	return &WorkerHandler{worker: worker, precache: precache}
}

// Status godoc
// @Summary Worker status
// @Tags Worker
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.WorkerStatusResponse
// @Router /worker [get]
func (h *WorkerHandler) Status(c *gin.Context) {
	resp := model.WorkerStatusResponse{
		NotificationsEnabled: h.worker.NotificationsEnabled(),
		SupportsActions:      h.worker.Capabilities().SupportsNotificationActions,
	}
	if h.precache != nil {
		resp.PrecachedAssets = h.precache.Count(c.Request.Context())
	}

	c.JSON(http.StatusOK, resp)
}

// Asset godoc
// @Summary Serve a precached asset
// @Tags Worker
// @Param path path string true "Asset path as listed in the manifest"
// @Success 200 {file} file
// @Failure 404 {object} model.ErrorResponse
// @Router /assets/{path} [get]
func (h *WorkerHandler) Asset(c *gin.Context) {
	if h.precache == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Asset not found"})
		return
	}

	// manifest URLs may be listed with or without the leading slash
	path := c.Param("path")
	obj, ok := h.precache.Match(c.Request.Context(), strings.TrimPrefix(path, "/"))
	if !ok {
		obj, ok = h.precache.Match(c.Request.Context(), path)
	}
	if !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Asset not found"})
		return
	}

	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
