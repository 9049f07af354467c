package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/repository"
)

// StorageHandler reads and writes the worker's local key-value storage
type StorageHandler struct {
	store repository.KVStore
}

func NewStorageHandler(store repository.KVStore) *StorageHandler {
	return &StorageHandler{store: store}
}

// GetItem godoc
// @Summary Read a storage item
// @Tags Storage
// @Produce json
// @Security BearerAuth
// @Param key path string true "Item key"
// @Success 200 {object} model.ItemResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /storage/{key} [get]
func (h *StorageHandler) GetItem(c *gin.Context) {
	key := c.Param("key")

	value, found, err := h.store.GetItem(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to read item", Message: err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Item not found"})
		return
	}

	c.JSON(http.StatusOK, model.ItemResponse{Key: key, Value: value})
}

// SetItem godoc
// @Summary Write a storage item
// @Description Writing currentUser changes which push messages are treated as self-authored.
// @Tags Storage
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Item key"
// @Param body body model.SetItemRequest true "Item value"
// @Success 200 {object} model.ItemResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /storage/{key} [put]
func (h *StorageHandler) SetItem(c *gin.Context) {
	var req model.SetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	key := c.Param("key")
	if err := h.store.SetItem(c.Request.Context(), key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to write item", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.ItemResponse{Key: key, Value: req.Value})
}

// DeleteItem godoc
// @Summary Remove a storage item
// @Tags Storage
// @Produce json
// @Security BearerAuth
// @Param key path string true "Item key"
// @Success 200 {object} model.SuccessResponse
// @Router /storage/{key} [delete]
func (h *StorageHandler) DeleteItem(c *gin.Context) {
	if err := h.store.RemoveItem(c.Request.Context(), c.Param("key")); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to remove item", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Item removed"})
}
