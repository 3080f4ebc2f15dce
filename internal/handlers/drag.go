package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/middleware"
)

// Drag handlers keep one drag per user and board. A drop resolves into a
// regular move, so it needs the same permission as MoveTask.

// StartDrag picks up a task.
func (h *BoardHandler) StartDrag(c *gin.Context) {
	type StartDragRequest struct {
		TaskID string `json:"task_id" binding:"required"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req StartDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	ds, err := s.StartDrag(userID, req.TaskID)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, ds)
}

// DragOver highlights the column under the dragged task.
func (h *BoardHandler) DragOver(c *gin.Context) {
	type DragOverRequest struct {
		ColumnID string `json:"column_id"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req DragOverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	c.JSON(http.StatusOK, s.DragOver(userID, req.ColumnID))
}

// Drop releases the dragged task. Dropping on the column it came from is a no-op.
func (h *BoardHandler) Drop(c *gin.Context) {
	type DropRequest struct {
		ColumnID string `json:"column_id" binding:"required"`
		Position int    `json:"position" binding:"min=0"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	outcome, err := s.Drop(c.Request.Context(), userID, req.ColumnID, req.Position)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// CancelDrag abandons the caller's drag.
func (h *BoardHandler) CancelDrag(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	s.CancelDrag(userID)
	c.JSON(http.StatusOK, s.DragState(userID))
}

// GetDragState reports the caller's drag.
func (h *BoardHandler) GetDragState(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	c.JSON(http.StatusOK, s.DragState(userID))
}
