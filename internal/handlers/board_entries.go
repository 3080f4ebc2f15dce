package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/middleware"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
)

// AddComment adds a comment to a task.
func (h *BoardHandler) AddComment(c *gin.Context) {
	type CommentRequest struct {
		Content     string `json:"content" binding:"required,max=10000"`
		HTMLContent string `json:"html_content"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	comment, err := s.AddComment(c.Request.Context(), c.Param("task_id"), kanban.CommentInput{
		Content:     req.Content,
		HTMLContent: req.HTMLContent,
		UserID:      viewer.ID,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// UpdateComment edits a comment. Only its author or a moderator may edit it.
func (h *BoardHandler) UpdateComment(c *gin.Context) {
	type CommentRequest struct {
		Content     string `json:"content" binding:"required,max=10000"`
		HTMLContent string `json:"html_content"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	id := c.Param("comment_id")
	if !h.ownsOr(c, s.Store(), id, permission.CanModerateComments, commentOwner) {
		return
	}

	comment, err := s.UpdateComment(c.Request.Context(), id, kanban.CommentPatch{
		Content:     req.Content,
		HTMLContent: req.HTMLContent,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment. Only its author or a moderator may delete it.
func (h *BoardHandler) DeleteComment(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	id := c.Param("comment_id")
	if !h.ownsOr(c, s.Store(), id, permission.CanModerateComments, commentOwner) {
		return
	}

	if err := s.DeleteComment(c.Request.Context(), id); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}

// ListTimeEntries returns a task's time entries, newest first.
func (h *BoardHandler) ListTimeEntries(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	task, found := s.Store().Task(c.Param("task_id"))
	if !found {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logged_hours": task.LoggedHours,
		"time_entries": s.Store().TimeEntriesByTask(task.ID),
	})
}

// AddTimeEntry records time spent on a task.
func (h *BoardHandler) AddTimeEntry(c *gin.Context) {
	type AddTimeEntryRequest struct {
		Hours       float64    `json:"hours" binding:"required,gt=0,lte=24"`
		Description string     `json:"description"`
		Date        *time.Time `json:"date"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AddTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	in := kanban.TimeEntryInput{
		Hours:       req.Hours,
		Description: req.Description,
		UserID:      viewer.ID,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	entry, err := s.AddTimeEntry(c.Request.Context(), c.Param("task_id"), in)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// UpdateTimeEntry edits a time entry. Entries of other users need time management.
func (h *BoardHandler) UpdateTimeEntry(c *gin.Context) {
	type UpdateTimeEntryRequest struct {
		Hours       *float64   `json:"hours" binding:"omitempty,gt=0,lte=24"`
		Description *string    `json:"description"`
		Date        *time.Time `json:"date"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req UpdateTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	id := c.Param("entry_id")
	if !h.ownsOr(c, s.Store(), id, canManageOthersTime, entryOwner) {
		return
	}

	entry, err := s.UpdateTimeEntry(c.Request.Context(), id, kanban.TimeEntryPatch{
		Hours:       req.Hours,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteTimeEntry removes a time entry. Entries of other users need time management.
func (h *BoardHandler) DeleteTimeEntry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	id := c.Param("entry_id")
	if !h.ownsOr(c, s.Store(), id, canManageOthersTime, entryOwner) {
		return
	}

	if err := s.DeleteTimeEntry(c.Request.Context(), id); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Time entry deleted successfully",
	})
}

type ownerLookup func(store *kanban.Store, id string) (uint64, bool)

func commentOwner(store *kanban.Store, id string) (uint64, bool) {
	comment, ok := store.Comment(id)
	return comment.UserID, ok
}

func entryOwner(store *kanban.Store, id string) (uint64, bool) {
	entry, ok := store.TimeEntry(id)
	return entry.UserID, ok
}

// ownsOr passes when the caller owns the entity or satisfies requirement.
// It writes the error response itself and returns false otherwise.
func (h *BoardHandler) ownsOr(c *gin.Context, store *kanban.Store, id string, requirement permission.Requirement, owner ownerLookup) bool {
	userID, found := owner(store, id)
	if !found {
		apierrors.NotFound(c, "")
		return false
	}
	viewer, _ := middleware.GetPrincipal(c)
	if viewer.ID == userID || permission.Evaluate(viewer, requirement) {
		return true
	}
	apierrors.InsufficientPermissions(c, "", gin.H{"required": requirement.String()})
	return false
}
