package templates

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/certforge/certforge/internal/auth"
	"github.com/certforge/certforge/internal/elements"
)

// PageDefaultsFunc supplies default page geometry for requests that omit
// dimensions. Wired from site settings at startup.
type PageDefaultsFunc func(ctx context.Context) (widthMM, heightMM, marginMM float64)

type Handler struct {
	service      *Service
	renderer     *Renderer
	pageDefaults PageDefaultsFunc
}

func NewHandler(service *Service, renderer *Renderer, pageDefaults PageDefaultsFunc) *Handler {
	return &Handler{service: service, renderer: renderer, pageDefaults: pageDefaults}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	tpl := rg.Group("/templates")
	{
		tpl.POST("", h.Create)
		tpl.GET("", h.List)
		tpl.GET("/:id", h.Get)
		tpl.PUT("/:id", h.Update)
		tpl.DELETE("/:id", h.Delete)
		tpl.POST("/:id/duplicate", h.Duplicate)
		tpl.POST("/:id/pages", h.AddPage)
		tpl.GET("/:id/preview.pdf", h.Preview)
	}
	pages := rg.Group("/pages")
	{
		pages.PUT("/:id", h.UpdatePage)
		pages.DELETE("/:id", h.DeletePage)
		pages.POST("/:id/elements", h.AddElement)
		pages.PUT("/:id/elements/order", h.ReorderElements)
	}
	els := rg.Group("/elements")
	{
		els.GET("/types", h.ElementTypes)
		els.PUT("/:id", h.UpdateElement)
		els.PUT("/:id/position", h.MoveElement)
		els.DELETE("/:id", h.RemoveElement)
		els.GET("/:id/preview", h.ElementPreview)
	}
}

type createTemplateRequest struct {
	Name     string     `json:"name" binding:"required"`
	CourseID *uuid.UUID `json:"course_id"`
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := auth.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.CreateTemplate(c.Request.Context(), actor, req.Name, req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := auth.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var courseID *uuid.UUID
	if raw := c.Query("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course_id"})
			return
		}
		courseID = &id
	}

	list, err := h.service.ListTemplates(c.Request.Context(), actor, courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	t, err := h.service.GetTemplate(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type updateTemplateRequest struct {
	Name         string `json:"name" binding:"required"`
	AllowReissue bool   `json:"allow_reissue"`
	AutoAward    bool   `json:"auto_award"`
}

func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req updateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := &Template{ID: id, Name: req.Name, AllowReissue: req.AllowReissue, AutoAward: req.AutoAward}
	if err := h.service.UpdateTemplate(c.Request.Context(), actor, t); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type duplicateRequest struct {
	CourseID *uuid.UUID `json:"course_id"`
}

func (h *Handler) Duplicate(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req duplicateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	dup, err := h.service.DuplicateTemplate(c.Request.Context(), actor, id, req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dup)
}

type pageRequest struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	MarginMM float64 `json:"margin_mm"`
}

func (h *Handler) AddPage(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req pageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.WidthMM == 0 && req.HeightMM == 0 && h.pageDefaults != nil {
		req.WidthMM, req.HeightMM, req.MarginMM = h.pageDefaults(c.Request.Context())
	}

	p, err := h.service.AddPage(c.Request.Context(), actor, id, req.WidthMM, req.HeightMM, req.MarginMM)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePage(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.UpdatePage(c.Request.Context(), actor, id, req.WidthMM, req.HeightMM, req.MarginMM)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePage(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePage(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addElementRequest struct {
	Type string  `json:"type" binding:"required"`
	PosX float64 `json:"pos_x"`
	PosY float64 `json:"pos_y"`
}

func (h *Handler) AddElement(c *gin.Context) {
	actor, pageID, ok := actorAndID(c)
	if !ok {
		return
	}

	var req addElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	el, err := h.service.AddElement(c.Request.Context(), actor, pageID, req.Type, req.PosX, req.PosY)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, el)
}

type reorderRequest struct {
	ElementIDs []uuid.UUID `json:"element_ids" binding:"required"`
}

func (h *Handler) ReorderElements(c *gin.Context) {
	actor, pageID, ok := actorAndID(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ReorderElements(c.Request.Context(), actor, pageID, req.ElementIDs); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateElement(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var fieldValues map[string]string
	if err := c.ShouldBindJSON(&fieldValues); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	el, err := h.service.UpdateElement(c.Request.Context(), actor, id, fieldValues)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, el)
}

type moveElementRequest struct {
	PosX  float64 `json:"pos_x"`
	PosY  float64 `json:"pos_y"`
	Width float64 `json:"width"`
}

func (h *Handler) MoveElement(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req moveElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	el, err := h.service.MoveElement(c.Request.Context(), actor, id, req.PosX, req.PosY, req.Width)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, el)
}

func (h *Handler) RemoveElement(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.RemoveElement(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ElementPreview(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	html, err := h.service.ElementPreview(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *Handler) ElementTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": h.service.Registry().List()})
}

// Preview renders the template against placeholder recipient data so
// designers can inspect the layout without issuing anything.
func (h *Handler) Preview(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if _, err := h.service.GetTemplate(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}

	doc, err := h.renderer.Render(c.Request.Context(), id, previewContext())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", doc)
}

// previewContext is sample recipient data for layout previews.
func previewContext() elements.MapContext {
	return elements.MapContext{
		elements.CtxUserFullName:    "Sample Student",
		elements.CtxUserFirstName:   "Sample",
		elements.CtxUserLastName:    "Student",
		elements.CtxUserEmail:       "student@example.com",
		elements.CtxCourseFullName:  "Sample Course",
		elements.CtxCourseShortName: "SC101",
		elements.CtxGrade:           "100.00",
		elements.CtxCompletionDate:  "2026-01-01T00:00:00Z",
		elements.CtxIssueDate:       "2026-01-01T00:00:00Z",
		elements.CtxCode:            "PREVIEW000000",
		elements.CtxVerifyURL:       "https://example.com/verify/PREVIEW000000",
	}
}

func actorAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	actor, ok := auth.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, uuid.Nil, false
	}
	return actor, id, true
}

func writeError(c *gin.Context, err error) {
	var ve *elements.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Error(), "fields": ve.Errors})
		return
	}
	var unknown *elements.UnknownTypeError
	if errors.As(err, &unknown) {
		c.JSON(http.StatusBadRequest, gin.H{"error": unknown.Error()})
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
