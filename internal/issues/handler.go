package issues

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/certforge/certforge/internal/auth"
	"github.com/certforge/certforge/internal/settings"
)

type Handler struct {
	service *Service
	site    *settings.Service
}

func NewHandler(service *Service, site *settings.Service) *Handler {
	return &Handler{service: service, site: site}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	iss := rg.Group("/issues")
	{
		iss.POST("", h.Issue)
		iss.GET("/mine", h.ListMine)
		iss.GET("/:id/certificate.pdf", h.Download)
		iss.POST("/:id/revoke", h.Revoke)
		iss.POST("/:id/emailed", h.MarkEmailed)
	}
	tpl := rg.Group("/templates/:id/issues")
	{
		tpl.GET("", h.ListByTemplate)
		tpl.GET("/export.xlsx", h.Export)
	}
}

// RegisterPublicRoutes mounts the verification endpoint, which needs no
// authentication.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/verify/:code", h.Verify)
}

type issueRequest struct {
	TemplateID uuid.UUID `json:"template_id" binding:"required"`
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	CourseID   uuid.UUID `json:"course_id" binding:"required"`
}

func (h *Handler) Issue(c *gin.Context) {
	actor, ok := auth.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, doc, err := h.service.IssueCertificate(c.Request.Context(), actor, req.TemplateID, req.UserID, req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("X-Issue-Id", issue.ID.String())
	c.Header("X-Issue-Code", issue.Code)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", issue.Code+".pdf"))
	c.Data(http.StatusCreated, "application/pdf", doc)
}

func (h *Handler) Download(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	issue, doc, err := h.service.RenderIssue(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", issue.Code+".pdf"))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := auth.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	list, err := h.service.FindByRecipient(c.Request.Context(), actor, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListByTemplate(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	list, err := h.service.FindByTemplate(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Export(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	list, err := h.service.FindByTemplate(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	opts := DefaultExportOptions()
	opts.IncludeRevoked = c.Query("include_revoked") == "true"

	c.Header("Content-Disposition", `attachment; filename="issues.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := NewExporter(opts).Write(c.Writer, list); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) Revoke(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.Revoke(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkEmailed(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.MarkEmailed(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Verify answers whether a code belongs to an issue. Site settings gate
// anonymous access and whether revoked issues are reported or hidden.
func (h *Handler) Verify(c *gin.Context) {
	site, err := h.site.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if !site.PublicVerify {
		if _, ok := auth.ActorID(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "verification requires login"})
			return
		}
	}

	code := c.Param("code")
	issue, err := h.service.VerifyCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"valid": false})
			return
		}
		writeError(c, err)
		return
	}
	if issue.RevokedAt != nil && !site.ShowRevoked {
		c.JSON(http.StatusNotFound, gin.H{"valid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":     issue.Active(),
		"revoked":   issue.RevokedAt != nil,
		"template":  issue.TemplateName,
		"issued_at": issue.IssuedAt,
	})
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
	var dup *DuplicateIssueError
	if errors.As(err, &dup) {
		c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
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
