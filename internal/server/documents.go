package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
)

// documentHandler serves one document kind; invoices and bills mount the
// same handlers under different prefixes.
type documentHandler struct {
	docs      domain.Service
	rendering domain.RenderingService
}

func (h *documentHandler) register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/reference/:reference", h.GetByReference)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/lines", h.AddLine)
	g.POST("/:id/recalculate", h.Recalculate)
	g.GET("/:id/related", h.Related)
	g.GET("/:id/view", h.View)
	g.GET("/:id/pdf", h.PDF)
	g.GET("/:id/download", h.Download)
}

type relatedRequest struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

func (r relatedRequest) ref() domain.RelatedRef {
	return domain.NewRelatedRef(r.Type, r.ID)
}

type createDocumentRequest struct {
	Related      relatedRequest `json:"related" binding:"required"`
	Currency     string         `json:"currency"`
	Status       string         `json:"status"`
	Note         string         `json:"note"`
	ReceiverInfo map[string]any `json:"receiver_info"`
	SenderInfo   map[string]any `json:"sender_info"`
	PaymentInfo  map[string]any `json:"payment_info"`
}

type taxRequest struct {
	Name   string   `json:"name" binding:"required"`
	Rate   *float64 `json:"rate"`
	Amount *int64   `json:"amount"`
}

type addLineRequest struct {
	Related       relatedRequest `json:"related" binding:"required"`
	Amount        int64          `json:"amount"`
	Description   string         `json:"description"`
	TaxMode       string         `json:"tax_mode"`
	Taxes         []taxRequest   `json:"taxes"`
	Discount      int64          `json:"discount"`
	Free          bool           `json:"free"`
	Complimentary bool           `json:"complimentary"`
}

func (r addLineRequest) line() (domain.Line, error) {
	line := domain.NewLine(r.Related.ref(), r.Amount, r.Description)
	for _, t := range r.Taxes {
		switch {
		case t.Rate != nil && t.Amount == nil:
			line = line.WithTaxPercentage(t.Name, *t.Rate)
		case t.Amount != nil && t.Rate == nil:
			line = line.WithTaxAmount(t.Name, *t.Amount)
		default:
			return domain.Line{}, newValidationError("taxes", "invalid_tax", "each tax needs exactly one of rate or amount")
		}
	}
	if r.Discount != 0 {
		line = line.WithDiscount(r.Discount)
	}
	switch {
	case r.Free && r.Complimentary:
		return domain.Line{}, newValidationError("free", "invalid_line_class", "a line cannot be both free and complimentary")
	case r.Free:
		line = line.Free()
	case r.Complimentary:
		line = line.Complimentary()
	}
	return line, nil
}

func (h *documentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := h.docs.Create(c.Request.Context(), req.Related.ref(), domain.CreateRequest{
		Currency:     req.Currency,
		Status:       req.Status,
		Note:         req.Note,
		ReceiverInfo: req.ReceiverInfo,
		SenderInfo:   req.SenderInfo,
		PaymentInfo:  req.PaymentInfo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": doc})
}

func (h *documentHandler) List(c *gin.Context) {
	includeDeleted, err := parseOptionalBool(c.Query("include_deleted"))
	if err != nil {
		AbortWithError(c, newValidationError("include_deleted", "invalid_include_deleted", "invalid include_deleted"))
		return
	}

	pageSize := 0
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 || pageSize > pagination.MaxPageSize {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page_size"))
			return
		}
	}

	resp, err := h.docs.List(c.Request.Context(), domain.ListRequest{
		Related:        domain.NewRelatedRef(c.Query("related_type"), c.Query("related_id")),
		Status:         c.Query("status"),
		IncludeDeleted: includeDeleted != nil && *includeDeleted,
		PageToken:      strings.TrimSpace(c.Query("page_token")),
		PageSize:       pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Documents, "page_info": resp.PageInfo})
}

func (h *documentHandler) Get(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}
	opts, ok := findOptions(c)
	if !ok {
		return
	}

	doc, err := h.docs.Get(c.Request.Context(), id, opts...)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (h *documentHandler) GetByReference(c *gin.Context) {
	opts, ok := findOptions(c)
	if !ok {
		return
	}

	doc, err := h.docs.FindByReferenceOrFail(c.Request.Context(), c.Param("reference"), opts...)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (h *documentHandler) AddLine(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}

	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	line, err := req.line()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	var doc *domain.Document
	switch strings.ToLower(strings.TrimSpace(req.TaxMode)) {
	case "", "exclusive":
		doc, err = h.docs.AddAmountExclTax(ctx, id, line)
	case "inclusive":
		doc, err = h.docs.AddAmountInclTax(ctx, id, line)
	default:
		AbortWithError(c, newValidationError("tax_mode", "invalid_tax_mode", "tax_mode must be exclusive or inclusive"))
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": doc})
}

func (h *documentHandler) Recalculate(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}

	doc, err := h.docs.Recalculate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (h *documentHandler) Delete(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}

	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *documentHandler) Related(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.docs.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	entity, err := h.docs.Related(ctx, doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entity})
}

func (h *documentHandler) View(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}

	html, err := h.rendering.View(c.Request.Context(), id, renderExtra(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *documentHandler) PDF(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}

	body, err := h.rendering.PDF(c.Request.Context(), id, renderExtra(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/pdf", body)
}

func (h *documentHandler) Download(c *gin.Context) {
	id, ok := documentIDParam(c)
	if !ok {
		return
	}

	dl, err := h.rendering.Download(c.Request.Context(), id, renderExtra(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	for k, v := range dl.Headers {
		c.Header(k, v)
	}
	c.Data(http.StatusOK, dl.Headers["Content-Type"], dl.Body)
}

func findOptions(c *gin.Context) ([]domain.FindOption, bool) {
	includeDeleted, err := parseOptionalBool(c.Query("include_deleted"))
	if err != nil {
		AbortWithError(c, newValidationError("include_deleted", "invalid_include_deleted", "invalid include_deleted"))
		return nil, false
	}
	if includeDeleted != nil && *includeDeleted {
		return []domain.FindOption{domain.WithTrashed()}, true
	}
	return nil, true
}

// renderExtra exposes the title query parameter to templates.
func renderExtra(c *gin.Context) map[string]any {
	extra := map[string]any{}
	if title := strings.TrimSpace(c.Query("title")); title != "" {
		extra["title"] = title
	}
	return extra
}
