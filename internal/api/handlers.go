package api

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/image-compose-mcp/internal/dispatch"
	"github.com/ironsheep/image-compose-mcp/internal/imaging"
	"github.com/ironsheep/image-compose-mcp/internal/layout"
)

// PathHeader reports which execution path produced a composed image.
const PathHeader = "X-Composition-Path"

// Handler serves the composition endpoints.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	now        func() time.Time
}

// NewHandler creates a Handler that composes through d.
func NewHandler(d *dispatch.Dispatcher) *Handler {
	return &Handler{dispatcher: d, now: time.Now}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// compose accepts either a multipart form with "images" files and settings
// fields, or a JSON body shaped like the worker request:
//
//	{"images": [{"name": "a.png", "data": "<base64>"}], "settings": {...}}
//
// It answers with the PNG as an attachment.
func (h *Handler) compose(c *gin.Context) {
	var (
		sources  []imaging.Source
		settings layout.Settings
		err      error
	)

	if c.ContentType() == gin.MIMEJSON {
		var req dispatch.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sources, settings = req.Images, req.Settings
		if settings.Layout == "" {
			settings.Layout = layout.LayoutHorizontal
		}
	} else {
		sources, settings, err = readForm(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, err := h.dispatcher.Compose(c.Request.Context(), sources, settings)
	if err != nil {
		log.Printf("Composition of %d images failed: %v", len(sources), err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", imaging.FileName(h.now())))
	c.Header(PathHeader, string(res.Path))
	c.Data(http.StatusOK, res.Output.MimeType, res.Output.Data)
}

// readForm collects uploaded images in field order plus settings fields.
func readForm(c *gin.Context) ([]imaging.Source, layout.Settings, error) {
	var settings layout.Settings

	form, err := c.MultipartForm()
	if err != nil {
		return nil, settings, fmt.Errorf("expected a multipart form: %w", err)
	}

	files := form.File["images"]
	sources := make([]imaging.Source, 0, len(files))
	for _, fh := range files {
		src, err := readUpload(fh)
		if err != nil {
			return nil, settings, err
		}
		sources = append(sources, src)
	}

	settings.Layout = layout.Layout(c.DefaultPostForm("layout", string(layout.LayoutHorizontal)))
	settings.BackgroundColor = c.PostForm("background_color")
	settings.SizeMode = layout.SizeMode(c.PostForm("size_mode"))

	if v := c.PostForm("gap"); v != "" {
		if settings.Gap, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, settings, fmt.Errorf("invalid gap %q", v)
		}
	}
	if v := c.PostForm("columns"); v != "" {
		if settings.Columns, err = strconv.Atoi(v); err != nil {
			return nil, settings, fmt.Errorf("invalid columns %q", v)
		}
	}
	return sources, settings, nil
}

func readUpload(fh *multipart.FileHeader) (imaging.Source, error) {
	f, err := fh.Open()
	if err != nil {
		return imaging.Source{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return imaging.ReadSource(fh.Filename, f)
}

type layoutRequest struct {
	Dimensions []layout.Dimensions `json:"dimensions" binding:"required"`
	Settings   layout.Settings     `json:"settings"`
}

// resolveLayout resolves canvas size and placements from image dimensions.
func (h *Handler) resolveLayout(c *gin.Context) {
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Settings.Layout == "" {
		req.Settings.Layout = layout.LayoutHorizontal
	}

	plan, err := layout.Resolve(req.Dimensions, req.Settings)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// statusFor maps composition errors to HTTP status codes: caller mistakes are
// 400, everything else is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, layout.ErrEmptyInput),
		errors.Is(err, layout.ErrInvalidDimensions),
		errors.Is(err, layout.ErrInvalidSettings),
		errors.Is(err, imaging.ErrDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
