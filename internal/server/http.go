package server

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ironsheep/ocr-textboxes/internal/imaging"
	"github.com/ironsheep/ocr-textboxes/internal/ocr"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the per-request ID on HTTP responses.
const RequestIDHeader = "X-Request-ID"

// maxUploadBytes bounds multipart image uploads.
const maxUploadBytes = 32 << 20

// HTTPHandler serves extraction over HTTP.
type HTTPHandler struct {
	extractor *ocr.TextExtractor
	timeout   time.Duration
	log       *logrus.Entry
}

// NewHTTPHandler returns a handler backed by extractor. A zero timeout means
// requests are bounded only by the client.
func NewHTTPHandler(extractor *ocr.TextExtractor, timeout time.Duration, log *logrus.Entry) *HTTPHandler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &HTTPHandler{
		extractor: extractor,
		timeout:   timeout,
		log:       log.WithField("transport", "http"),
	}
}

// Router builds the gin engine with every route registered.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.Use(gin.Recovery(), h.requestID(), h.accessLog())

	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	{
		v1.GET("/engine", h.Engine)
		v1.POST("/extract", h.Extract)
	}
	return r
}

// Health reports that the process is serving.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Engine reports the configured engine and whether it can run.
func (h *HTTPHandler) Engine(c *gin.Context) {
	info := ocr.DescribeEngine(c.Request.Context(), h.extractor.Engine())
	status := http.StatusOK
	if !info.Available {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, info)
}

type extractRequest struct {
	Path   string  `json:"path" binding:"required"`
	Region *Region `json:"region"`
}

// Extract accepts either a multipart upload in the "image" field or a JSON
// body naming a path on the server's filesystem. A region may be given as
// JSON "region" or as x1,y1,x2,y2 form fields.
func (h *HTTPHandler) Extract(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	var (
		img    image.Image
		path   string
		region *Region
		err    error
	)

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		img, region, err = h.readUpload(c)
	} else {
		var req extractRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			h.abort(c, http.StatusBadRequest, "", bindErr)
			return
		}
		path, region = req.Path, req.Region
		img, err = loadImage(path)
	}

	var resp *ExtractResponse
	if err == nil {
		resp, err = extractImage(ctx, h.extractor, img, path, region)
	}
	if err != nil {
		var bad *badRequestError
		if errors.As(err, &bad) {
			h.abort(c, http.StatusBadRequest, "", bad.err)
			return
		}
		h.abort(c, statusFor(err), string(ocr.CodeOf(err)), err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// readUpload decodes the multipart "image" field and the optional region
// fields.
func (h *HTTPHandler) readUpload(c *gin.Context) (image.Image, *Region, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, nil, &badRequestError{err: err}
	}

	var region *Region
	if _, ok := c.GetPostForm("x2"); ok {
		var form struct {
			X1 int `form:"x1"`
			Y1 int `form:"y1"`
			X2 int `form:"x2"`
			Y2 int `form:"y2"`
		}
		if err := c.ShouldBind(&form); err != nil {
			return nil, nil, &badRequestError{err: err}
		}
		region = &Region{X1: form.X1, Y1: form.Y1, X2: form.X2, Y2: form.Y2}
	}

	f, err := file.Open()
	if err != nil {
		return nil, nil, ocr.NewImageLoadError(file.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, ocr.NewImageLoadError(file.Filename, err)
	}
	img, err := imaging.LoadBytes(data)
	if err != nil {
		return nil, nil, ocr.NewImageLoadError(file.Filename, err)
	}
	return img, region, nil
}

func (h *HTTPHandler) abort(c *gin.Context, status int, code string, err error) {
	body := gin.H{
		"error":      err.Error(),
		"request_id": c.GetString("request_id"),
	}
	if code != "" {
		body["error_code"] = code
	}
	c.AbortWithStatusJSON(status, body)
}

// requestID tags each request with a UUID, reusing the caller's when given.
func (h *HTTPHandler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (h *HTTPHandler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.log.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request completed")
	}
}

// statusFor maps extraction error codes to HTTP status codes.
func statusFor(err error) int {
	switch ocr.CodeOf(err) {
	case ocr.CodeImageLoad:
		return http.StatusUnprocessableEntity
	case ocr.CodeEngineUnavailable:
		return http.StatusServiceUnavailable
	case ocr.CodeEngineFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
