// Package server exposes the detector over HTTP.
package server

import (
	"net/http"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/fpnet-ml/fpnet/internal/model"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Server wraps a detector behind a gin router.
type Server[B tensor.Backend] struct {
	detector *model.Detector[B]
	backend  B
	engine   *gin.Engine
}

// New creates the HTTP server. When staticDir is non-empty its contents are
// served at the root path as the UI.
func New[B tensor.Backend](detector *model.Detector[B], backend B, staticDir string) *Server[B] {
	s := &Server[B]{
		detector: detector,
		backend:  backend,
		engine:   gin.Default(),
	}

	if staticDir != "" {
		s.engine.Use(static.Serve("/", static.LocalFile(staticDir, false)))
	}

	api := s.engine.Group("/api")
	api.POST("/detect", s.handleDetect)
	api.GET("/labels", s.handleLabels)

	return s
}

// Run starts the server on addr, blocking until it stops.
func (s *Server[B]) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server[B]) Handler() http.Handler {
	return s.engine
}

// handleDetect accepts a multipart upload under the "image" field, runs the
// detector, and returns the detections as JSON.
func (s *Server[B]) handleDetect(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image field"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	img, err := model.DecodeImage(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := model.PreprocessImage(img, s.detector.Config().ImageSize, s.backend)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	detections, err := s.detector.Detect(input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"detections": detections})
}

// handleLabels returns the detector's class names.
func (s *Server[B]) handleLabels(c *gin.Context) {
	labels := s.detector.Labels()
	if labels == nil {
		labels = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}
