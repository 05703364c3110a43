package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/config"
	"github.com/fpnet-ml/fpnet/internal/model"
)

func newTestServer(t *testing.T) *Server[*cpu.CPUBackend] {
	t.Helper()
	gin.SetMode(gin.TestMode)

	labelsPath := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(labelsPath, []byte("cat\ndog\n"), 0o644))

	cfg := config.Default()
	cfg.MinLevel = 3
	cfg.MaxLevel = 5
	cfg.NumFilters = 4
	cfg.CellRepeats = 1
	cfg.HeadRepeats = 1
	cfg.NumClasses = 2
	cfg.ImageSize = 64
	cfg.ScoreThresh = 0
	cfg.MaxDetections = 3
	cfg.LabelsPath = labelsPath

	backend := cpu.New()
	det, err := model.New(cfg, backend)
	require.NoError(t, err)

	return New(det, backend, "")
}

// TestLabelsEndpoint checks GET /api/labels returns the class names.
func TestLabelsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/labels", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Labels []string `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"cat", "dog"}, body.Labels)
}

// TestDetectEndpoint uploads a PNG and checks the JSON detections.
func TestDetectEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, image.NewRGBA(image.Rect(0, 0, 32, 32))))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "test.png")
	require.NoError(t, err)
	_, err = part.Write(imgBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detect", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Detections []struct {
			Score     float32 `json:"score"`
			ClassID   int     `json:"class_id"`
			ClassName string  `json:"class_name"`
		} `json:"detections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Detections)
	for _, d := range resp.Detections {
		require.GreaterOrEqual(t, d.Score, float32(0))
		require.Contains(t, []string{"cat", "dog"}, d.ClassName)
	}
}

// TestDetectEndpointMissingImage checks the 400 path.
func TestDetectEndpointMissingImage(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detect", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestDetectEndpointBadImage checks non-image uploads are rejected.
func TestDetectEndpointBadImage(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "test.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a png"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detect", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
