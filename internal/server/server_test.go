package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/hub"
	"whiteboard-backend/internal/store"
)

func newTestServer(t *testing.T) *Server {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         ":0",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
		WebSocket: config.WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		CORS: config.CORSConfig{
			AllowOrigins: "*",
			AllowHeaders: "Origin, Content-Type, Accept",
		},
		Canvas: config.CanvasConfig{
			DefaultWidth:  1920,
			DefaultHeight: 1080,
			MaxDimension:  4096,
		},
		Upload: config.UploadConfig{
			Dir:         t.TempDir(),
			MaxFileSize: 1024 * 1024,
		},
		Vision: config.VisionConfig{
			AnalyticsEnabled: true,
		},
	}

	st := store.New(store.Options{
		DefaultCanvasWidth:  cfg.Canvas.DefaultWidth,
		DefaultCanvasHeight: cfg.Canvas.DefaultHeight,
		MaxCanvasDimension:  cfg.Canvas.MaxDimension,
	})
	wsHub := hub.New(st.Rooms, false)

	return New(cfg, st, wsHub, nil, nil)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestRoomLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/rooms", map[string]string{"room_name": "retro"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeBody(t, resp)
	roomID, _ := created["room_id"].(string)
	require.NotEmpty(t, roomID)
	assert.Equal(t, "retro", created["room_name"])

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/rooms/"+roomID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	room := decodeBody(t, resp)
	assert.Equal(t, "retro", room["name"])

	resp = doJSON(t, srv, http.MethodDelete, "/api/v1/rooms/"+roomID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/rooms/"+roomID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Deleting an already-gone room still succeeds.
	resp = doJSON(t, srv, http.MethodDelete, "/api/v1/rooms/"+roomID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateRoomRequiresName(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/rooms", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCanvasSaveAndFetch(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/rooms", map[string]string{"room_name": "canvas"})
	roomID := decodeBody(t, resp)["room_id"].(string)

	doc := map[string]any{
		"strokes": []map[string]any{
			{
				"points": []map[string]float64{{"x": 5, "y": 5}},
				"color":  "#ff0000",
				"width":  2,
				"tool":   "pen",
			},
		},
		"canvas_width":     100,
		"canvas_height":    100,
		"background_color": "#ffffff",
	}

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/canvas/save?room_id="+roomID, doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeBody(t, resp)
	assert.Equal(t, true, saved["success"])
	require.Contains(t, saved, "analytics")

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/canvas/"+roomID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.EqualValues(t, 100, fetched["canvas_width"])

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/analytics/"+roomID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	analytics := decodeBody(t, resp)
	assert.EqualValues(t, 1, analytics["total_strokes"])
}

func TestCanvasSaveErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/canvas/save?room_id=ghost", map[string]any{
		"strokes":       []any{},
		"canvas_width":  100,
		"canvas_height": 100,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/rooms", map[string]string{"room_name": "strict"})
	roomID := decodeBody(t, resp)["room_id"].(string)

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/canvas/save?room_id="+roomID, map[string]any{
		"strokes":       []any{},
		"canvas_width":  -1,
		"canvas_height": 100,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/canvas/save", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSaveWithOmittedDimensions(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/rooms", map[string]string{"room_name": "sparse"})
	roomID := decodeBody(t, resp)["room_id"].(string)

	// No canvas dimensions and a bare stroke: defaults fill in.
	resp = doJSON(t, srv, http.MethodPost, "/api/v1/canvas/save?room_id="+roomID, map[string]any{
		"strokes": []map[string]any{
			{"points": []map[string]float64{{"x": 5, "y": 5}}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/canvas/"+roomID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.EqualValues(t, 1920, fetched["canvas_width"])
	assert.EqualValues(t, 1080, fetched["canvas_height"])
}

func TestAnalyticsUnknownRoomColdStart(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/analytics/ghost", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	analytics := decodeBody(t, resp)
	assert.EqualValues(t, 0, analytics["total_strokes"])
	assert.NotNil(t, analytics["color_usage"])
}

func TestCanvasNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/rooms", map[string]string{"room_name": "bare"})
	roomID := decodeBody(t, resp)["room_id"].(string)

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/canvas/"+roomID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRevisionsDisabledWithoutArchive(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/canvas/some-room/revisions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestVisionDisabledWithoutService(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/ai/detect-shapes", map[string]string{"image_data": "aaaa"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/ai/ocr", map[string]string{"image_data": "aaaa"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadImage(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="sketch.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("not-a-real-png-but-close-enough"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	url, _ := body["image_url"].(string)
	assert.True(t, len(url) > len("/uploads/"), fmt.Sprintf("unexpected url %q", url))
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/ws", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	resp.Body.Close()
}
