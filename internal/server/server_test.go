package server

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	goimage "image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/landtint/internal/analysis"
	"github.com/jmylchreest/landtint/internal/dashboard"
)

func testServer(maxBytes int64) *Server {
	opts := analysis.DefaultOptions()
	opts.Layout = dashboard.Options{PanelWidth: 120, PanelHeight: 90}
	return New(Config{Analysis: opts, MaxUploadBytes: maxBytes})
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, 8, 4))
	for y := range 4 {
		for x := range 8 {
			c := color.RGBA{R: 20, G: 60, B: 160, A: 255}
			if y < 3 {
				c = color.RGBA{R: 60, G: 150, B: 40, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// hugePNG returns a 1x1 PNG whose header claims width x height pixels.
func hugePNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, goimage.NewRGBA(goimage.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// Signature (8), IHDR length (4), "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func multipartRequest(t *testing.T, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("image", "scene.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProcessImage(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(0).Handler().ServeHTTP(rec, multipartRequest(t, pngBytes(t), map[string]string{"numClusters": "2"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !resp.Success || resp.Results == nil {
		t.Fatalf("Expected success with results, got %+v", resp)
	}
	if resp.Results.K != 2 || len(resp.Results.Clusters) != 2 {
		t.Errorf("Expected 2 clusters, got %+v", resp.Results.Clusters)
	}
	if resp.Results.Clusters[0].Percentage != 75 {
		t.Errorf("Expected dominant cluster at 75%%, got %v", resp.Results.Clusters[0].Percentage)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(resp.AnalysisImage, prefix) {
		t.Fatalf("Expected PNG data URL, got %.40q", resp.AnalysisImage)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.AnalysisImage, prefix))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("analysis image is not a PNG: %v", err)
	}
}

func TestProcessImageDefaultsToFourClusters(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(0).Handler().ServeHTTP(rec, multipartRequest(t, pngBytes(t), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Results.K != 4 {
		t.Errorf("Expected K=4, got %d", resp.Results.K)
	}
}

func TestProcessImageErrors(t *testing.T) {
	tests := []struct {
		name   string
		file   []byte
		fields map[string]string
		max    int64
		status int
	}{
		{"missing image", nil, map[string]string{"numClusters": "3"}, 0, http.StatusBadRequest},
		{"bad cluster count", pngBytes(t), map[string]string{"numClusters": "many"}, 0, http.StatusBadRequest},
		{"too many clusters", pngBytes(t), map[string]string{"numClusters": "1000"}, 0, http.StatusBadRequest},
		{"not an image", []byte("definitely not a png"), nil, 0, http.StatusInternalServerError},
		{"too large", pngBytes(t), nil, 64, http.StatusRequestEntityTooLarge},
		{"too many pixels", hugePNG(t, 30000, 30000), nil, 0, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			testServer(tt.max).Handler().ServeHTTP(rec, multipartRequest(t, tt.file, tt.fields))
			if rec.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Errorf("Expected JSON error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestProcessImagePixelLimit(t *testing.T) {
	tests := []struct {
		name      string
		maxPixels int64
		status    int
	}{
		{"within limit", 32, http.StatusOK},
		{"over limit", 16, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := analysis.DefaultOptions()
			opts.Layout = dashboard.Options{PanelWidth: 120, PanelHeight: 90}
			srv := New(Config{Analysis: opts, MaxPixels: tt.maxPixels})

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, multipartRequest(t, pngBytes(t), map[string]string{"numClusters": "2"}))
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	h := testServer(0).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected healthz 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/process-image", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}
}
