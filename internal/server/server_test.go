package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/image/bmp"

	"github.com/robert-malhotra/h5view/internal/catalog"
	"github.com/robert-malhotra/h5view/internal/config"
	"github.com/robert-malhotra/h5view/internal/h5test"
	"github.com/robert-malhotra/h5view/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixture() *h5test.Group {
	return &h5test.Group{
		Children: []h5test.Node{
			&h5test.Dataset{
				Name: "depth", Dims: []uint64{2, 3}, Type: h5test.Float(4),
				Data:  h5test.Float32s(0, 0, 5, 10, 0, 20),
				Attrs: []h5test.Attr{{Name: "units", Type: h5test.String(2), Data: h5test.Strings(2, "mm")}},
			},
			&h5test.Dataset{Name: "rgb", Dims: []uint64{2, 2, 3}, Type: h5test.Int(1, false), Data: h5test.Ramp(12)},
			&h5test.Dataset{Name: "seq", Dims: []uint64{3}, Type: h5test.Int(2, true), Data: h5test.Int16s(-1, 0, 1)},
			&h5test.Group{Name: "meta"},
			&h5test.Dataset{Name: "blank", Dims: []uint64{4, 0, 3}, Type: h5test.Int(1, false)},
		},
	}
}

type harness struct {
	t        *testing.T
	srv      *Server
	sessions *session.Manager
}

func newHarness(t *testing.T, cat *catalog.Catalog, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	sessions := session.NewManager(session.Options{MaxElements: cfg.Render.MaxElements})
	t.Cleanup(sessions.CloseAll)

	srv, err := New(cfg, sessions, cat, nil)
	require.NoError(t, err)
	return &harness{t: t, srv: srv, sessions: sessions}
}

func (h *harness) do(method, url string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, url, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) upload(name string, data []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(h.t, err)
	fw.Write(data)
	require.NoError(h.t, mw.Close())
	return h.do(http.MethodPost, "/api/files", &body, mw.FormDataContentType())
}

// open uploads the fixture and returns the session id.
func (h *harness) open() string {
	h.t.Helper()
	rec := h.upload("fixture.h5", h5test.Build(fixture()))
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	decode(h.t, rec, &resp)
	return resp.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decode(t, rec, &resp)
	return resp.Error
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","sessions":0}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Up to 537 MB")
	assert.Contains(t, rec.Body.String(), `accept=".h5,.hdf5,.he5,.nxs"`)
	assert.NotContains(t, rec.Body.String(), `id="catalog"`)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/nope", nil, "").Code)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(http.MethodOptions, "/api/files", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	h = newHarness(t, nil, func(c *config.Config) { c.Server.CORS = false })
	rec = h.do(http.MethodGet, "/health", nil, "")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadAndTree(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.upload("fixture.h5", h5test.Build(fixture()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Tree struct {
			Path     string `json:"path"`
			Children []struct {
				Path  string `json:"path"`
				Kind  string `json:"kind"`
				Shape []int  `json:"shape"`
				Dtype string `json:"dtype"`
			} `json:"children"`
		} `json:"tree"`
	}
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "fixture.h5", resp.Name)
	assert.Equal(t, "/", resp.Tree.Path)
	require.Len(t, resp.Tree.Children, 5)
	assert.Equal(t, "/depth", resp.Tree.Children[0].Path)
	assert.Equal(t, []int{2, 3}, resp.Tree.Children[0].Shape)
	assert.Equal(t, "<f4", resp.Tree.Children[0].Dtype)
	assert.Equal(t, "group", resp.Tree.Children[3].Kind)

	rec = h.do(http.MethodGet, "/api/files/"+resp.ID+"/tree", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.sessions.Len())
}

func TestUploadRejected(t *testing.T) {
	h := newHarness(t, nil, func(c *config.Config) { c.Server.MaxUploadBytes = 2048 })

	rec := h.upload("notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "not an HDF5 file name")

	rec = h.upload("junk.h5", bytes.Repeat([]byte{7}, 1024))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/files", bytes.NewBufferString("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.upload("big.h5", make([]byte, 8192))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
	assert.Equal(t, 0, h.sessions.Len())
}

func TestSelectAndModes(t *testing.T) {
	h := newHarness(t, nil)
	id := h.open()
	base := "/api/files/" + id

	rec := h.do(http.MethodPost, base+"/select?path=/depth", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info struct {
		Path       string   `json:"path"`
		Mode       string   `json:"mode"`
		Modes      []string `json:"modes"`
		Units      string   `json:"units"`
		Attributes []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"attributes"`
	}
	decode(t, rec, &info)
	assert.Equal(t, "/depth", info.Path)
	assert.Equal(t, "matrix", info.Mode)
	assert.Equal(t, []string{"matrix", "depth"}, info.Modes)
	assert.Equal(t, "mm", info.Units)
	require.Len(t, info.Attributes, 1)
	assert.Equal(t, "mm", info.Attributes[0].Value)

	rec = h.do(http.MethodPost, base+"/mode?mode=image", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = h.do(http.MethodPost, base+"/mode?mode=sideways", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, base+"/mode?mode=depth", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &info)
	assert.Equal(t, "depth", info.Mode)

	// Reselecting resets to matrix.
	rec = h.do(http.MethodPost, base+"/select?path=/depth", nil, "")
	decode(t, rec, &info)
	assert.Equal(t, "matrix", info.Mode)

	rec = h.do(http.MethodPost, base+"/select?path=/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodPost, base+"/select", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewPayloads(t *testing.T) {
	h := newHarness(t, nil)
	id := h.open()
	base := "/api/files/" + id

	rec := h.do(http.MethodGet, base+"/view", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "nothing selected")

	h.do(http.MethodPost, base+"/select?path=/seq", nil, "")
	rec = h.do(http.MethodGet, base+"/view", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var table struct {
		Mode    string `json:"mode"`
		Caption string `json:"caption"`
		Table   struct {
			Kind string `json:"kind"`
			Rows []struct {
				Label string   `json:"label"`
				Cells []string `json:"cells"`
			} `json:"rows"`
		} `json:"table"`
	}
	decode(t, rec, &table)
	assert.Equal(t, "matrix", table.Mode)
	assert.Equal(t, "sequence-1d", table.Table.Kind)
	assert.Equal(t, "3 values", table.Caption)
	require.Len(t, table.Table.Rows, 3)
	assert.Equal(t, []string{"-1"}, table.Table.Rows[0].Cells)

	h.do(http.MethodPost, base+"/select?path=/rgb", nil, "")
	h.do(http.MethodPost, base+"/mode?mode=image", nil, "")
	rec = h.do(http.MethodGet, base+"/view", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var img struct {
		Image struct {
			Mode   string   `json:"mode"`
			Width  int      `json:"width"`
			Height int      `json:"height"`
			URLs   []string `json:"urls"`
		} `json:"image"`
	}
	decode(t, rec, &img)
	assert.Equal(t, "rgb", img.Image.Mode)
	assert.Equal(t, []string{base + "/frames/0"}, img.Image.URLs)

	h.do(http.MethodPost, base+"/select?path=/depth", nil, "")
	h.do(http.MethodPost, base+"/mode?mode=depth", nil, "")
	rec = h.do(http.MethodGet, base+"/view", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dv struct {
		Depth struct {
			Header string `json:"header"`
			Items  []struct {
				Range  struct{ Min, Max float64 } `json:"range"`
				Legend string                     `json:"legend"`
				URL    string                     `json:"url"`
			} `json:"items"`
		} `json:"depth"`
	}
	decode(t, rec, &dv)
	assert.Equal(t, "3 x 2", dv.Depth.Header)
	require.Len(t, dv.Depth.Items, 1)
	assert.Equal(t, "5 - 20 mm", dv.Depth.Items[0].Legend)
	assert.Equal(t, 20.0, dv.Depth.Items[0].Range.Max)
}

func TestFrames(t *testing.T) {
	h := newHarness(t, nil, func(c *config.Config) { c.Render.ThumbnailSize = 2 })
	id := h.open()
	base := "/api/files/" + id
	h.do(http.MethodPost, base+"/select?path=/depth", nil, "")

	rec := h.do(http.MethodGet, base+"/frames/0", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "matrix has no frames")

	h.do(http.MethodPost, base+"/mode?mode=depth", nil, "")
	tests := []struct {
		query       string
		contentType string
		bounds      image.Rectangle
	}{
		{"", "image/png", image.Rect(0, 0, 3, 2)},
		{"?scale=4", "image/png", image.Rect(0, 0, 12, 8)},
		{"?format=bmp&scale=2", "image/bmp", image.Rect(0, 0, 6, 4)},
		{"?thumb=1", "image/png", image.Rect(0, 0, 2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := h.do(http.MethodGet, base+"/frames/0"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))

			var got image.Image
			var err error
			if tt.contentType == "image/bmp" {
				got, err = bmp.Decode(rec.Body)
			} else {
				got, err = png.Decode(rec.Body)
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bounds, got.Bounds())
		})
	}

	rec = h.do(http.MethodGet, base+"/frames/0?legend=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Greater(t, got.Bounds().Dy(), 2)
	assert.Greater(t, got.Bounds().Dx(), 3)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, base+"/frames/1", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, base+"/frames/x", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, base+"/frames/0?format=gif", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, base+"/frames/0?scale=0", nil, "").Code)
}

func TestEmptyImageFrames(t *testing.T) {
	h := newHarness(t, nil)
	id := h.open()
	base := "/api/files/" + id

	rec := h.do(http.MethodPost, base+"/select?path=/blank", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, base+"/mode?mode=image", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, base+"/view", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Image struct {
			Displayed int      `json:"displayed"`
			URLs      []string `json:"urls"`
		} `json:"image"`
	}
	decode(t, rec, &resp)
	assert.Zero(t, resp.Image.Displayed)
	assert.Empty(t, resp.Image.URLs)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, base+"/frames/0", nil, "").Code)
}

func TestTooLarge(t *testing.T) {
	h := newHarness(t, nil, func(c *config.Config) { c.Render.MaxElements = 4 })
	id := h.open()
	base := "/api/files/" + id
	h.do(http.MethodPost, base+"/select?path=/rgb", nil, "")
	rec := h.do(http.MethodGet, base+"/view", nil, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCloseFile(t *testing.T) {
	h := newHarness(t, nil)
	id := h.open()

	rec := h.do(http.MethodDelete, "/api/files/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, "/api/files/"+id+"/tree", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/files/"+id, nil, "").Code)
}

func TestCatalog(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/api/catalog", nil, "")
	assert.JSONEq(t, `{"enabled":false,"files":[]}`, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/catalog/open?name=a.h5", nil, "").Code)

	dir := t.TempDir()
	h5test.WriteFile(t, dir, "scan.h5", fixture())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))
	cat, err := catalog.New(dir, nil)
	require.NoError(t, err)

	h = newHarness(t, cat)
	rec = h.do(http.MethodGet, "/api/catalog", nil, "")
	var list struct {
		Enabled bool `json:"enabled"`
		Files   []struct {
			Name string `json:"name"`
		} `json:"files"`
	}
	decode(t, rec, &list)
	assert.True(t, list.Enabled)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "scan.h5", list.Files[0].Name)

	rec = h.do(http.MethodPost, "/api/catalog/open?name=scan.h5", nil, "")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/catalog/open?name=gone.h5", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/catalog/open?name=../x.h5", nil, "").Code)

	assert.Contains(t, h.do(http.MethodGet, "/", nil, "").Body.String(), `id="catalog"`)
}

func TestServe(t *testing.T) {
	h := newHarness(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	assert.NoError(t, <-done)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, http.StatusNotFound, statusFor(session.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(catalog.ErrInvalidName))
}
