package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/hdf5"
	"github.com/robert-malhotra/h5view/internal/catalog"
	"github.com/robert-malhotra/h5view/internal/depth"
	"github.com/robert-malhotra/h5view/internal/export"
	"github.com/robert-malhotra/h5view/internal/matrix"
	"github.com/robert-malhotra/h5view/internal/raster"
	"github.com/robert-malhotra/h5view/internal/session"
	"github.com/robert-malhotra/h5view/internal/shape"
)

// uploadMemory is the part of a multipart upload kept in memory while
// parsing; the rest spills to temporary files.
const uploadMemory = 32 << 20

type fileResponse struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Size     int64      `json:"size"`
	SizeText string     `json:"sizeText"`
	Tree     *hdf5.Node `json:"tree"`
}

type catalogResponse struct {
	Enabled bool            `json:"enabled"`
	Files   []catalog.Entry `json:"files"`
}

type viewResponse struct {
	Mode    shape.Mode    `json:"mode"`
	Caption string        `json:"caption,omitempty"`
	Table   *matrix.Table `json:"table,omitempty"`
	Image   *imageView    `json:"image,omitempty"`
	Depth   *depthView    `json:"depth,omitempty"`
}

type imageView struct {
	raster.Info
	URLs []string `json:"urls"`
}

type depthView struct {
	depth.Info
	Header string       `json:"header"`
	Items  []depthFrame `json:"items"`
}

type depthFrame struct {
	Index  int         `json:"index"`
	Range  depth.Range `json:"range"`
	Legend string      `json:"legend"`
	URL    string      `json:"url"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	resp := catalogResponse{Files: []catalog.Entry{}}
	if s.catalog != nil {
		resp.Enabled = true
		resp.Files = s.catalog.List()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) openCatalog(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.writeError(w, r, fmt.Errorf("%w: no data directory configured", catalog.ErrNotFound))
		return
	}
	path, err := s.catalog.Path(r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.sessions.Open(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFile(w, r, sess)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: parsing upload: %w", errBadRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: no file provided, use 'file' as the form field name", errBadRequest))
		return
	}
	defer file.Close()

	if !catalog.Accepted(header.Filename) {
		s.writeError(w, r, fmt.Errorf("%w: %q is not an HDF5 file name", errBadRequest, header.Filename))
		return
	}

	// Temporary upload files are removed when the request ends, so the
	// session keeps its own copy.
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: reading upload: %w", errBadRequest, err))
		return
	}
	s.log.Info("file uploaded",
		zap.String("name", header.Filename),
		zap.String("size", humanize.Bytes(uint64(len(data)))))

	sess, err := s.sessions.OpenReader(bytes.NewReader(data), int64(len(data)), header.Filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFile(w, r, sess)
}

func (s *Server) writeFile(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	tree, err := sess.Tree()
	if err != nil {
		s.sessions.Close(sess.ID)
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fileResponse{
		ID:       sess.ID,
		Name:     sess.Name,
		Size:     sess.Size,
		SizeText: humanize.Bytes(uint64(max(sess.Size, 0))),
		Tree:     tree,
	})
}

// sessionFor resolves the {id} path segment.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	tree, err := sess.Tree()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, r, fmt.Errorf("%w: missing path", errBadRequest))
		return
	}
	info, err := sess.Select(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var m shape.Mode
	if err := m.UnmarshalText([]byte(r.URL.Query().Get("mode"))); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	info, err := sess.SetMode(m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	v, err := sess.View()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := viewResponse{Mode: v.Mode}
	switch {
	case v.Table != nil:
		resp.Table = v.Table
		resp.Caption = v.Table.Caption()
	case v.Image != nil:
		iv := &imageView{Info: v.Image.Info, URLs: make([]string, len(v.Image.Images))}
		for i := range iv.URLs {
			iv.URLs[i] = frameURL(sess.ID, i)
		}
		resp.Image = iv
	case v.Depth != nil:
		units := v.Units
		dv := &depthView{Info: v.Depth.Info, Header: v.Depth.Header(), Items: make([]depthFrame, len(v.Depth.Frames))}
		for i, fr := range v.Depth.Frames {
			dv.Items[i] = depthFrame{
				Index:  fr.Index,
				Range:  fr.Range,
				Legend: fr.Range.Legend(units),
				URL:    frameURL(sess.ID, fr.Index),
			}
		}
		resp.Depth = dv
	}
	writeJSON(w, http.StatusOK, resp)
}

func frameURL(id string, index int) string {
	return fmt.Sprintf("/api/files/%s/frames/%d", id, index)
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || index < 0 {
		s.writeError(w, r, fmt.Errorf("%w: frame index %q", errBadRequest, r.PathValue("n")))
		return
	}

	q := r.URL.Query()
	opts := export.Options{
		Scale:   s.cfg.Render.FrameScale,
		MaxEdge: s.cfg.Render.MaxScaledEdge,
	}
	if opts.Format, err = export.ParseFormat(q.Get("format")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.Atoi(v); err != nil || opts.Scale < 1 {
			s.writeError(w, r, fmt.Errorf("%w: scale %q", errBadRequest, v))
			return
		}
	}
	if flag(q.Get("thumb")) {
		opts.Thumbnail = s.cfg.Render.ThumbnailSize
	}

	pm, legend, err := sess.Frame(index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if legend != nil && flag(q.Get("legend")) {
		opts.Legend = legend
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, pm, opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func flag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (s *Server) closeFile(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
