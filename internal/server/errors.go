package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/hdf5"
	"github.com/robert-malhotra/h5view/internal/catalog"
	"github.com/robert-malhotra/h5view/internal/depth"
	"github.com/robert-malhotra/h5view/internal/dtype"
	"github.com/robert-malhotra/h5view/internal/export"
	"github.com/robert-malhotra/h5view/internal/raster"
	"github.com/robert-malhotra/h5view/internal/session"
	"github.com/robert-malhotra/h5view/internal/shape"
	"github.com/robert-malhotra/h5view/internal/view"
)

// errBadRequest marks malformed request parameters.
var errBadRequest = errors.New("bad request")

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	var (
		shapeErr *shape.ShapeError
		imageErr *raster.ImageError
		sizeErr  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, hdf5.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, raster.ErrFrameRange),
		errors.Is(err, depth.ErrFrameRange):
		return http.StatusNotFound

	case errors.Is(err, hdf5.ErrTooLarge), errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, errBadRequest),
		errors.Is(err, hdf5.ErrNotHDF5),
		errors.Is(err, hdf5.ErrInvalidPath),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, export.ErrFormat):
		return http.StatusBadRequest

	case errors.Is(err, view.ErrModeUnavailable),
		errors.Is(err, view.ErrNoSelection),
		errors.Is(err, session.ErrNoFrames),
		errors.Is(err, hdf5.ErrUnsupported),
		errors.Is(err, hdf5.ErrLinkDepth),
		errors.Is(err, dtype.ErrUnsupported),
		errors.As(err, &shapeErr),
		errors.As(err, &imageErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
