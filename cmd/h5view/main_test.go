package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/hdf5"
	"github.com/robert-malhotra/h5view/internal/config"
	"github.com/robert-malhotra/h5view/internal/export"
	"github.com/robert-malhotra/h5view/internal/h5test"
	"github.com/robert-malhotra/h5view/internal/view"
)

func fixture() *h5test.Group {
	return &h5test.Group{
		Children: []h5test.Node{
			&h5test.Dataset{
				Name: "depth", Dims: []uint64{2, 3}, Type: h5test.Float(4),
				Data:  h5test.Float32s(0, 0, 5, 10, 0, 20),
				Attrs: []h5test.Attr{{Name: "units", Type: h5test.String(2), Data: h5test.Strings(2, "mm")}},
			},
			&h5test.Group{
				Name: "camera",
				Children: []h5test.Node{
					&h5test.Dataset{Name: "rgb", Dims: []uint64{2, 2, 3}, Type: h5test.Int(1, false), Data: h5test.Ramp(12)},
				},
			},
			&h5test.Dataset{Name: "seq", Dims: []uint64{3}, Type: h5test.Int(2, true), Data: h5test.Int16s(-1, 0, 1)},
			&h5test.SoftLink{Name: "broken", Target: "/missing"},
		},
	}
}

// setup installs the defaults PersistentPreRunE would and returns the
// fixture path.
func setup(t *testing.T) string {
	t.Helper()
	cfg = config.DefaultConfig()
	logger = zap.NewNop()

	renderMode, renderOut, renderFormat = "matrix", t.TempDir(), "png"
	renderScale, renderLegend = 0, false
	inspectAttrs = false

	return h5test.WriteFile(t, t.TempDir(), "scan.h5", fixture())
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	err := fn(cmd, args)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--config", ""})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "h5view dev\n", out.String())
	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestInspect(t *testing.T) {
	path := setup(t)

	out, err := run(t, runInspect, path)
	require.NoError(t, err)
	assert.Contains(t, out, "scan.h5")
	assert.Contains(t, out, "camera")
	assert.Contains(t, out, "rgb [2 × 2 × 3] |u1 matrix, image")
	assert.Contains(t, out, "depth [2 × 3] <f4 matrix, depth")
	assert.Contains(t, out, "seq [3] <i2 matrix")
	assert.Contains(t, out, "broken:")
	assert.NotContains(t, out, "/depth@units")
}

func TestInspectAttrs(t *testing.T) {
	path := setup(t)
	inspectAttrs = true

	out, err := run(t, runInspect, path)
	require.NoError(t, err)
	assert.Contains(t, out, "/depth@units = mm")
}

func TestInspectAttrPaths(t *testing.T) {
	path := setup(t)

	out, err := run(t, runInspect, path, "/depth@units")
	require.NoError(t, err)
	assert.Equal(t, "/depth@units = mm\n", out)

	_, err = run(t, runInspect, path, "/depth@nope")
	assert.ErrorIs(t, err, hdf5.ErrNotFound)

	_, err = run(t, runInspect, path, "/depth")
	assert.ErrorIs(t, err, hdf5.ErrInvalidPath)
}

func TestInspectMissingFile(t *testing.T) {
	setup(t)
	_, err := run(t, runInspect, filepath.Join(t.TempDir(), "nope.h5"))
	assert.Error(t, err)
}

func TestRenderMatrix(t *testing.T) {
	path := setup(t)

	out, err := run(t, runRender, path, "/seq")
	require.NoError(t, err)
	assert.Contains(t, out, "Index")
	assert.Contains(t, out, "-1")
	assert.Contains(t, out, "3 values")
}

func TestRenderImage(t *testing.T) {
	path := setup(t)
	renderMode = "image"
	renderScale = 3

	out, err := run(t, runRender, path, "/camera/rgb")
	require.NoError(t, err)

	want := filepath.Join(renderOut, "camera_rgb_0.png")
	assert.Contains(t, out, want)

	f, err := os.Open(want)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestRenderDepthLegend(t *testing.T) {
	path := setup(t)
	renderMode = "depth"
	renderFormat = "bmp"
	renderLegend = true

	out, err := run(t, runRender, path, "/depth")
	require.NoError(t, err)
	assert.Contains(t, out, "3 x 2")

	info, err := os.Stat(filepath.Join(renderOut, "depth_0.bmp"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderErrors(t *testing.T) {
	path := setup(t)

	renderMode = "image"
	_, err := run(t, runRender, path, "/seq")
	assert.ErrorIs(t, err, view.ErrModeUnavailable)

	renderMode = "matrix"
	_, err = run(t, runRender, path, "/camera")
	assert.ErrorIs(t, err, view.ErrNoSelection)

	renderFormat = "gif"
	_, err = run(t, runRender, path, "/seq")
	assert.ErrorIs(t, err, export.ErrFormat)

	renderFormat, renderMode = "png", "heatmap"
	_, err = run(t, runRender, path, "/seq")
	assert.Error(t, err)
}

func TestFrameFileName(t *testing.T) {
	assert.Equal(t, "camera_rgb_2.png", frameFileName("/camera/rgb", 2, export.PNG))
	assert.Equal(t, "root_0.tiff", frameFileName("/", 0, export.TIFF))
}
