package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/h5view/hdf5"
	"github.com/robert-malhotra/h5view/internal/export"
	"github.com/robert-malhotra/h5view/internal/matrix"
	"github.com/robert-malhotra/h5view/internal/session"
	"github.com/robert-malhotra/h5view/internal/shape"
	"github.com/robert-malhotra/h5view/internal/view"
)

var (
	renderMode   string
	renderOut    string
	renderFormat string
	renderScale  int
	renderLegend bool
)

var headerStyle = lipgloss.NewStyle().Bold(true)

var renderCmd = &cobra.Command{
	Use:   "render <file> <dataset>",
	Short: "Render a dataset as a table or as image files",
	Long: `Renders one dataset in the given mode. The matrix mode prints the preview
table; the image and depth modes write one file per displayed frame to the
output directory, named after the dataset path and frame index.`,
	Example: `  h5view render scan.h5 /camera/rgb --mode image --scale 4
  h5view render scan.h5 /camera/depth --mode depth --legend --format tiff`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", "matrix", "view mode: matrix, image or depth")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", ".", "output directory for frame images")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "png", "image format: png, tiff or bmp")
	renderCmd.Flags().IntVar(&renderScale, "scale", 0, "integer upscale factor (default render.frame_scale)")
	renderCmd.Flags().BoolVar(&renderLegend, "legend", false, "append the range legend to depth frames")
}

func runRender(cmd *cobra.Command, args []string) error {
	mode, ok := shape.ParseMode(renderMode)
	if !ok {
		return fmt.Errorf("unknown mode %q", renderMode)
	}
	format, err := export.ParseFormat(renderFormat)
	if err != nil {
		return err
	}

	sessions := newSessions()
	defer sessions.CloseAll()

	s, err := sessions.Open(args[0])
	if err != nil {
		return err
	}
	info, err := s.Select(args[1])
	if err != nil {
		return err
	}
	if info.Kind != hdf5.KindDataset {
		return fmt.Errorf("%s is a group: %w", args[1], view.ErrNoSelection)
	}
	if _, err := s.SetMode(mode); err != nil {
		return err
	}
	v, err := s.View()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if v.Table != nil {
		printTable(out, v.Table)
		return nil
	}

	frames := 0
	switch {
	case v.Image != nil:
		frames = v.Image.Displayed
		fmt.Fprintf(out, "%d x %d %s, %d of %d frames\n",
			v.Image.Width, v.Image.Height, v.Image.Mode, v.Image.Displayed, v.Image.Frames)
	case v.Depth != nil:
		frames = v.Depth.Displayed
		fmt.Fprintln(out, v.Depth.Header())
	}

	if err := os.MkdirAll(renderOut, 0o755); err != nil {
		return err
	}
	opts := export.Options{
		Format:  format,
		Scale:   renderScale,
		MaxEdge: cfg.Render.MaxScaledEdge,
	}
	if opts.Scale <= 0 {
		opts.Scale = cfg.Render.FrameScale
	}

	paths := make([]string, frames)
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range frames {
		paths[i] = filepath.Join(renderOut, frameFileName(args[1], i, format))
		g.Go(func() error {
			return writeFrame(s, i, paths[i], opts)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}

func writeFrame(s *session.Session, index int, path string, opts export.Options) error {
	pm, legend, err := s.Frame(index)
	if err != nil {
		return fmt.Errorf("frame %d: %w", index, err)
	}
	if renderLegend {
		opts.Legend = legend
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := export.Write(w, pm, opts); err != nil {
		f.Close()
		return fmt.Errorf("frame %d: %w", index, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	logger.Debug("frame written", zap.String("path", path))
	return f.Close()
}

// frameFileName turns "/camera/rgb" and frame 2 into "camera_rgb_2.png".
func frameFileName(dataset string, index int, f export.Format) string {
	base := strings.ReplaceAll(strings.Trim(dataset, "/"), "/", "_")
	if base == "" {
		base = "root"
	}
	return fmt.Sprintf("%s_%d%s", base, index, f.Ext())
}

func printTable(out io.Writer, t *matrix.Table) {
	if t.Kind == shape.Scalar {
		fmt.Fprintln(out, t.Value)
		return
	}
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]string{r.Label}, r.Cells...)
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
		})
	fmt.Fprintln(out, tbl)
	fmt.Fprintln(out, dimStyle.Render(t.Caption()))
}
