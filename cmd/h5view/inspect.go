package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/hdf5"
	"github.com/robert-malhotra/h5view/internal/shape"
)

var inspectAttrs bool

var (
	groupStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	modeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file> [object@attribute ...]",
	Short: "Print the object tree of an HDF5 file",
	Long: `Prints every group and dataset of the file. Datasets show their shape,
element type and the view modes their shape allows. Objects that cannot be
opened are listed with the error instead.

Given attribute paths such as /scan/depth@units, prints just those values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVarP(&inspectAttrs, "attrs", "a", false, "also list every attribute")
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := hdf5.Open(args[0], hdf5.WithLogger(logger), hdf5.WithMaxElements(cfg.Render.MaxElements))
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	if len(args) > 1 {
		return printAttrValues(out, f, args[1:])
	}

	root, err := f.Tree()
	if err != nil {
		return err
	}
	logger.Debug("inspected", zap.String("file", f.Name()), zap.Int("objects", root.Count()))

	fmt.Fprintf(out, "%s %s\n", groupStyle.Render(f.Name()), dimStyle.Render(humanize.Bytes(uint64(f.Size()))))
	fmt.Fprintln(out, buildTree(root))

	if inspectAttrs {
		return printAttrs(out, f)
	}
	return nil
}

func buildTree(n *hdf5.Node) *tree.Tree {
	t := tree.Root(nodeLabel(n)).Enumerator(tree.RoundedEnumerator)
	for _, c := range n.Children {
		if c.Kind == hdf5.KindGroup {
			t.Child(buildTree(c))
		} else {
			t.Child(nodeLabel(c))
		}
	}
	return t
}

func nodeLabel(n *hdf5.Node) string {
	name := n.Name
	if n.Path == "/" {
		name = "/"
	}
	switch {
	case n.Error != "":
		return errStyle.Render(name + ": " + n.Error)
	case n.Kind == hdf5.KindGroup:
		return groupStyle.Render(name)
	}
	label := name + " " + dimStyle.Render(fmt.Sprintf("[%s] %s", n.Shape, n.Dtype))
	if n.Scalar {
		label = name + " " + dimStyle.Render("scalar "+n.Dtype)
	}
	if modes := modesOf(n.Shape); modes != "" {
		label += " " + modeStyle.Render(modes)
	}
	return label
}

// modesOf lists the view modes for s, or "" if s cannot be shown.
func modesOf(s shape.Shape) string {
	c, err := shape.Classify(s)
	if err != nil {
		return ""
	}
	var names []string
	for _, m := range c.Modes() {
		names = append(names, m.String())
	}
	return strings.Join(names, ", ")
}

func printAttrs(out io.Writer, f *hdf5.File) error {
	fmt.Fprintln(out)
	return f.WalkAttrs(func(info hdf5.AttrInfo) error {
		if info.Err != nil {
			fmt.Fprintf(out, "%s %s\n", info.Path, errStyle.Render(info.Err.Error()))
			return nil
		}
		fmt.Fprintf(out, "%s = %s\n", info.Path, info.Value)
		return nil
	})
}

func printAttrValues(out io.Writer, f *hdf5.File, paths []string) error {
	for _, p := range paths {
		v, err := f.ReadAttr(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %s\n", p, v)
	}
	return nil
}
