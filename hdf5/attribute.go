package hdf5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/dtype"
	"github.com/robert-malhotra/h5view/internal/message"
	"github.com/robert-malhotra/h5view/internal/object"
	"github.com/robert-malhotra/h5view/internal/shape"
)

const (
	// PreviewThreshold is the element count above which Display summarises
	// an array attribute instead of listing it.
	PreviewThreshold = 100

	// PreviewLength is the number of leading elements a summary lists.
	PreviewLength = 10
)

// Attribute represents an HDF5 attribute attached to a dataset or group.
type Attribute struct {
	msg  *message.Attribute
	file *File
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the attribute value; nil for scalars.
func (a *Attribute) Shape() shape.Shape {
	if a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar() {
		return nil
	}
	return shape.FromDims(a.msg.Dataspace.Dimensions)
}

// NumElements returns the total number of elements.
func (a *Attribute) NumElements() uint64 {
	if a.msg.Dataspace == nil {
		return 1
	}
	return a.msg.Dataspace.NumElements()
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar()
}

// Dtype returns the element type label.
func (a *Attribute) Dtype() string {
	return dtype.Label(a.msg.Datatype)
}

// Value decodes the attribute elements.
func (a *Attribute) Value() (buffer.Flat, error) {
	if a.msg.Datatype == nil {
		return buffer.Flat{}, fmt.Errorf("attribute %s has no datatype", a.msg.Name)
	}
	buf, err := dtype.Decode(a.msg.Datatype, a.msg.Data, int(a.NumElements()), a.file.reader)
	if err != nil {
		return buffer.Flat{}, fmt.Errorf("attribute %s: %w", a.msg.Name, err)
	}
	return buf, nil
}

// Display renders the attribute for the attributes panel. Scalars print
// their value, arrays print "[a, b]", arrays longer than PreviewThreshold are
// summarised as "Array [N] (Preview: a, b, ...)" and attributes without
// data print "null".
func (a *Attribute) Display() (string, error) {
	if a.msg.Datatype == nil || len(a.msg.Data) == 0 ||
		(a.msg.Dataspace != nil && a.msg.Dataspace.IsNull()) {
		return "null", nil
	}
	buf, err := a.Value()
	if err != nil {
		return "", err
	}
	if a.IsScalar() {
		if buf.Len() == 0 {
			return "null", nil
		}
		return buf.Format(0), nil
	}
	return formatArray(buf), nil
}

func formatArray(buf buffer.Flat) string {
	n := buf.Len()
	if n > PreviewThreshold {
		return fmt.Sprintf("Array [%d] (Preview: %s...)", n, joinSamples(buf, PreviewLength))
	}
	return "[" + joinSamples(buf, n) + "]"
}

func joinSamples(buf buffer.Flat, n int) string {
	parts := make([]string, min(n, buf.Len()))
	for i := range parts {
		parts[i] = buf.Format(i)
	}
	return strings.Join(parts, ", ")
}

func attrNames(h *object.Header) []string {
	var names []string
	for _, msg := range h.All(message.TypeAttribute) {
		names = append(names, msg.(*message.Attribute).Name)
	}
	return names
}

func findAttr(h *object.Header, name string, f *File) *Attribute {
	for _, msg := range h.All(message.TypeAttribute) {
		attr := msg.(*message.Attribute)
		if attr.Name == name {
			return &Attribute{msg: attr, file: f}
		}
	}
	return nil
}

func allAttrs(h *object.Header, f *File) []*Attribute {
	msgs := h.All(message.TypeAttribute)
	attrs := make([]*Attribute, 0, len(msgs))
	for _, msg := range msgs {
		attrs = append(attrs, &Attribute{msg: msg.(*message.Attribute), file: f})
	}
	return attrs
}
