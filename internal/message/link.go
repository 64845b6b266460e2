package message

import (
	"bytes"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// LinkType is the kind of link a link message carries.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link is the link message (0x0006) naming one member of a new-style group.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder uint64
	Name          string
	Charset       uint8

	ObjectAddress uint64 // hard
	SoftLinkValue string // soft
	ExternalFile  string // external
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

const (
	linkNameWidth    = 0x03
	linkHasOrder     = 0x04
	linkHasType      = 0x08
	linkHasCharset   = 0x10
	linkCreationSize = 8
)

func parseLink(data []byte, r *binpkg.Reader) (*Link, error) {
	c := newCursor("link message", data, r)
	l := &Link{Version: c.u8()}
	flags := c.u8()

	if flags&linkHasType != 0 {
		l.LinkType = LinkType(c.u8())
	}
	if flags&linkHasOrder != 0 {
		l.CreationOrder = c.uint(linkCreationSize)
	}
	if flags&linkHasCharset != 0 {
		l.Charset = c.u8()
	}
	l.Name = string(c.next(int(c.uint(1 << (flags & linkNameWidth)))))

	switch l.LinkType {
	case LinkTypeHard:
		l.ObjectAddress = c.offset()
	case LinkTypeSoft:
		l.SoftLinkValue = string(c.next(int(c.u16())))
	case LinkTypeExternal:
		// a flags byte, then the file name and object path, each NUL-terminated
		value := c.next(int(c.u16()))
		if c.err == nil && len(value) < 2 {
			c.fail("external link value of %d bytes", len(value))
			break
		}
		if c.err == nil {
			file, path, _ := bytes.Cut(value[1:], []byte{0})
			l.ExternalFile = string(file)
			l.ExternalPath = string(bytes.TrimRight(path, "\x00"))
		}
	}
	return result(l, c)
}
