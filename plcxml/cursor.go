package plcxml

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/plcfront/cfcc/model"
)

// cursor is a pull reader over the decoder's token stream with one token of
// lookahead. Decoder failures are sticky: once one is returned every later
// call returns it again, so no caller loop can spin on a broken input.
type cursor struct {
	dec    *xml.Decoder
	peeked xml.Token
	err    *model.Error
	depth  int
	pou    string
}

func newCursor(content string) *cursor {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = true
	return &cursor{dec: dec}
}

func (c *cursor) peek() (xml.Token, *model.Error) {
	if c.peeked != nil {
		return c.peeked, nil
	}
	if c.err != nil {
		return nil, c.err
	}
	tok, err := c.dec.Token()
	if err != nil {
		c.err = c.decodeError(err)
		return nil, c.err
	}
	c.peeked = xml.CopyToken(tok)
	return c.peeked, nil
}

func (c *cursor) next() (xml.Token, *model.Error) {
	tok, err := c.peek()
	if err != nil {
		return nil, err
	}
	c.peeked = nil
	switch tok.(type) {
	case xml.StartElement:
		c.depth++
	case xml.EndElement:
		c.depth--
	}
	return tok, nil
}

// decodeError classifies a decoder failure. Plain io.EOF is only returned
// between top-level elements; the reader turns it into UnexpectedEndOfFile
// when it still expects content.
func (c *cursor) decodeError(err error) *model.Error {
	var e *model.Error
	var syn *xml.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		e = model.UnexpectedEndOfFile()
	case errors.As(err, &syn) && syn.Msg == "unexpected EOF":
		e = model.UnexpectedEndOfFile()
	case errors.As(err, &syn) && strings.Contains(syn.Msg, "invalid UTF-8"):
		e = model.Encoding(syn.Msg)
	default:
		e = model.ReadEvent(err.Error())
	}
	return c.locate(e)
}

// locate stamps e with the current position and enclosing pou.
func (c *cursor) locate(e *model.Error) *model.Error {
	e.Line, _ = c.dec.InputPos()
	e.Offset = c.dec.InputOffset()
	if e.Pou == "" {
		e.Pou = c.pou
	}
	return e
}

// children visits each child element of the element just opened, calling
// fn with the child's start tag. fn must consume the child through its end
// tag; c.skip does that for children it does not handle. Text and comments
// between children are dropped.
func (c *cursor) children(fn func(xml.StartElement) *model.Error) *model.Error {
	for {
		tok, err := c.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// skip consumes the rest of the element just opened.
func (c *cursor) skip() *model.Error {
	return c.unwind(c.depth - 1)
}

// unwind consumes tokens until the cursor is back at depth.
func (c *cursor) unwind(depth int) *model.Error {
	for c.depth > depth {
		if _, err := c.next(); err != nil {
			return err
		}
	}
	return nil
}

// text returns the character data of the element just opened and consumes
// it through its end tag. Nested markup is skipped; its text is kept.
func (c *cursor) text() (string, *model.Error) {
	var sb strings.Builder
	depth := c.depth - 1
	for c.depth > depth {
		tok, err := c.next()
		if err != nil {
			return "", err
		}
		if cd, ok := tok.(xml.CharData); ok {
			sb.Write(cd)
		}
	}
	return sb.String(), nil
}

// node decodes the element just opened into a generic tree.
func (c *cursor) node(start xml.StartElement) (*xmlNode, *model.Error) {
	n := &xmlNode{XMLName: start.Name, Attrs: start.Attr}
	var sb strings.Builder
	for {
		tok, err := c.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := c.node(t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			n.Content = sb.String()
			return n, nil
		}
	}
}

// xmlNode is a generic element tree used for the loosely structured
// vendor sections (interface and addData).
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr
	Content  string
	Children []*xmlNode
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) child(localName string) *xmlNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.XMLName.Local == localName {
			return c
		}
	}
	return nil
}

func (n *xmlNode) allChildren(localName string) []*xmlNode {
	if n == nil {
		return nil
	}
	var out []*xmlNode
	for _, c := range n.Children {
		if c.XMLName.Local == localName {
			out = append(out, c)
		}
	}
	return out
}

// textDeep recursively collects all text content within the node.
func (n *xmlNode) textDeep() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(n.Content)
	for _, c := range n.Children {
		sb.WriteString(c.textDeep())
	}
	return sb.String()
}
