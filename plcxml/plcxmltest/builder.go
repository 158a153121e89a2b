// Package plcxmltest builds PLCopen XML documents for tests.
//
//	doc := plcxmltest.Pou("main", "program", "PROGRAM main ...",
//		plcxmltest.InVariable(1, "a"),
//		plcxmltest.OutVariable(2, "b", 1),
//	)
package plcxmltest

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const Namespace = "http://www.plcopen.org/xml/tc6_0201"

// Node is an XML element under construction.
type Node struct {
	name     string
	attrs    [][2]string
	children []*Node
	text     string
	group    string // port group of a block variable
}

// Elem creates an element. attrs are key/value pairs.
func Elem(name string, attrs ...string) *Node {
	n := &Node{name: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.attrs = append(n.attrs, [2]string{attrs[i], attrs[i+1]})
	}
	return n
}

func (n *Node) Attr(key, value string) *Node {
	n.attrs = append(n.attrs, [2]string{key, value})
	return n
}

// Without drops every attribute named key.
func (n *Node) Without(key string) *Node {
	kept := n.attrs[:0]
	for _, a := range n.attrs {
		if a[0] != key {
			kept = append(kept, a)
		}
	}
	n.attrs = kept
	return n
}

func (n *Node) Child(children ...*Node) *Node {
	n.children = append(n.children, children...)
	return n
}

func (n *Node) Text(s string) *Node {
	n.text = s
	return n
}

// Order sets executionOrderId.
func (n *Node) Order(id int) *Node {
	return n.Attr("executionOrderId", strconv.Itoa(id))
}

func (n *Node) Negated() *Node {
	return n.Attr("negated", "true")
}

func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	sb.WriteString("<" + n.name)
	for _, a := range n.attrs {
		sb.WriteString(" " + a[0] + `="`)
		xml.EscapeText(sb, []byte(a[1]))
		sb.WriteString(`"`)
	}
	if n.text == "" && len(n.children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteString(">")
	xml.EscapeText(sb, []byte(n.text))
	for _, c := range n.children {
		c.write(sb)
	}
	sb.WriteString("</" + n.name + ">")
}

// Document prefixes root with the XML header.
func Document(root *Node) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + root.String()
}

// PouElem builds a pou element with a text declaration and an FBD body
// holding nodes.
func PouElem(name, kind, declaration string, nodes ...*Node) *Node {
	pou := Elem("pou", "xmlns", Namespace, "name", name, "pouType", kind)
	if declaration != "" {
		pou.Child(Interface(declaration))
	}
	return pou.Child(Body(nodes...))
}

// Pou is PouElem rendered as a document.
func Pou(name, kind, declaration string, nodes ...*Node) string {
	return Document(PouElem(name, kind, declaration, nodes...))
}

// Project wraps pous in project/types/pous.
func Project(pous ...*Node) string {
	return Document(Elem("project", "xmlns", Namespace).Child(
		Elem("fileHeader", "companyName", "test"),
		Elem("types").Child(Elem("dataTypes"), Elem("pous").Child(pous...)),
	))
}

func Interface(declaration string) *Node {
	return Elem("interface").Child(
		Elem("localVars"),
		Elem("addData").Child(
			Elem("data", "name", "www.bachmann.at/plc/plcopenxml", "handleUnknown", "implementation").Child(
				Elem("textDeclaration").Child(Elem("content").Text(declaration)),
			),
		),
	)
}

func Body(nodes ...*Node) *Node {
	return Elem("body").Child(Elem("FBD").Child(nodes...))
}

// Actions wraps action elements.
func Actions(actions ...*Node) *Node {
	return Elem("actions").Child(actions...)
}

func Action(name string, nodes ...*Node) *Node {
	return Elem("action", "name", name).Child(Body(nodes...))
}

func connection(ref int) *Node {
	return Elem("connectionPointIn").Child(Elem("connection", "refLocalId", strconv.Itoa(ref)))
}

// ConnectionFrom wires a specific output of a multi-output producer.
func ConnectionFrom(ref int, formal string) *Node {
	return Elem("connectionPointIn").Child(Elem("connection", "refLocalId", strconv.Itoa(ref), "formalParameter", formal))
}

func InVariable(localID int, expression string) *Node {
	return Elem("inVariable", "localId", strconv.Itoa(localID)).Child(
		Elem("connectionPointOut"),
		Elem("expression").Text(expression),
	)
}

func OutVariable(localID int, expression string, ref int) *Node {
	return Elem("outVariable", "localId", strconv.Itoa(localID)).Child(
		connection(ref),
		Elem("expression").Text(expression),
	)
}

// InOutVariable builds an inOutVariable; a negative ref leaves it unwired.
func InOutVariable(localID int, expression string, ref int) *Node {
	n := Elem("inOutVariable", "localId", strconv.Itoa(localID))
	if ref >= 0 {
		n.Child(connection(ref))
	}
	return n.Child(Elem("connectionPointOut"), Elem("expression").Text(expression))
}

// Block builds a block; instance may be empty for a function call.
func Block(localID int, typeName, instance string, ports ...*Node) *Node {
	b := Elem("block", "localId", strconv.Itoa(localID), "typeName", typeName)
	if instance != "" {
		b.Attr("instanceName", instance)
	}
	groups := map[string]*Node{}
	for _, p := range ports {
		if groups[p.group] == nil {
			groups[p.group] = Elem(p.group)
		}
		groups[p.group].Child(p)
	}
	for _, g := range []string{"inputVariables", "inOutVariables", "outputVariables"} {
		if groups[g] == nil {
			groups[g] = Elem(g)
		}
		b.Child(groups[g])
	}
	return b
}

// Input is a block input port wired from ref; a negative ref leaves it
// unconnected.
func Input(formal string, ref int) *Node {
	p := Elem("variable", "formalParameter", formal)
	p.group = "inputVariables"
	if ref >= 0 {
		p.Child(connection(ref))
	}
	return p
}

// InputFrom wires a block input from a named output of ref.
func InputFrom(formal string, ref int, refFormal string) *Node {
	p := Elem("variable", "formalParameter", formal)
	p.group = "inputVariables"
	return p.Child(ConnectionFrom(ref, refFormal))
}

func Output(formal string) *Node {
	p := Elem("variable", "formalParameter", formal)
	p.group = "outputVariables"
	return p.Child(Elem("connectionPointOut"))
}

func InOut(formal string, ref int) *Node {
	p := Elem("variable", "formalParameter", formal)
	p.group = "inOutVariables"
	if ref >= 0 {
		p.Child(connection(ref))
	}
	return p.Child(Elem("connectionPointOut"))
}

// Return builds a return marker; a negative guard leaves it unconditional.
func Return(localID, guard int) *Node {
	n := Elem("return", "localId", strconv.Itoa(localID))
	if guard >= 0 {
		n.Child(connection(guard))
	}
	return n.Child(Elem("addData"))
}

func Jump(localID int, label string, guard int) *Node {
	n := Elem("jump", "localId", strconv.Itoa(localID), "label", label)
	if guard >= 0 {
		n.Child(connection(guard))
	}
	return n
}

func Label(localID int, label string) *Node {
	return Elem("label", "localId", strconv.Itoa(localID), "label", label)
}

func Connector(localID int, name string, ref int) *Node {
	return Elem("connector", "localId", strconv.Itoa(localID), "name", name).Child(connection(ref))
}

func Continuation(localID int, name string) *Node {
	return Elem("continuation", "localId", strconv.Itoa(localID), "name", name).Child(Elem("connectionPointOut"))
}
