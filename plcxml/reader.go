// Package plcxml reads PLCopen TC6 XML into the diagram model.
//
// Only the subset a CFC/FBD front end needs is understood: pou and project
// roots, the embedded text declaration, FBD bodies with their blocks,
// variables, control markers and connectors, and actions. Unknown elements
// are skipped.
package plcxml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/plcfront/cfcc/model"
)

// Read parses content into a project. The returned project is never nil.
//
// A structural problem inside one pou (a missing attribute, an unknown
// enumerator) drops that pou and reading continues with the next one. A
// tokenization problem ends reading; pous completed before it are kept.
func Read(content string) (*model.Project, []*model.Error) {
	r := &reader{c: newCursor(content)}
	r.read()
	return &r.project, r.errors
}

type reader struct {
	c       *cursor
	project model.Project
	errors  []*model.Error
}

func (r *reader) read() {
	for {
		tok, err := r.c.next()
		if err != nil {
			// plain EOF before any root is a truncated document too
			r.errors = append(r.errors, err)
			return
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "pou":
			r.pou(se)
			r.drain()
			return
		case "project":
			r.projectRoot()
			r.drain()
			return
		default:
			r.errors = append(r.errors, r.c.locate(model.UnexpectedElement(se.Name.Local)))
			return
		}
	}
}

// drain checks that nothing but trailing whitespace and comments follows
// the root.
func (r *reader) drain() {
	if r.c.err != nil {
		return
	}
	for {
		tok, err := r.c.next()
		if err != nil {
			if err.Kind != model.ErrUnexpectedEndOfFile || r.c.depth != 0 {
				r.errors = append(r.errors, err)
			}
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			r.errors = append(r.errors, r.c.locate(model.UnexpectedElement(se.Name.Local)))
			return
		}
	}
}

func (r *reader) projectRoot() {
	err := r.c.children(func(se xml.StartElement) *model.Error {
		if se.Name.Local != "types" {
			return r.c.skip()
		}
		return r.c.children(func(se xml.StartElement) *model.Error {
			if se.Name.Local != "pous" {
				return r.c.skip()
			}
			return r.c.children(func(se xml.StartElement) *model.Error {
				if se.Name.Local != "pou" {
					return r.c.skip()
				}
				return r.pou(se)
			})
		})
	})
	if err != nil && !r.recorded(err) {
		r.errors = append(r.errors, err)
	}
}

func (r *reader) recorded(err *model.Error) bool {
	return len(r.errors) > 0 && r.errors[len(r.errors)-1] == err
}

// pou reads one pou. A structural error is recorded and the rest of the pou
// skipped; only a decoder error is returned.
func (r *reader) pou(se xml.StartElement) *model.Error {
	depth := r.c.depth - 1
	r.c.pou = attrValue(se, "name")
	defer func() { r.c.pou = "" }()

	pou, err := r.visitPou(se)
	if err == nil {
		r.project.Pous = append(r.project.Pous, pou)
		return nil
	}
	r.errors = append(r.errors, err)
	if r.c.err != nil {
		return r.c.err
	}
	if uerr := r.c.unwind(depth); uerr != nil {
		r.errors = append(r.errors, uerr)
		return uerr
	}
	return nil
}

func (r *reader) visitPou(se xml.StartElement) (*model.Pou, *model.Error) {
	name, err := r.requireAttr(se, "name")
	if err != nil {
		return nil, err
	}
	kindAttr, err := r.requireAttr(se, "pouType")
	if err != nil {
		return nil, err
	}
	kind, kerr := model.ParsePouKind(kindAttr)
	if kerr != nil {
		return nil, r.c.locate(model.UnexpectedElement(kindAttr))
	}

	pou := &model.Pou{Name: name, Kind: kind}
	err = r.c.children(func(child xml.StartElement) *model.Error {
		switch child.Name.Local {
		case "interface":
			n, err := r.c.node(child)
			if err != nil {
				return err
			}
			if decl := declaration(n); decl != "" {
				pou.Declaration = decl
			}
		case "addData":
			n, err := r.c.node(child)
			if err != nil {
				return err
			}
			if decl := plainTextInterface(n); decl != "" && pou.Declaration == "" {
				pou.Declaration = decl
			}
		case "body":
			return r.visitBody(&pou.Body)
		case "actions":
			return r.c.children(func(a xml.StartElement) *model.Error {
				if a.Name.Local != "action" {
					return r.c.skip()
				}
				action, err := r.visitAction(a)
				if err != nil {
					return err
				}
				pou.Actions = append(pou.Actions, action)
				return nil
			})
		default:
			return r.c.skip()
		}
		return nil
	})
	return pou, err
}

// declaration extracts interface/addData/data/textDeclaration/content.
func declaration(iface *xmlNode) string {
	for _, data := range iface.child("addData").allChildren("data") {
		if content := data.child("textDeclaration").child("content"); content != nil {
			return strings.TrimSpace(content.textDeep())
		}
	}
	return ""
}

// plainTextInterface extracts the declaration CODESYS exports under
// addData/data/InterfaceAsPlainText/xhtml.
func plainTextInterface(addData *xmlNode) string {
	for _, data := range addData.allChildren("data") {
		if !strings.Contains(strings.ToLower(data.attr("name")), "interfaceasplaintext") {
			continue
		}
		if xhtml := data.child("InterfaceAsPlainText").child("xhtml"); xhtml != nil {
			return strings.TrimSpace(xhtml.textDeep())
		}
	}
	return ""
}

func (r *reader) visitAction(se xml.StartElement) (*model.Action, *model.Error) {
	name, err := r.requireAttr(se, "name")
	if err != nil {
		return nil, err
	}
	action := &model.Action{Name: name}
	err = r.c.children(func(child xml.StartElement) *model.Error {
		if child.Name.Local != "body" {
			return r.c.skip()
		}
		return r.visitBody(&action.Body)
	})
	return action, err
}

func (r *reader) visitBody(body *model.Body) *model.Error {
	return r.c.children(func(se xml.StartElement) *model.Error {
		switch se.Name.Local {
		case "FBD", "CFC":
			return r.visitFbd(body)
		}
		return r.c.skip()
	})
}

func (r *reader) visitFbd(body *model.Body) *model.Error {
	return r.c.children(func(se xml.StartElement) *model.Error {
		switch tag := se.Name.Local; tag {
		case "block":
			b, err := r.visitBlock(se)
			if err != nil {
				return err
			}
			body.Blocks = append(body.Blocks, b)
		case "inVariable", "outVariable", "inOutVariable":
			v, err := r.visitVariable(se)
			if err != nil {
				return err
			}
			body.Variables = append(body.Variables, v)
		case "return", "jump", "label":
			ctl, err := r.visitControl(se)
			if err != nil {
				return err
			}
			body.Controls = append(body.Controls, ctl)
		case "connector", "continuation":
			conn, err := r.visitConnector(se)
			if err != nil {
				return err
			}
			body.Connectors = append(body.Connectors, conn)
		default:
			return r.c.skip()
		}
		return nil
	})
}

func (r *reader) visitBlock(se xml.StartElement) (*model.Block, *model.Error) {
	b := &model.Block{}
	var err *model.Error
	if b.LocalID, err = r.intAttr(se, "localId"); err != nil {
		return nil, err
	}
	if b.TypeName, err = r.requireAttr(se, "typeName"); err != nil {
		return nil, err
	}
	if b.InstanceName, _, err = r.attr(se, "instanceName"); err != nil {
		return nil, err
	}
	if b.ExecutionOrderID, err = r.optIntAttr(se, "executionOrderId"); err != nil {
		return nil, err
	}

	err = r.c.children(func(group xml.StartElement) *model.Error {
		kind, kerr := model.VariableKindFromTag(group.Name.Local)
		if kerr != nil {
			return r.c.skip()
		}
		return r.c.children(func(v xml.StartElement) *model.Error {
			if v.Name.Local != "variable" {
				return r.c.skip()
			}
			port, err := r.visitBlockVariable(v, kind)
			if err != nil {
				return err
			}
			b.Variables = append(b.Variables, port)
			return nil
		})
	})
	return b, err
}

func (r *reader) visitBlockVariable(se xml.StartElement, kind model.VariableKind) (*model.BlockVariable, *model.Error) {
	v := &model.BlockVariable{Kind: kind}
	var err *model.Error
	if v.FormalParameter, err = r.requireAttr(se, "formalParameter"); err != nil {
		return nil, err
	}
	if v.Negated, err = r.boolAttr(se, "negated"); err != nil {
		return nil, err
	}
	err = r.c.children(func(child xml.StartElement) *model.Error {
		if child.Name.Local != "connectionPointIn" {
			return r.c.skip()
		}
		var cerr *model.Error
		v.RefLocalID, v.RefFormalParameter, cerr = r.visitConnectionPointIn()
		return cerr
	})
	return v, err
}

// visitConnectionPointIn reads the first connection of a connectionPointIn.
func (r *reader) visitConnectionPointIn() (*int, string, *model.Error) {
	var ref *int
	var formal string
	err := r.c.children(func(se xml.StartElement) *model.Error {
		if se.Name.Local != "connection" || ref != nil {
			return r.c.skip()
		}
		id, err := r.intAttr(se, "refLocalId")
		if err != nil {
			return err
		}
		ref = &id
		if formal, _, err = r.attr(se, "formalParameter"); err != nil {
			return err
		}
		return r.c.skip()
	})
	return ref, formal, err
}

func (r *reader) visitVariable(se xml.StartElement) (*model.FunctionBlockVariable, *model.Error) {
	kind, _ := model.VariableKindFromTag(se.Name.Local)
	v := &model.FunctionBlockVariable{Kind: kind}
	var err *model.Error
	if v.LocalID, err = r.intAttr(se, "localId"); err != nil {
		return nil, err
	}
	if v.Negated, err = r.boolAttr(se, "negated"); err != nil {
		return nil, err
	}
	if v.ExecutionOrderID, err = r.optIntAttr(se, "executionOrderId"); err != nil {
		return nil, err
	}

	hasExpression := false
	err = r.c.children(func(child xml.StartElement) *model.Error {
		switch child.Name.Local {
		case "expression":
			text, err := r.c.text()
			if err != nil {
				return err
			}
			v.Expression = strings.TrimSpace(text)
			hasExpression = true
			return nil
		case "connectionPointIn":
			var cerr *model.Error
			v.RefLocalID, v.RefFormalParameter, cerr = r.visitConnectionPointIn()
			return cerr
		}
		return r.c.skip()
	})
	if err != nil {
		return nil, err
	}
	if !hasExpression {
		return nil, r.c.locate(model.MissingAttribute("expression"))
	}
	return v, nil
}

func (r *reader) visitControl(se xml.StartElement) (*model.Control, *model.Error) {
	ctl := &model.Control{}
	switch se.Name.Local {
	case "return":
		ctl.Kind = model.Return
	case "jump":
		ctl.Kind = model.Jump
	case "label":
		ctl.Kind = model.Label
	}
	var err *model.Error
	if ctl.LocalID, err = r.intAttr(se, "localId"); err != nil {
		return nil, err
	}
	if ctl.Negated, err = r.boolAttr(se, "negated"); err != nil {
		return nil, err
	}
	if ctl.ExecutionOrderID, err = r.optIntAttr(se, "executionOrderId"); err != nil {
		return nil, err
	}
	if ctl.Kind != model.Return {
		if ctl.Name, err = r.requireAttr(se, "label"); err != nil {
			return nil, err
		}
	}
	err = r.c.children(func(child xml.StartElement) *model.Error {
		if child.Name.Local != "connectionPointIn" {
			return r.c.skip()
		}
		var cerr *model.Error
		ctl.RefLocalID, ctl.RefFormalParameter, cerr = r.visitConnectionPointIn()
		return cerr
	})
	return ctl, err
}

func (r *reader) visitConnector(se xml.StartElement) (*model.Connector, *model.Error) {
	conn := &model.Connector{Kind: model.Sink}
	if se.Name.Local == "continuation" {
		conn.Kind = model.Source
	}
	var err *model.Error
	if conn.LocalID, err = r.intAttr(se, "localId"); err != nil {
		return nil, err
	}
	if conn.Name, err = r.requireAttr(se, "name"); err != nil {
		return nil, err
	}
	err = r.c.children(func(child xml.StartElement) *model.Error {
		if child.Name.Local != "connectionPointIn" || conn.Kind != model.Sink {
			return r.c.skip()
		}
		var cerr *model.Error
		conn.RefLocalID, conn.RefFormalParameter, cerr = r.visitConnectionPointIn()
		return cerr
	})
	return conn, err
}

// attr returns the value of key. A key given twice is reported as missing:
// neither value can be trusted.
func (r *reader) attr(se xml.StartElement, key string) (string, bool, *model.Error) {
	value, found := "", false
	for _, a := range se.Attr {
		if a.Name.Local != key {
			continue
		}
		if found {
			return "", false, r.c.locate(model.MissingAttribute(key))
		}
		value, found = a.Value, true
	}
	return value, found, nil
}

func (r *reader) requireAttr(se xml.StartElement, key string) (string, *model.Error) {
	value, ok, err := r.attr(se, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", r.c.locate(model.MissingAttribute(key))
	}
	return value, nil
}

func (r *reader) intAttr(se xml.StartElement, key string) (int, *model.Error) {
	value, err := r.requireAttr(se, key)
	if err != nil {
		return 0, err
	}
	return r.toInt(key, value)
}

func (r *reader) optIntAttr(se xml.StartElement, key string) (*int, *model.Error) {
	value, ok, err := r.attr(se, key)
	if err != nil || !ok {
		return nil, err
	}
	n, err := r.toInt(key, value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *reader) toInt(key, value string) (int, *model.Error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, r.c.locate(model.UnexpectedElement(fmt.Sprintf("%s=%q", key, value)))
	}
	return n, nil
}

func (r *reader) boolAttr(se xml.StartElement, key string) (bool, *model.Error) {
	value, ok, err := r.attr(se, key)
	if err != nil || !ok {
		return false, err
	}
	b, perr := strconv.ParseBool(strings.TrimSpace(value))
	if perr != nil {
		return false, r.c.locate(model.UnexpectedElement(fmt.Sprintf("%s=%q", key, value)))
	}
	return b, nil
}

func attrValue(se xml.StartElement, key string) string {
	for _, a := range se.Attr {
		if a.Name.Local == key {
			return a.Value
		}
	}
	return ""
}
