package plcxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// ValidationError locates one problem found by Validate.
type ValidationError struct {
	File    string
	Line    int
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// Validate is a best-effort schema check: xmlPath must be well formed,
// schemaPath must be a readable XSD declaring a targetNamespace, and the
// document's root element must live in that namespace. Content models are
// not checked. A nil result means no problem was found.
func Validate(xmlPath, schemaPath string) []ValidationError {
	var errs []ValidationError

	ns, err := schemaNamespace(schemaPath)
	if err != nil {
		errs = append(errs, *err)
	}

	root, problems := wellFormed(xmlPath)
	errs = append(errs, problems...)
	if len(problems) == 0 && ns != "" && root.Space != ns {
		errs = append(errs, ValidationError{
			File:    xmlPath,
			Line:    1,
			Message: fmt.Sprintf("root element %s is in namespace %q, schema expects %q", root.Local, root.Space, ns),
		})
	}
	return errs
}

func schemaNamespace(path string) (string, *ValidationError) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ValidationError{File: path, Message: fmt.Sprintf("cannot read schema: %v", err)}
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			line, _ := dec.InputPos()
			return "", &ValidationError{File: path, Line: line, Message: fmt.Sprintf("invalid schema: %v", err)}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		line, _ := dec.InputPos()
		if se.Name.Local != "schema" {
			return "", &ValidationError{File: path, Line: line, Message: fmt.Sprintf("invalid schema: root element is %s", se.Name.Local)}
		}
		for _, a := range se.Attr {
			if a.Name.Local == "targetNamespace" {
				return a.Value, nil
			}
		}
		return "", &ValidationError{File: path, Line: line, Message: "invalid schema: no targetNamespace"}
	}
}

// wellFormed decodes the whole document and returns its root element name.
func wellFormed(path string) (xml.Name, []ValidationError) {
	var root xml.Name
	f, err := os.Open(path)
	if err != nil {
		return root, []ValidationError{{File: path, Message: fmt.Sprintf("cannot read document: %v", err)}}
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.Strict = true
	seen := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if !seen {
				return root, []ValidationError{{File: path, Line: 1, Message: "document has no root element"}}
			}
			return root, nil
		}
		if err != nil {
			line, _ := dec.InputPos()
			return root, []ValidationError{{File: path, Line: line, Message: err.Error()}}
		}
		if se, ok := tok.(xml.StartElement); ok && !seen {
			root, seen = se.Name, true
		}
	}
}
