// Package compiler lowers POU interfaces to LLVM function declarations.
// Bodies are not compiled: the module is a link stub that lets native code
// call into, or be called from, the PLC program.
package compiler

import (
	"fmt"
	"strings"

	"github.com/plcfront/cfcc/ast"
	"github.com/plcfront/cfcc/token"
	"tinygo.org/x/go-llvm"
)

// Func is one declared prototype.
type Func struct {
	Symbol string
	Params []Type
	Ret    Type
	Val    llvm.Value
}

type Compiler struct {
	Scopes  []Scope[*Func]
	Context llvm.Context
	Module  llvm.Module
	Errors  []*token.CompileError
}

func NewCompiler(ctx llvm.Context, moduleName string) *Compiler {
	return &Compiler{
		Scopes:  []Scope[*Func]{NewScope[*Func](ModuleScope)},
		Context: ctx,
		Module:  ctx.NewModule(moduleName),
		Errors:  []*token.CompileError{},
	}
}

// Compile declares every POU of unit, then every action. Units of one run
// are compiled into the same module one after another.
func (c *Compiler) Compile(unit *ast.CompilationUnit) []*token.CompileError {
	for _, pou := range unit.Pous {
		c.declarePou(pou)
	}
	for _, impl := range unit.Implementations {
		if impl.PouKind == ast.Action {
			c.declareAction(impl)
		}
	}
	return c.Errors
}

func (c *Compiler) errorf(name string, loc token.Location, format string, args ...any) {
	c.Errors = append(c.Errors, &token.CompileError{
		Token: token.Token{Type: token.IDENT, Literal: name, Loc: loc},
		Msg:   fmt.Sprintf(format, args...),
	})
}

func (c *Compiler) declarePou(pou *ast.Pou) {
	if _, ok := Get(c.Scopes, pou.Name); ok {
		c.errorf(pou.Name, pou.Loc, "%s %s is declared more than once", pou.Kind, pou.Name)
		return
	}

	c.checkVariables(pou)

	f := &Func{Symbol: pou.Name, Ret: Unresolved{}}
	if pou.Kind == ast.Function {
		f.Params = parameters(pou)
		if pou.ReturnType != nil {
			f.Ret = TypeOf(pou.ReturnType)
		}
	} else {
		// programs and function blocks take their instance
		f.Params = []Type{Ptr{Elem: pou.Name}}
	}
	c.declare(f)
	Put(c.Scopes, pou.Name, f)
}

// checkVariables reports names declared twice across the blocks of pou.
func (c *Compiler) checkVariables(pou *ast.Pou) {
	scopes := []Scope[*ast.Variable]{NewScope[*ast.Variable](PouScope)}
	for _, b := range pou.VariableBlocks {
		for _, v := range b.Variables {
			if _, ok := Get(scopes, v.Name); ok {
				c.errorf(v.Name, v.Loc, "variable %s of %s is declared more than once", v.Name, pou.Name)
				continue
			}
			Put(scopes, v.Name, v)
		}
	}
}

// parameters lists inputs by value, then in-outs and outputs by reference.
func parameters(pou *ast.Pou) []Type {
	var params []Type
	for _, kind := range []ast.VariableBlockKind{ast.Input, ast.InOut, ast.Output} {
		for _, b := range pou.VariableBlocks {
			if b.Kind != kind {
				continue
			}
			for _, v := range b.Variables {
				if kind == ast.Input {
					params = append(params, TypeOf(v.Type))
				} else {
					params = append(params, Ptr{Elem: v.Type.String()})
				}
			}
		}
	}
	return params
}

func (c *Compiler) declareAction(impl *ast.Implementation) {
	owner, ok := Get(c.Scopes, impl.TypeName)
	if !ok {
		c.errorf(impl.Name, impl.NameLoc, "action %s belongs to unknown pou %s", impl.Name, impl.TypeName)
		return
	}
	action := strings.TrimPrefix(impl.Name, impl.TypeName+".")
	c.declare(&Func{
		Symbol: mangle(owner.Symbol, action),
		Params: []Type{Ptr{Elem: impl.TypeName}},
		Ret:    Unresolved{},
	})
}

func (c *Compiler) declare(f *Func) {
	params := make([]llvm.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = c.mapToLLVMType(p)
	}
	ret := c.Context.VoidType()
	if f.Ret.Kind() != UnresolvedKind {
		ret = c.mapToLLVMType(f.Ret)
	}
	fnType := llvm.FunctionType(ret, params, false)
	f.Val = llvm.AddFunction(c.Module, f.Symbol, fnType)
}

func (c *Compiler) mapToLLVMType(t Type) llvm.Type {
	switch t.Kind() {
	case IntKind:
		intType := t.(Int)
		switch intType.Width {
		case 1:
			return c.Context.Int1Type()
		case 8:
			return c.Context.Int8Type()
		case 16:
			return c.Context.Int16Type()
		case 32:
			return c.Context.Int32Type()
		case 64:
			return c.Context.Int64Type()
		default:
			panic(fmt.Sprintf("unsupported int width: %d", intType.Width))
		}
	case FloatKind:
		floatType := t.(Float)
		switch floatType.Width {
		case 32:
			return c.Context.FloatType()
		case 64:
			return c.Context.DoubleType()
		default:
			panic(fmt.Sprintf("unsupported float width: %d", floatType.Width))
		}
	}
	// strings, references and anything unresolved travel as pointers
	return llvm.PointerType(c.Context.Int8Type(), 0)
}

func (c *Compiler) GenerateIR() string {
	return c.Module.String()
}
