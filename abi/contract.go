// Package abi reads action declarations out of Go contract source and turns
// them into the generated registration file and the action manifest.
//
// A contract is one exported type whose exported methods take a
// registry.ActionContext as first parameter and return either error or
// (T, error). Each such method is an action named after the lower-cased
// method name. Two doc comment directives adjust a method:
//
//	//action:name sayhi   use "sayhi" as the action name
//	//action:auth from    require only the "from" parameter to authorize
//
// An empty //action:auth declares an action that needs no authorization.
package abi

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
)

const (
	registryPath = "github.com/govm-net/actions/registry"
	corePath     = "github.com/govm-net/actions/core"

	contextType = "registry.ActionContext"
)

// Contract is the action surface of one contract type.
type Contract struct {
	PackageName string   `json:"package_name,omitempty"`
	TypeName    string   `json:"type_name,omitempty"`
	Actions     []Action `json:"actions,omitempty"`
}

// Action is one action extracted from a contract method.
type Action struct {
	Name         string        `json:"name"`
	Method       string        `json:"method"`
	Params       []codec.Param `json:"params,omitempty"`
	Authorizers  []string      `json:"authorizers,omitempty"`
	ExplicitAuth bool          `json:"explicit_auth,omitempty"`
	Returns      string        `json:"returns,omitempty"`
}

// RequiredAuthorizers returns the parameters that must authorize a call,
// applying the registry default when no //action:auth directive is present.
func (a Action) RequiredAuthorizers() []string {
	if a.ExplicitAuth {
		return a.Authorizers
	}
	var out []string
	for _, p := range a.Params {
		if p.Type == codec.TypeName {
			out = append(out, p.Name)
		}
	}
	return out
}

// ExtractContract extracts the contract declared in code.
func ExtractContract(code []byte) (*Contract, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", code, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract: %w", err)
	}

	imports := importAliases(file)
	contract := &Contract{PackageName: file.Name.Name}
	seen := make(map[string]string)

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || !fn.Name.IsExported() {
			continue
		}
		params := fn.Type.Params.List
		if len(params) == 0 || imports.typeString(params[0].Type) != contextType {
			continue
		}

		recv := receiverType(fn.Recv)
		if contract.TypeName == "" {
			contract.TypeName = recv
		} else if contract.TypeName != recv {
			return nil, fmt.Errorf("actions declared on both %s and %s", contract.TypeName, recv)
		}

		action, err := extractAction(fn, imports)
		if err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", recv, fn.Name.Name, err)
		}
		if other, dup := seen[action.Name]; dup {
			return nil, fmt.Errorf("action %q declared by both %s and %s", action.Name, other, action.Method)
		}
		seen[action.Name] = action.Method
		contract.Actions = append(contract.Actions, action)
	}

	if contract.TypeName == "" {
		return nil, fmt.Errorf("no actions found in package %s", contract.PackageName)
	}
	if err := checkIdentifiers(contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// checkIdentifiers rejects actions whose generated Go identifiers collide,
// e.g. "abc" and ".abc" both become Abc.
func checkIdentifiers(contract *Contract) error {
	g := NewGenerator(contract)
	idents := make(map[string]string, len(contract.Actions))
	for _, a := range contract.Actions {
		ident := g.identifier(a.Name)
		if other, dup := idents[ident]; dup {
			return fmt.Errorf("actions %q and %q both generate identifier %s", other, a.Name, ident)
		}
		idents[ident] = a.Name
	}
	return nil
}

func extractAction(fn *ast.FuncDecl, imports aliases) (Action, error) {
	action := Action{
		Name:   strings.ToLower(fn.Name.Name),
		Method: fn.Name.Name,
	}

	fields := fn.Type.Params.List
	if len(fields[0].Names) > 1 {
		return action, fmt.Errorf("only the first parameter may be %s", contextType)
	}
	for _, field := range fields[1:] {
		goType := imports.typeString(field.Type)
		typ, ok := codec.TypeFromGo(goType)
		if !ok {
			return action, fmt.Errorf("unsupported parameter type %s", goType)
		}
		if len(field.Names) == 0 {
			return action, fmt.Errorf("parameters must be named")
		}
		for _, name := range field.Names {
			if reservedParams[name.Name] {
				return action, fmt.Errorf("parameter name %q is reserved", name.Name)
			}
			action.Params = append(action.Params, codec.Param{Name: name.Name, Type: typ})
		}
	}

	results := resultTypes(fn.Type.Results, imports)
	switch {
	case len(results) == 1 && results[0] == "error":
	case len(results) == 2 && results[1] == "error":
		action.Returns = results[0]
	default:
		return action, fmt.Errorf("must return error or (T, error), got (%s)", strings.Join(results, ", "))
	}

	if err := applyDirectives(&action, fn.Doc); err != nil {
		return action, err
	}
	if _, err := core.ParseName(action.Name); err != nil {
		return action, fmt.Errorf("action name: %w", err)
	}
	return action, nil
}

func applyDirectives(action *Action, doc *ast.CommentGroup) error {
	if doc == nil {
		return nil
	}
	for _, c := range doc.List {
		switch {
		case strings.HasPrefix(c.Text, "//action:name"):
			name := strings.TrimSpace(strings.TrimPrefix(c.Text, "//action:name"))
			if name == "" {
				return fmt.Errorf("//action:name needs a value")
			}
			action.Name = name
		case strings.HasPrefix(c.Text, "//action:auth"):
			list := strings.TrimPrefix(c.Text, "//action:auth")
			action.ExplicitAuth = true
			action.Authorizers = nil
			for _, name := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
				if !hasNameParam(action.Params, name) {
					return fmt.Errorf("//action:auth %s is not a name parameter", name)
				}
				action.Authorizers = append(action.Authorizers, name)
			}
		}
	}
	return nil
}

func hasNameParam(params []codec.Param, name string) bool {
	for _, p := range params {
		if p.Name == name && p.Type == codec.TypeName {
			return true
		}
	}
	return false
}

// reservedParams are identifiers used by the generated wrapper methods.
var reservedParams = map[string]bool{
	"act":         true,
	"authorizers": true,
}

func resultTypes(list *ast.FieldList, imports aliases) []string {
	if list == nil {
		return nil
	}
	var out []string
	for _, field := range list.List {
		typ := imports.typeString(field.Type)
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, typ)
		}
	}
	return out
}

func receiverType(recv *ast.FieldList) string {
	if len(recv.List) == 0 {
		return ""
	}
	expr := recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// aliases maps the local name of each import to its canonical package name
// for the packages generated code refers to.
type aliases map[string]string

func importAliases(file *ast.File) aliases {
	out := make(aliases)
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		local := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			local = imp.Name.Name
		}
		switch path {
		case registryPath:
			out[local] = "registry"
		case corePath:
			out[local] = "core"
		default:
			out[local] = local
		}
	}
	return out
}

// typeString renders a type expression with canonical package names.
func (a aliases) typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			if pkg, ok := a[x.Name]; ok {
				return pkg + "." + t.Sel.Name
			}
			return x.Name + "." + t.Sel.Name
		}
	case *ast.StarExpr:
		return "*" + a.typeString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + a.typeString(t.Elt)
		}
		if lit, ok := t.Len.(*ast.BasicLit); ok {
			return "[" + lit.Value + "]" + a.typeString(t.Elt)
		}
	case *ast.MapType:
		return "map[" + a.typeString(t.Key) + "]" + a.typeString(t.Value)
	case *ast.InterfaceType:
		return "interface{}"
	}
	return "unknown"
}
