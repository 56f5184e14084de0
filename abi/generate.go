package abi

import (
	"fmt"
	"go/format"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/govm-net/actions/codec"
)

// GeneratedHeader marks files written by GenerateActionFile.
const GeneratedHeader = "// Code generated by actionctl gen. DO NOT EDIT."

// Generator renders the registration and wrapper code of a contract.
type Generator struct {
	contract *Contract
	title    cases.Caser
}

// NewGenerator creates a generator for contract.
func NewGenerator(contract *Contract) *Generator {
	return &Generator{
		contract: contract,
		title:    cases.Title(language.English, cases.NoLower),
	}
}

// GenerateActionFile renders the complete, gofmt'ed action file of contract.
func GenerateActionFile(contract *Contract) (string, error) {
	code := NewGenerator(contract).Generate()
	formatted, err := format.Source([]byte(code))
	if err != nil {
		return "", fmt.Errorf("failed to format generated code: %w", err)
	}
	return string(formatted), nil
}

// Generate renders the action file without formatting it.
func (g *Generator) Generate() string {
	var sb strings.Builder

	sb.WriteString(GeneratedHeader + "\n\n")
	sb.WriteString(fmt.Sprintf("package %s\n\n", g.contract.PackageName))
	sb.WriteString("import (\n")
	sb.WriteString("\t\"github.com/govm-net/actions/codec\"\n")
	sb.WriteString("\t\"github.com/govm-net/actions/core\"\n")
	sb.WriteString("\t\"github.com/govm-net/actions/registry\"\n")
	sb.WriteString(")\n\n")

	for _, action := range g.contract.Actions {
		ident := g.identifier(action.Name)
		sb.WriteString(fmt.Sprintf("// %sActionName is the identifier of the %s action.\n", ident, action.Name))
		sb.WriteString(fmt.Sprintf("var %sActionName = core.MustParseName(%q)\n\n", ident, action.Name))
	}

	sb.WriteString(g.generateRegister())
	for _, action := range g.contract.Actions {
		sb.WriteString(g.generateWrapper(action))
	}
	return sb.String()
}

// identifier turns an action name into an exported Go identifier:
// "hi" becomes "Hi", "set.code" becomes "SetCode".
func (g *Generator) identifier(action string) string {
	var sb strings.Builder
	for _, part := range strings.Split(action, ".") {
		sb.WriteString(g.title.String(part))
	}
	ident := sb.String()
	if ident == "" || ident[0] < 'A' || ident[0] > 'Z' {
		ident = "A" + ident
	}
	return ident
}

func (g *Generator) generateRegister() string {
	var sb strings.Builder
	typeName := g.contract.TypeName

	sb.WriteString(fmt.Sprintf("// Register%s registers the actions of %s with reg.\n", typeName, typeName))
	sb.WriteString(fmt.Sprintf("func Register%s(reg *registry.Registry, c *%s) error {\n", typeName, typeName))
	for _, action := range g.contract.Actions {
		ident := g.identifier(action.Name)
		sb.WriteString(fmt.Sprintf("\tif err := reg.Register(%sActionName, []codec.Param{\n", ident))
		for _, p := range action.Params {
			sb.WriteString(fmt.Sprintf("\t\t{Name: %q, Type: codec.%s},\n", p.Name, typeConst(p.Type)))
		}
		sb.WriteString("\t}, func(ctx registry.ActionContext, args registry.Args) (any, error) {\n")

		call := fmt.Sprintf("c.%s(%s)", action.Method, callArgs(action))
		if action.Returns != "" {
			sb.WriteString(fmt.Sprintf("\t\treturn %s\n", call))
		} else {
			sb.WriteString(fmt.Sprintf("\t\treturn nil, %s\n", call))
		}
		sb.WriteString("\t}")
		if action.ExplicitAuth {
			quoted := make([]string, len(action.Authorizers))
			for i, a := range action.Authorizers {
				quoted[i] = fmt.Sprintf("%q", a)
			}
			sb.WriteString(fmt.Sprintf(", registry.WithAuthorizers(%s)", strings.Join(quoted, ", ")))
		}
		sb.WriteString("); err != nil {\n")
		sb.WriteString("\t\treturn err\n")
		sb.WriteString("\t}\n")
	}
	sb.WriteString("\treturn nil\n")
	sb.WriteString("}\n\n")
	return sb.String()
}

func (g *Generator) generateWrapper(action Action) string {
	var sb strings.Builder
	ident := g.identifier(action.Name)
	wrapper := ident + "Action"

	sb.WriteString(fmt.Sprintf("// %s builds invocations of the %s action.\n", wrapper, action.Name))
	sb.WriteString(fmt.Sprintf("type %s struct {\n", wrapper))
	sb.WriteString("\tw *registry.Wrapper\n")
	sb.WriteString("}\n\n")

	sb.WriteString(fmt.Sprintf("// New%s returns the %s wrapper bound to reg.\n", wrapper, action.Name))
	sb.WriteString(fmt.Sprintf("func New%s(reg *registry.Registry) (*%s, error) {\n", wrapper, wrapper))
	sb.WriteString(fmt.Sprintf("\tw, err := reg.MakeWrapper(%sActionName)\n", ident))
	sb.WriteString("\tif err != nil {\n")
	sb.WriteString("\t\treturn nil, err\n")
	sb.WriteString("\t}\n")
	sb.WriteString(fmt.Sprintf("\treturn &%s{w: w}, nil\n", wrapper))
	sb.WriteString("}\n\n")

	sb.WriteString(fmt.Sprintf("// Identifier returns the %s action name.\n", action.Name))
	sb.WriteString(fmt.Sprintf("func (act *%s) Identifier() core.Name {\n", wrapper))
	sb.WriteString("\treturn act.w.Identifier()\n")
	sb.WriteString("}\n\n")

	params := make([]string, 0, len(action.Params)+1)
	names := make([]string, 0, len(action.Params))
	for _, p := range action.Params {
		params = append(params, fmt.Sprintf("%s %s", p.Name, p.Type.GoType()))
		names = append(names, p.Name)
	}
	params = append(params, "authorizers ...core.Name")

	sb.WriteString(fmt.Sprintf("// Invocation packs the arguments of %s.\n", action.Name))
	sb.WriteString(fmt.Sprintf("func (act *%s) Invocation(%s) (registry.Invocation, error) {\n", wrapper, strings.Join(params, ", ")))
	sb.WriteString(fmt.Sprintf("\treturn act.w.Invocation([]any{%s}, authorizers...)\n", strings.Join(names, ", ")))
	sb.WriteString("}\n\n")
	return sb.String()
}

func callArgs(action Action) string {
	out := []string{"ctx"}
	for i, p := range action.Params {
		out = append(out, fmt.Sprintf("args[%d].(%s)", i, p.Type.GoType()))
	}
	return strings.Join(out, ", ")
}

// typeConst returns the codec constant naming t, e.g. "TypeName".
func typeConst(t codec.Type) string {
	name := string(t)
	return "Type" + strings.ToUpper(name[:1]) + name[1:]
}
