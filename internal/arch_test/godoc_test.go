package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// TestExportedSymbolsHaveGoDoc verifies that every exported type, function,
// method, var and const in internal packages has a doc comment starting with
// its name. Members of a documented const/var group, or with an inline
// comment, count as documented.
func TestExportedSymbolsHaveGoDoc(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		pkg := pkg
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()

			for _, file := range goFilesIn(t, filepath.Join(dir, pkg)) {
				for _, miss := range undocumented(t, file) {
					t.Errorf("%s: %s has no GoDoc comment", relativeFilePath(file), miss)
				}
			}
		})
	}
}

// undocumented returns "kind Name (line N)" for each exported declaration of
// file without a proper doc comment.
func undocumented(t *testing.T, file string) []string {
	t.Helper()

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
	if err != nil {
		t.Fatalf("parsing %s: %v", file, err)
	}

	var out []string
	report := func(kind string, id *ast.Ident) {
		out = append(out, kind+" "+id.Name+" (line "+strconv.Itoa(fset.Position(id.Pos()).Line)+")")
	}

	for _, decl := range node.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !d.Name.IsExported() || (d.Recv != nil && !exportedReceiver(d.Recv)) {
				continue
			}
			if !startsWith(d.Doc, d.Name.Name) {
				report("func", d.Name)
			}
		case *ast.GenDecl:
			single := len(d.Specs) == 1
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if s.Name.IsExported() && !startsWith(s.Doc, s.Name.Name) && !startsWith(d.Doc, s.Name.Name) {
						report("type", s.Name)
					}
				case *ast.ValueSpec:
					for _, name := range s.Names {
						if !name.IsExported() || startsWith(s.Doc, name.Name) {
							continue
						}
						if single && startsWith(d.Doc, name.Name) {
							continue
						}
						if !single && (d.Doc != nil || s.Comment != nil) {
							continue
						}
						report(d.Tok.String(), name)
					}
				}
			}
		}
	}
	return out
}

func startsWith(doc *ast.CommentGroup, name string) bool {
	return doc != nil && strings.HasPrefix(strings.TrimSpace(doc.Text()), name)
}

// exportedReceiver reports whether a method receiver's base type is
// exported, unwrapping pointers and type parameters.
func exportedReceiver(recv *ast.FieldList) bool {
	if len(recv.List) == 0 {
		return false
	}
	expr := recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.IsExported()
		default:
			return false
		}
	}
}

// relativeFilePath trims everything before "internal/" for messages.
func relativeFilePath(fullPath string) string {
	const marker = "internal/"
	if idx := strings.Index(fullPath, marker); idx >= 0 {
		return fullPath[idx:]
	}
	return filepath.Base(fullPath)
}

func TestUndocumented(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "p.go")
	src := `package p

// Good does things.
func Good() {}

func Bad() {}

type hidden struct{}

func (hidden) Exported() {}

// Kinds of things.
const (
	KindA = "a"
	KindB = "b"
)

var Loose = 1
`
	writeFile(t, path, src)

	got := undocumented(t, path)
	want := []string{"func Bad (line 6)", "var Loose (line 18)"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("undocumented = %v, want %v", got, want)
	}
}
