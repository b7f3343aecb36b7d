package extract

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tsService = `export class UserService extends BaseService implements Loader, Saver {
  constructor(repo: Repo) {
    this.repo = repo;
  }

  async load(id: string): Promise<User> {
    return this.fetch(id);
  }

  fetch(id: string): User {
    return validate(id);
  }
}

function validate(id: string): User {
  return null;
}
`

const pyAnimal = `class Animal(Base, metaclass=Meta):
    def __init__(self, name):
        self.name = name

    def speak(self) -> str:
        return self.describe()

    def describe(self):
        return helper(self.name)


def helper(value):
    return value
`

func TestExtractFunctionsFirstRuleWins(t *testing.T) {
	code := "function add(a, b) { return doSomething(a); }\n" +
		"export const total = async (items): number => items.length\n" +
		"def area(w, h) -> float:\n" +
		"pub fn parse(input: &str) -> Result<Ast> {\n" +
		"if (ready) {\n"

	entries := ExtractFunctions(code, "src/math.ts")
	require.Len(t, entries, 4)

	assert.Equal(t, SymbolEntry{Name: "add", File: "src/math.ts", Line: 1, Params: "a, b", ReturnType: "void"}, entries[0])
	assert.Equal(t, "total", entries[1].Name)
	assert.Equal(t, "items", entries[1].Params)
	assert.Equal(t, "number", entries[1].ReturnType)
	assert.Equal(t, "area", entries[2].Name)
	assert.Equal(t, "float", entries[2].ReturnType)
	assert.Equal(t, "parse", entries[3].Name)
	assert.Equal(t, "Result<Ast>", entries[3].ReturnType)
}

func TestExtractClassesBraceFamily(t *testing.T) {
	classes := ExtractClasses(tsService, "src/user.ts")
	require.Len(t, classes, 1)

	class := classes[0]
	assert.Equal(t, "UserService", class.Name)
	assert.Equal(t, "BaseService", class.Extends)
	assert.Equal(t, []string{"Loader", "Saver"}, class.Implements)
	assert.Equal(t, 1, class.Line)

	names := make([]string, 0, len(class.Methods))
	for _, m := range class.Methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"constructor", "load", "fetch"}, names)
	assert.Equal(t, "Promise<User>", class.Methods[1].ReturnType)
	assert.Equal(t, "void", class.Methods[0].ReturnType)
}

func TestExtractClassesUnclosedBlockRunsToEnd(t *testing.T) {
	code := "class Broken {\n  run() {\n    go();\n"
	classes := ExtractClasses(code, "broken.js")
	require.Len(t, classes, 1)
	require.Len(t, classes[0].Methods, 1)
	assert.Equal(t, "run", classes[0].Methods[0].Name)
}

func TestExtractClassesPythonFamily(t *testing.T) {
	classes := ExtractClasses(pyAnimal, "zoo/animal.py")
	require.Len(t, classes, 1)

	class := classes[0]
	assert.Equal(t, "Animal", class.Name)
	assert.Equal(t, "Base", class.Extends)
	require.Len(t, class.Methods, 3)
	assert.Equal(t, "__init__", class.Methods[0].Name)
	assert.Equal(t, "self, name", class.Methods[0].Params)
	assert.Equal(t, "str", class.Methods[1].ReturnType)
}

func TestBuildCallMapRecordsSameFileCalls(t *testing.T) {
	code := "function add(a, b) { return doSomething(a); }\n" +
		"function doSomething(x) { return x; }\n"
	functions := ExtractFunctions(code, "a.js")
	calls := BuildCallMap(code, "a.js", functions, nil)

	require.Len(t, calls, 2)
	assert.Equal(t, CallSet{Caller: "add", Callees: []string{"doSomething"}}, calls[0])
	assert.Empty(t, calls[1].Callees)
}

func TestBuildCallMapTracksClassContext(t *testing.T) {
	result, err := NewPatternExtractor(nil).Extract("src/user.ts", []byte(tsService))
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch"}, result.CallsFor("UserService.load"))
	assert.Equal(t, []string{"validate"}, result.CallsFor("UserService.fetch"))
	assert.Empty(t, result.CallsFor("validate"))
	assert.Nil(t, result.CallsFor("load"))
}

func TestBuildCallMapPythonTopLevelDefLeavesClass(t *testing.T) {
	result, err := NewPatternExtractor(nil).Extract("zoo/animal.py", []byte(pyAnimal))
	require.NoError(t, err)

	assert.Equal(t, []string{"describe"}, result.CallsFor("Animal.speak"))
	assert.Equal(t, []string{"helper"}, result.CallsFor("Animal.describe"))
	assert.NotNil(t, result.CallsFor("helper"))
	assert.Nil(t, result.CallsFor("Animal.helper"))
}

func TestBuildCallMapIgnoresUnknownNames(t *testing.T) {
	code := "function run() {\n  console.log(format(x));\n  local();\n}\nfunction local() {}\n"
	calls := BuildCallMap(code, "run.js", ExtractFunctions(code, "run.js"), nil)
	require.NotEmpty(t, calls)
	assert.Equal(t, []string{"local"}, calls[0].Callees)
}

func TestExtractInvalidUTF8YieldsNothing(t *testing.T) {
	result, err := NewPatternExtractor(nil).Extract("bin.js", []byte{0xff, 0xfe, 'f', '(', ')'})
	require.NoError(t, err)
	assert.Empty(t, result.Functions)
	assert.Empty(t, result.Classes)
}

func TestFindSimilar(t *testing.T) {
	existing := []SymbolEntry{
		{Name: "foo", File: "a.ts", Params: "x", ReturnType: "void"},
		{Name: "bar", File: "a.ts", Params: "A, B", ReturnType: "int"},
		{Name: "other", File: "b.ts", Params: "a", ReturnType: "string"},
	}

	matches := FindSimilar(SymbolEntry{Name: "foo", File: "b.ts", Params: "x", ReturnType: "void"}, existing)
	require.Len(t, matches, 1)
	assert.Equal(t, "a.ts", matches[0].File)

	matches = FindSimilar(SymbolEntry{Name: "baz", Params: "a,b", ReturnType: "int"}, existing)
	require.Len(t, matches, 1)
	assert.Equal(t, "bar", matches[0].Name)

	assert.Empty(t, FindSimilar(SymbolEntry{Name: "qux", Params: "a", ReturnType: "int"}, existing))
}

func TestGoExtractor(t *testing.T) {
	content, err := os.ReadFile("testdata/worker.go")
	require.NoError(t, err)

	result, err := NewGoExtractor().Extract("worker.go", content)
	require.NoError(t, err)

	require.Len(t, result.Functions, 2)
	assert.Equal(t, "helper", result.Functions[0].Name)
	assert.Equal(t, "ctx context.Context", result.Functions[0].Params)
	assert.Equal(t, "(int, error)", result.Functions[0].ReturnType)
	assert.Equal(t, "void", result.Functions[1].ReturnType)

	require.Len(t, result.Classes, 3)
	assert.Equal(t, "Runner", result.Classes[0].Name)
	worker := result.Classes[2]
	assert.Equal(t, "Worker", worker.Name)
	assert.Equal(t, "Base", worker.Extends)
	require.Len(t, worker.Methods, 2)
	assert.Equal(t, "Run", worker.Methods[0].Name)
	assert.Equal(t, "error", worker.Methods[0].ReturnType)

	assert.Equal(t, []string{"logStart", "flush", "helper"}, result.CallsFor("Worker.Run"))
	assert.Empty(t, result.CallsFor("Worker.flush"))
}

func TestRegistryForFile(t *testing.T) {
	r := NewDefaultRegistry(nil)

	e, ok := r.ForFile("cmd/main.GO")
	require.True(t, ok)
	assert.Equal(t, "go", e.Language())

	e, ok = r.ForFile("web/app.tsx")
	require.True(t, ok)
	assert.Equal(t, "pattern", e.Language())

	assert.False(t, r.Supports("README.md"))

	noGo := NewDefaultRegistry([]string{".js"})
	assert.False(t, noGo.Supports("main.go"))
}

func TestRegistryExtract(t *testing.T) {
	r := NewDefaultRegistry([]string{".js"})
	result, err := r.Extract("src/a.js", []byte("function add(a, b) { return a + b; }\n"))
	require.NoError(t, err)
	require.Len(t, result.Functions, 1)
	assert.Equal(t, "add", result.Functions[0].Name)

	_, err = r.Extract("notes.txt", []byte("hello"))
	assert.Error(t, err)
}
