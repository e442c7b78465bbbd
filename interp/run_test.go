package interp

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/sol/lexer"
	"github.com/timewinder-dev/sol/vm"
)

// runFiles loads main.sol from files and runs it, returning the root frame
// and everything the script logged.
func runFiles(t *testing.T, files fstest.MapFS) (*Frame, string, error) {
	t.Helper()
	var out bytes.Buffer
	rt := NewRuntime(WithBridge(vm.NewNatives(&out)), WithFS(files))
	f, err := rt.LoadFile("main.sol")
	if err != nil {
		return nil, "", err
	}
	err = rt.Run(context.Background(), f)
	return f, out.String(), err
}

func runScript(t *testing.T, src string) (*Frame, string, error) {
	t.Helper()
	return runFiles(t, fstest.MapFS{"main.sol": {Data: []byte(src)}})
}

func mustRun(t *testing.T, src string) (*Frame, string) {
	t.Helper()
	f, out, err := runScript(t, src)
	require.NoError(t, err)
	return f, out
}

func lookupString(f *Frame, name string) string {
	return f.Lookup(name).String()
}

func TestArithmetic(t *testing.T) {
	f, _ := mustRun(t, `
x = 1 + 2;
y = 'a' + 1;
z = 5 % 3;
w = 10 / 4;
p = 2 + 3 * 4;
q = (2 + 3) * 4;
n = -q + 1;
d = 0.1 + 0.2;
third = 1 / 3;
`)
	assert.Equal(t, "3", lookupString(f, "x"))
	assert.Equal(t, vm.StrValue("a1"), f.Lookup("y"))
	assert.Equal(t, "2", lookupString(f, "z"))
	assert.Equal(t, "2.5", lookupString(f, "w"))
	assert.Equal(t, "14", lookupString(f, "p"))
	assert.Equal(t, "20", lookupString(f, "q"))
	assert.Equal(t, "-19", lookupString(f, "n"))
	assert.Equal(t, "0.3", lookupString(f, "d"))
	assert.Equal(t, "0.3333333333333333333333333333", lookupString(f, "third"))
	assert.Equal(t, Completed, f.State())
}

func TestDecimalScale(t *testing.T) {
	f, _ := mustRun(t, `
a = 1.50 + 1;
b = 1.00 / 1;
c = 3.0 * 2;
d = 6 / 2;
g = 2.50 / 0.5;
`)
	assert.Equal(t, "2.50", lookupString(f, "a"))
	assert.Equal(t, "1.00", lookupString(f, "b"))
	assert.Equal(t, "6.0", lookupString(f, "c"))
	assert.Equal(t, "3", lookupString(f, "d"))
	assert.Equal(t, "5.0", lookupString(f, "g"))
}

func TestConcatFallback(t *testing.T) {
	f, _ := mustRun(t, `
a = 1 + 'b';
b = true + 1;
c = 'n=' + 1.50;
e = '';
`)
	assert.Equal(t, vm.StrValue("1b"), f.Lookup("a"))
	assert.Equal(t, vm.StrValue("true1"), f.Lookup("b"))
	assert.Equal(t, vm.StrValue("n=1.50"), f.Lookup("c"))
	assert.Equal(t, vm.StrValue(""), f.Lookup("e"))
}

func TestArithmeticFaults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"minus string", "x = 1 - 'x';", "Invalid Minus"},
		{"multiply string", "x = 'a' * 2;", "invalid operands"},
		{"divide by zero", "x = 1 / 0;", "division by zero"},
		{"modulo by zero", "x = 1 % 0;", "division by zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, err := runScript(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Equal(t, Faulted, f.State())
		})
	}
}

func TestComparisons(t *testing.T) {
	f, _ := mustRun(t, `
le = 3 < = 3;
ge = 2 >= 3;
ne = 3 ! = 4;
eq = 3 == 3.0;
lt = 2 < 3;
gt = 2 > 3;
seq = 'x' = 'x';
sne = 'x' != 'y';
mixed = 'x' = 1;
`)
	want := map[string]bool{
		"le": true, "ge": false, "ne": true, "eq": true, "lt": true,
		"gt": false, "seq": true, "sne": true, "mixed": false,
	}
	for name, v := range want {
		assert.Equal(t, vm.BoolValue(v), f.Lookup(name), name)
	}
}

func TestComparisonNotAllowed(t *testing.T) {
	_, _, err := runScript(t, "x = 'a' < 1;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not allowed operator")
}

func TestFaultCarriesLine(t *testing.T) {
	_, _, err := runScript(t, "x = 1;\n\ny = 1 - 'a';\n")
	require.Error(t, err)
	var se *lexer.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.Line)
	assert.Equal(t, "main.sol", se.File)
}

func TestLoopBodyKeepsLocals(t *testing.T) {
	f, _ := mustRun(t, `
seen = 0;
for (i = 0; i < 3; i++) {
  if (i > 0) { seen = seen + k; }
  k = 10;
}
`)
	assert.Equal(t, "20", lookupString(f, "seen"))
	assert.Equal(t, "3", lookupString(f, "i"))
	assert.Equal(t, vm.None, f.Lookup("k"))
}

func TestFunctionLocalsReset(t *testing.T) {
	f, _ := mustRun(t, `
function probe() {
  old = v;
  v = 5;
  return old;
}
a = probe();
b = probe();
`)
	assert.Equal(t, vm.None, f.Lookup("a"))
	assert.Equal(t, vm.None, f.Lookup("b"))
	assert.Equal(t, vm.None, f.Lookup("v"))
}

func TestWriteThroughGlobalView(t *testing.T) {
	f, _ := mustRun(t, `
count = 0;
function bump(by) {
  count = count + by;
  fresh = 1;
}
bump(2);
bump(3);
`)
	assert.Equal(t, "5", lookupString(f, "count"))
	assert.Equal(t, vm.None, f.Lookup("fresh"))
}

func TestAssignmentPrefersGlobalView(t *testing.T) {
	f, _ := mustRun(t, `
x = 1;
function setX(x) {
  x = 5;
  return x;
}
r = setX(2);
n = 1;
function bumpN(n) {
  n++;
  return n;
}
s = bumpN(10);
function inc(y) {
  y = y + 1;
  return y;
}
u = inc(3);
`)
	assert.Equal(t, "5", lookupString(f, "x"))
	assert.Equal(t, "2", lookupString(f, "r"))
	assert.Equal(t, "2", lookupString(f, "n"))
	assert.Equal(t, "10", lookupString(f, "s"))
	assert.Equal(t, "4", lookupString(f, "u"))
	assert.Equal(t, vm.None, f.Lookup("y"))
}

func TestImportResolutionOrder(t *testing.T) {
	f, _, err := runFiles(t, fstest.MapFS{
		"main.sol": {Data: []byte("import 'lib1.sol';\nimport 'lib2.sol';\nname = 'local';\na = name;\nb = shared;\nc = only2;\ng = greet('bob');\n")},
		"lib1.sol": {Data: []byte("name = 'one';\nshared = 'lib1';\nfunction greet(n) { return 'hi ' + n; }\n")},
		"lib2.sol": {Data: []byte("shared = 'lib2';\nonly2 = 2;\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, vm.StrValue("local"), f.Lookup("a"))
	assert.Equal(t, vm.StrValue("lib1"), f.Lookup("b"))
	assert.Equal(t, "2", lookupString(f, "c"))
	assert.Equal(t, vm.StrValue("hi bob"), f.Lookup("g"))
}

func TestImportCycle(t *testing.T) {
	_, _, err := runFiles(t, fstest.MapFS{
		"main.sol": {Data: []byte("import 'a.sol';\n")},
		"a.sol":    {Data: []byte("import 'b.sol';\n")},
		"b.sol":    {Data: []byte("import 'a.sol';\n")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle")
}

func TestCommentedImportIgnored(t *testing.T) {
	f, _, err := runFiles(t, fstest.MapFS{
		"main.sol": {Data: []byte("// import 'missing.sol';\nx = 1;\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", lookupString(f, "x"))
}

func TestBreakInsideIfStopsWhile(t *testing.T) {
	f, _ := mustRun(t, `
i = 0;
checks = 0;
function check() {
  checks++;
  return true;
}
while (check()) {
  i++;
  if (i = 3) { break; }
}
`)
	assert.Equal(t, "3", lookupString(f, "i"))
	assert.Equal(t, "3", lookupString(f, "checks"))
	assert.Equal(t, Completed, f.State())
}

func TestBreakStopsInnermostLoopOnly(t *testing.T) {
	f, _ := mustRun(t, `
total = 0;
for (i = 0; i < 3; i++) {
  for (j = 0; j < 10; j++) {
    if (j = 2) { break; }
    total++;
  }
}
`)
	assert.Equal(t, "6", lookupString(f, "total"))
}

func TestFunctionOverloadingByArity(t *testing.T) {
	f, _ := mustRun(t, `
function pick(a) { return 1; }
function pick(a, b) { return 2; }
x = pick(0);
y = pick(0, 0);
`)
	assert.Equal(t, "1", lookupString(f, "x"))
	assert.Equal(t, "2", lookupString(f, "y"))
}

func TestDuplicateFunction(t *testing.T) {
	_, _, err := runScript(t, `
function pick(a) { return 1; }
function pick(b) { return 2; }
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicated function pick/1")
}

func TestRedefinitionInLoopBody(t *testing.T) {
	f, _ := mustRun(t, `
sum = 0;
for (i = 0; i < 2; i++) {
  function seven() { return 7; }
  sum = sum + seven();
}
`)
	assert.Equal(t, "14", lookupString(f, "sum"))
}

func TestRecursion(t *testing.T) {
	f, _ := mustRun(t, `
function fact(n) {
  if (n < 2) { return 1; }
  return n * fact(n - 1);
}
x = fact(5);
`)
	assert.Equal(t, "120", lookupString(f, "x"))
}

func TestReturnHaltsAndPropagates(t *testing.T) {
	f, out := mustRun(t, `
function find() {
  for (i = 0; i < 10; i++) {
    if (i = 4) { return i; }
  }
  return 99;
}
function early() {
  return 1;
  Log('unreachable');
}
x = find();
y = early();
`)
	assert.Equal(t, "4", lookupString(f, "x"))
	assert.Equal(t, "1", lookupString(f, "y"))
	assert.Empty(t, out)
}

func TestIfElseChain(t *testing.T) {
	f, out := mustRun(t, `
function grade(n) {
  if (n > 90) {
    return 'a';
  } else if (n > 80) {
    return 'b';
  } else {
    return 'c';
  }
}
a = grade(95);
b = grade(85);
c = grade(10);
flag = true;
if (flag) { Log('yes'); }
if (!flag) { Log('no'); } else { Log('else'); }
`)
	assert.Equal(t, vm.StrValue("a"), f.Lookup("a"))
	assert.Equal(t, vm.StrValue("b"), f.Lookup("b"))
	assert.Equal(t, vm.StrValue("c"), f.Lookup("c"))
	assert.Equal(t, "yes\nelse\n", out)
}

func TestSkippedBranchIsNotEvaluated(t *testing.T) {
	_, out := mustRun(t, `
if (2 > 1) { Log('then'); } else if (missing(1, 2)) { Log('never'); } else { Log('else'); }
if (1 > 2) { Log('no'); } else if (1 = 1) { Log('second'); } else { missing(); }
`)
	assert.Equal(t, "then\nsecond\n", out)
}

func TestBareConditionNeedsOperator(t *testing.T) {
	_, _, err := runScript(t, "if (1 2) { }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected comparison operator")
}

func TestWhileWithoutBraces(t *testing.T) {
	f, _ := mustRun(t, "n = 0;\nwhile (n < 3) n++;\ndone = true;\n")
	assert.Equal(t, "3", lookupString(f, "n"))
	assert.Equal(t, vm.BoolTrue, f.Lookup("done"))
}

func TestForStepForms(t *testing.T) {
	f, _ := mustRun(t, `
evens = 0;
for (i = 0; i < 10; i = i + 2) { evens++; }
down = 0;
j = 3;
for (; j > 0; j--) { down++; }
`)
	assert.Equal(t, "5", lookupString(f, "evens"))
	assert.Equal(t, "3", lookupString(f, "down"))
	assert.Equal(t, "0", lookupString(f, "j"))
}

func TestForeach(t *testing.T) {
	f, _ := mustRun(t, `
total = 0;
foreach (v in {1, 2, 3}) { total = total + v; }
s = '';
foreach (c in 'abc') { s = c + s; }
l = new List();
l.Add(4);
l.Add(5);
foreach (v in l) { total = total + v; }
hits = 0;
foreach (v in {1, 2, 3, 4}) {
  if (v = 3) { break; }
  hits++;
}
`)
	assert.Equal(t, "15", lookupString(f, "total"))
	assert.Equal(t, vm.StrValue("cba"), f.Lookup("s"))
	assert.Equal(t, "2", lookupString(f, "hits"))
}

func TestForeachNotIterable(t *testing.T) {
	_, _, err := runScript(t, "foreach (v in 3) { }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot iterate over number")
}

func TestMembersAndClasses(t *testing.T) {
	f, _ := mustRun(t, `
s = 'Hello';
u = s.ToUpper();
n = s.Length();
sb = new StringBuilder();
sb.Append('a');
sb.Append('b');
joined = sb.ToString();
count = new List({1, 2}).Count();
`)
	assert.Equal(t, vm.StrValue("HELLO"), f.Lookup("u"))
	assert.Equal(t, "5", lookupString(f, "n"))
	assert.Equal(t, vm.StrValue("ab"), f.Lookup("joined"))
	assert.Equal(t, "2", lookupString(f, "count"))
}

func TestUnknownNames(t *testing.T) {
	_, _, err := runScript(t, "Lg(1);")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Function not found: Lg")
	assert.Contains(t, err.Error(), "did you mean Log")

	_, _, err = runScript(t, "x = new Nope();")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class Nope")

	f, _ := mustRun(t, "x = undefined;")
	assert.Equal(t, vm.None, f.Lookup("x"))
}

func TestCommentsAndStatementEnds(t *testing.T) {
	f, out := mustRun(t, `
// it's a comment
x = 1; /* block
 comment */ y = 2
z = x + y // trailing
Log(z);;
`)
	assert.Equal(t, "3", lookupString(f, "z"))
	assert.Equal(t, "3\n", out)
}

func TestIncDecStatements(t *testing.T) {
	f, _ := mustRun(t, "a = 1;\na++;\na++;\nb = 1;\nb--;\n")
	assert.Equal(t, "3", lookupString(f, "a"))
	assert.Equal(t, "0", lookupString(f, "b"))

	_, _, err := runScript(t, "s = 'x';\ns++;\n")
	require.Error(t, err)
}

func TestSnapshotOfRoot(t *testing.T) {
	f, _ := mustRun(t, "x = 1;\nname = 'sol';\n")
	snap := f.Snapshot()
	assert.Equal(t, []string{"name", "x"}, snap.Names())
	vals, err := snap.Values()
	require.NoError(t, err)
	assert.Equal(t, vm.StrValue("sol"), vals["name"])
}

func TestIdenticalBodiesShareRegion(t *testing.T) {
	var out bytes.Buffer
	rt := NewRuntime(WithBridge(vm.NewNatives(&out)), WithFS(fstest.MapFS{}))
	f, err := rt.Load("main.sol", "for (i = 0; i < 5; i++) { x = i; }\n")
	require.NoError(t, err)
	require.NoError(t, rt.Run(context.Background(), f))

	a, err := rt.intern("main.sol", 1, " x = i; ")
	require.NoError(t, err)
	b, err := rt.intern("main.sol", 1, " x = i; ")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, rt.Store().Has(a))
}
