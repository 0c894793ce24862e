package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/makiscript/gomaki/pkg/maki/fixtures"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/serialization"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

func writeModule(t *testing.T, fs afero.Fs, name string, m *program.Module, d program.Dialect) {
	data, err := serialization.Serialize(m, d)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
}

func mustOptions(t *testing.T, args ...string) *options {
	o, err := parseOptions(args)
	require.NoError(t, err)
	return o
}

func TestParseOptions(t *testing.T) {
	o := mustOptions(t, "-r", "3", "--step-limit=50", "a.maki", "b.maki")
	assert.Equal(t, 3, o.repeat)
	assert.Equal(t, 50, o.stepLimit)
	assert.Equal(t, []string{"a.maki", "b.maki"}, o.files)

	for i, args := range [][]string{
		{},
		{"--repeat", "0", "a.maki"},
		{"--convert-to", "v9", "a.maki"},
		{"--log-level", "loud", "a.maki"},
	} {
		_, err := parseOptions(args)
		assert.Error(t, err, i)
	}
	_, err := parseOptions([]string{"--help"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRunFixtures(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModule(t, fs, "hello.maki", fixtures.HelloWorld().Module, program.DialectV1)
	writeModule(t, fs, "functions.maki", fixtures.SimpleFunctions().Module, program.DialectV4)

	var out bytes.Buffer
	err := run(context.Background(), mustOptions(t, "-r", "2", "hello.maki", "functions.maki"), fs, &out, zaptest.NewLogger(t))
	require.NoError(t, err)
	text := out.String()
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("[Hello Title] Hello World\n")))
	assert.Contains(t, text, "[Success] recursive custom function\n")
	assert.Contains(t, text, "hello.maki: returned nothing in 7 steps\n")
	assert.Contains(t, text, "functions.maki: returned nothing in")
}

func TestRunReportsFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModule(t, fs, "hello.maki", fixtures.HelloWorld().Module, program.DialectV2)
	require.NoError(t, afero.WriteFile(fs, "garbage.maki", []byte("not a module"), 0o644))

	var out bytes.Buffer
	err := run(context.Background(), mustOptions(t, "garbage.maki", "hello.maki"), fs, &out, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 modules failed")
	assert.Contains(t, out.String(), "garbage.maki: failed: unknown dialect")
	assert.Contains(t, out.String(), "hello.maki: returned nothing")

	err = run(context.Background(), mustOptions(t, "missing.maki"), fs, &out, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "failed to read missing.maki")
}

const stubs = `
[[native]]
name = "get_value"
result = "Int32"
value = 41
async = true

[[native]]
name = "format_price"
args = ["Int32|Double", "String"]
result = "String"
value = "free"

[[native]]
name = "explode"
error = "boom"
`

func TestStubNatives(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "natives.toml", []byte(stubs), 0o644))

	b := program.NewBuilder()
	main := b.Function("main", 0, 0)
	b.Begin(main)
	b.CallNative("getValue", 0).Push(value.Int32(1)).Emit(program.OpAdd).Emit(program.OpReturn, 1)
	writeModule(t, fs, "value.maki", b.MustBuild(main), program.DialectV3)

	b = program.NewBuilder()
	main = b.Function("main", 0, 0)
	b.Begin(main)
	b.Push(value.Double(1.5)).Push(value.String("EUR")).CallNative("formatPrice", 2).Emit(program.OpReturn, 1)
	writeModule(t, fs, "price.maki", b.MustBuild(main), program.DialectV4)

	b = program.NewBuilder()
	main = b.Function("main", 0, 0)
	b.Begin(main)
	b.CallNative("explode", 0).Emit(program.OpReturn, 0)
	writeModule(t, fs, "explode.maki", b.MustBuild(main), program.DialectV1)

	var out bytes.Buffer
	err := run(context.Background(), mustOptions(t, "--natives", "natives.toml", "value.maki", "price.maki", "explode.maki"), fs, &out, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, out.String(), "value.maki: returned Int32(42) in 4 steps\n")
	assert.Contains(t, out.String(), `price.maki: returned String("free") in 4 steps`)
	assert.Contains(t, out.String(), "explode.maki: failed: native call failed: native explode: boom")
}

func TestBadStubs(t *testing.T) {
	for i, text := range []string{
		"[[native]]\nname = \"x\"\nresult = \"Int32\"\nvalue = \"text\"\n",
		"[[native]]\nname = \"x\"\nargs = [\"Number\"]\n",
		"[[native]]\nname = \"x\"\nvalue = 1e3\nresult = \"Double\"\ncolor = \"red\"\n",
		"[[native]]\nname = \"x\"\nvalue = 9999999999\n",
		"[[native]\n",
	} {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "natives.toml", []byte(text), 0o644))
		writeModule(t, fs, "hello.maki", fixtures.HelloWorld().Module, program.DialectV1)
		var out bytes.Buffer
		err := run(context.Background(), mustOptions(t, "-n", "natives.toml", "hello.maki"), fs, &out, zaptest.NewLogger(t))
		assert.Error(t, err, i)
		assert.Empty(t, out.String(), i)
	}
}

func TestDisassembleAndConvert(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModule(t, fs, "dir/hello.maki", fixtures.HelloWorld().Module, program.DialectV1)

	var out bytes.Buffer
	err := run(context.Background(), mustOptions(t, "--disasm", "--convert-to", "v3", "-o", "converted", "dir/hello.maki"), fs, &out, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "; dir/hello.maki\n; dialect v1")
	assert.Contains(t, out.String(), "CALL_NATIVE")
	assert.Contains(t, out.String(), "converted from v1 to v3 as converted/hello.v3.maki")
	assert.NotContains(t, out.String(), "[Hello Title]")

	data, err := afero.ReadFile(fs, "converted/hello.v3.maki")
	require.NoError(t, err)
	d, err := serialization.DetectDialect(data)
	require.NoError(t, err)
	assert.Equal(t, program.DialectV3, d)
}
