package main

import (
	"github.com/BurntSushi/toml"
	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"

	"github.com/makiscript/gomaki/pkg/logging"
	"github.com/makiscript/gomaki/pkg/maki/cache"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/value"
)

type options struct {
	natives   string
	stepLimit int
	repeat    int
	disasm    bool
	convertTo string
	outDir    string
	cacheSize int
	logging   logging.Parameters
	files     []string
}

func parseOptions(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("makirun", flag.ContinueOnError)
	fs.StringVarP(&o.natives, "natives", "n", "", "TOML file declaring stub natives in addition to the built-in messageBox")
	fs.IntVar(&o.stepLimit, "step-limit", 0, "Fail runs executing more instructions than this; 0 means unlimited")
	fs.IntVarP(&o.repeat, "repeat", "r", 1, "Run every module this many times")
	fs.BoolVarP(&o.disasm, "disasm", "d", false, "Print the canonical listing of every module instead of running it")
	fs.StringVar(&o.convertTo, "convert-to", "", "Re-encode every module in the given dialect (v1, v2, v3 or v4) instead of running it")
	fs.StringVarP(&o.outDir, "out", "o", ".", "Directory for converted modules")
	fs.IntVar(&o.cacheSize, "cache-size", cache.DefaultSize, "Size of the decoded module cache in bytes")
	o.logging.Initialize(fs)
	fs.Usage = func() {
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := o.logging.Parse(); err != nil {
		return nil, err
	}
	o.files = fs.Args()
	if len(o.files) == 0 {
		return nil, errors.New("no module files given")
	}
	if o.repeat < 1 {
		return nil, errors.Errorf("invalid repeat count %d", o.repeat)
	}
	if o.convertTo != "" {
		if _, err := program.ParseDialect(o.convertTo); err != nil {
			return nil, errors.Wrap(err, "invalid --convert-to")
		}
	}
	return o, nil
}

// stubConfig declares a native answered with a constant, or with an error when Error is set.
type stubConfig struct {
	Name   string   `toml:"name"`
	Args   []string `toml:"args"`
	Result string   `toml:"result"`
	Value  any      `toml:"value"`
	Error  string   `toml:"error"`
	Async  bool     `toml:"async"`
}

type stubFile struct {
	Native []stubConfig `toml:"native"`
}

func loadStubs(fs afero.Fs, path string) ([]stubConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read natives")
	}
	var f stubFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse natives file %s", path)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, errors.Errorf("unknown keys in natives file %s: %v", path, keys)
	}
	return f.Native, nil
}

// toValue converts a TOML scalar.
func toValue(v any) (value.Value, error) {
	switch x := v.(type) {
	case nil:
		return value.Null(), nil
	case int64:
		i, err := safecast.ToInt32(x)
		if err != nil {
			return value.Null(), errors.Wrapf(err, "integer %d", x)
		}
		return value.Int32(i), nil
	case float64:
		return value.Double(x), nil
	case bool:
		return value.Bool(x), nil
	case string:
		return value.String(x), nil
	default:
		return value.Null(), errors.Errorf("unsupported value %v of type %T", v, v)
	}
}
