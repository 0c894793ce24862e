// makirun loads compiled MAKI modules and runs them against a console host.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/makiscript/gomaki/pkg/logging"
	"github.com/makiscript/gomaki/pkg/maki"
	"github.com/makiscript/gomaki/pkg/maki/cache"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/serialization"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	o, err := parseOptions(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "makirun: %v\n", err)
		return 2
	}
	logger, err := logging.SetupLogger(o.logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "makirun: %v\n", err)
		return 2
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, afero.NewOsFs(), os.Stdout, logger); err != nil {
		logger.Error("makirun failed", zap.Error(err))
		return 1
	}
	return 0
}

type report struct {
	text   string
	failed bool
}

func run(ctx context.Context, o *options, fs afero.Fs, out io.Writer, logger *zap.Logger) error {
	var stubs []stubConfig
	if o.natives != "" {
		var err error
		if stubs, err = loadStubs(fs, o.natives); err != nil {
			return err
		}
	}
	h := newHost(logger.Named(logging.HostNamespace), out)
	bindings, err := h.bindings(stubs)
	if err != nil {
		return err
	}
	c := cache.New(o.cacheSize, serialization.DefaultLoader())

	reports := make([]report, len(o.files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range o.files {
		g.Go(func() error {
			r, err := process(ctx, o, fs, file, c, bindings, logger)
			reports[i] = r
			return err
		})
	}
	err = g.Wait()
	h.wait()
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if _, err := io.WriteString(out, r.text); err != nil {
			return errors.Wrap(err, "failed to write report")
		}
		if r.failed {
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d modules failed", failed, len(reports))
	}
	return nil
}

// process handles one module file. Script failures end up in the report, only I/O errors are returned.
func process(ctx context.Context, o *options, fs afero.Fs, file string, c *cache.ModuleCache, bindings *maki.Bindings, logger *zap.Logger) (report, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return report{}, errors.Wrapf(err, "failed to read %s", file)
	}
	if o.disasm || o.convertTo != "" {
		return transform(o, fs, file, data, c)
	}
	var res maki.Result
	for i := 0; i < o.repeat; i++ {
		res, err = maki.Run(ctx, data, bindings,
			maki.WithLogger(logger),
			maki.WithStepLimit(o.stepLimit),
			maki.WithModuleCache(c),
		)
		if err != nil {
			logger.Warn("run failed", zap.String("file", file), zap.Int("run", i+1), zap.Error(err))
			return report{text: fmt.Sprintf("%s: failed: %v\n", file, err), failed: true}, nil
		}
	}
	returned := "nothing"
	if res.HasValue {
		returned = res.Value.String()
	}
	return report{text: fmt.Sprintf("%s: returned %s in %d steps\n", file, returned, res.Steps)}, nil
}

func transform(o *options, fs afero.Fs, file string, data []byte, c *cache.ModuleCache) (report, error) {
	m, err := c.Load(data)
	if err != nil {
		return report{text: fmt.Sprintf("%s: %v\n", file, err), failed: true}, nil
	}
	var sb strings.Builder
	if o.disasm {
		fmt.Fprintf(&sb, "; %s\n%s", file, program.Disassemble(m))
	}
	if o.convertTo != "" {
		d, err := program.ParseDialect(o.convertTo)
		if err != nil {
			return report{}, err
		}
		converted, err := serialization.Serialize(m, d)
		if err != nil {
			return report{text: fmt.Sprintf("%s: %v\n", file, err), failed: true}, nil
		}
		base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		target := filepath.Join(o.outDir, fmt.Sprintf("%s.%s.maki", base, d))
		if err := fs.MkdirAll(o.outDir, 0o755); err != nil {
			return report{}, errors.Wrapf(err, "failed to create %s", o.outDir)
		}
		if err := afero.WriteFile(fs, target, converted, 0o644); err != nil {
			return report{}, errors.Wrapf(err, "failed to write %s", target)
		}
		fmt.Fprintf(&sb, "%s: converted from %s to %s as %s\n", file, m.Dialect, d, target)
	}
	return report{text: sb.String()}, nil
}
