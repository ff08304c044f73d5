package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"waspy/internal/diag"
)

// listPyFiles возвращает отсортированный список всех *.py файлов в директории.
func listPyFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(path, ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadInputs loads path: a single file, or every *.py below a directory.
// Modules of a directory are named by their dotted relative path.
func ReadInputs(path string) ([]Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		in := Input{Path: path, Src: src}
		in.Name = in.moduleName()
		return []Input{in}, nil
	}
	files, err := listPyFiles(path)
	if err != nil {
		return nil, err
	}
	inputs := make([]Input, 0, len(files))
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(path, f)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".py")
		inputs = append(inputs, Input{Name: strings.ReplaceAll(name, "/", "."), Path: f, Src: src})
	}
	return inputs, nil
}

// CompileAll compiles independent modules in parallel against one shared,
// frozen shim registry. Results keep the order of inputs. A failing module
// does not stop the others; only cancellation or a compiler defect does.
func CompileAll(ctx context.Context, inputs []Input, opts Options) ([]*Result, error) {
	if err := opts.fill(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		name := in.moduleName()
		if seen[name] {
			return nil, fmt.Errorf("duplicate module name %q", name)
		}
		seen[name] = true
	}
	for _, in := range inputs {
		emit(opts.Sink, Event{Module: in.moduleName(), Status: StatusQueued})
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]*Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(inputs)))
	for i, in := range inputs {
		g.Go(func() error {
			res, err := compile(gctx, in, &opts)
			if err != nil {
				emit(opts.Sink, Event{Module: in.moduleName(), Status: StatusError, Err: err})
				return err
			}
			results[i] = res
			evt := Event{Module: res.Name, Status: StatusDone, Elapsed: elapsed(res), Cached: res.Cached}
			if res.Failed() {
				evt.Status = StatusError
				evt.Err = firstError(res.Diagnostics)
			}
			emit(opts.Sink, evt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// DiagnosticsByModule indexes the diagnostics of results by module name.
func DiagnosticsByModule(results []*Result) map[string]*diag.Bag {
	out := make(map[string]*diag.Bag, len(results))
	for _, r := range results {
		if r != nil {
			out[r.Name] = r.Diagnostics
		}
	}
	return out
}

func firstError(bag *diag.Bag) error {
	errs := bag.Errors()
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
