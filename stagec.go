// Package stagec compiles pipeline descriptions to GLSL source.
//
// A pipeline is an ordered list of stage programs in the IR of package ir.
// Pipelines are usually written as YAML files (see package pipefile) and
// compiled with the glsl backend into one GLSL source per stage, together
// with the binding indices and std430 buffer layouts the runtime needs.
//
// Example usage:
//
//	result, err := stagec.CompileFile("lit.yaml", stagec.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Pipeline.Sources[ir.StageFragment])
//
// Independent pipelines can be compiled in parallel:
//
//	results := stagec.CompileAll(paths, stagec.DefaultOptions(), 4)
package stagec

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/gogpu/stagec/glsl"
	"github.com/gogpu/stagec/pipefile"
)

// Options configures pipeline compilation.
type Options = glsl.Options

// DefaultOptions returns the glsl backend defaults: GLSL 4.50 core with
// validation enabled.
func DefaultOptions() Options {
	return glsl.DefaultOptions()
}

// Result is the outcome of compiling one pipeline file.
type Result struct {
	// Path is the pipeline file that was compiled.
	Path string

	// Name is the pipeline name from the file, or the file's base name.
	Name string

	// Pipeline holds the generated sources. It is nil when Err is set.
	Pipeline *glsl.Pipeline

	// Err reports a load or compile failure.
	Err error
}

// Compile compiles a decoded pipeline.
func Compile(p *pipefile.Pipeline, opts Options) (*glsl.Pipeline, error) {
	pipeline, err := glsl.Compile(p.Stages, opts)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.Name, err)
	}
	return pipeline, nil
}

// CompileFile loads and compiles the pipeline file at path.
//
// The returned Result is never nil; on failure its Err is also returned.
func CompileFile(path string, opts Options) (*Result, error) {
	result := &Result{Path: path}
	p, err := pipefile.Load(path)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.Name = p.Name

	pipeline, err := Compile(p, opts)
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", path, err)
		return result, result.Err
	}
	result.Pipeline = pipeline
	return result, nil
}

// The automation pool keeps its workers for the life of the process, so
// one pool is shared by every CompileAll call and grown on demand.
var (
	poolMu sync.Mutex
	pool   worker.DynamicWorkerPool
)

const (
	// poolQueue is the task queue capacity of the shared pool.
	poolQueue = 64

	// idleTimeout is handed to the pool; the workers of automation v1.1.1
	// do not exit when idle.
	idleTimeout = time.Second
)

// sharedPool returns the package worker pool with at least n workers.
// poolMu must be held; the pool does not guard its worker count.
func sharedPool(n int) worker.DynamicWorkerPool {
	if pool == nil {
		pool = worker.NewDynamicWorkerPool(n, poolQueue, idleTimeout)
	} else if extra := n - pool.GetMaxWorkers(); extra > 0 {
		pool.IncreaseMaxWorkers(extra)
	}
	return pool
}

// CompileAll compiles every file in paths with at most jobs files in
// flight. jobs is clamped to the number of paths and to GOMAXPROCS.
// Every pipeline gets its own binding allocator, so results do not depend
// on scheduling. Results are returned in the order of paths.
//
// The work runs on a worker pool shared by all calls; repeated calls do
// not start new goroutines once the pool is large enough.
func CompileAll(paths []string, opts Options, jobs int) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}
	jobs = min(max(jobs, 1), len(paths), runtime.GOMAXPROCS(0))

	// Each task is a lane that compiles files until none are left, which
	// bounds the call to jobs files in flight however large the pool is.
	var (
		next atomic.Int64
		wg   sync.WaitGroup
	)
	poolMu.Lock()
	p := sharedPool(jobs)
	for lane := range jobs {
		wg.Add(1)
		p.SubmitTask(worker.Task{
			ID: lane,
			Do: func() (any, error) {
				defer wg.Done()
				for {
					i := int(next.Add(1)) - 1
					if i >= len(paths) {
						return nil, nil
					}
					result, _ := CompileFile(paths[i], opts)
					results[i] = *result
				}
			},
		})
	}
	poolMu.Unlock()
	wg.Wait()
	return results
}
