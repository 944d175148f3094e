// Copyright 2026 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package splits

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// WorkerPool bounds the number of split tasks running at the same time. A single pool is meant to
// be shared by every variant of a build.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool returns a pool running at most limit tasks at once, or one per CPU if limit is not
// positive.
func NewWorkerPool(limit int) *WorkerPool {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &WorkerPool{sem: make(chan struct{}, limit)}
}

func (p *WorkerPool) Limit() int {
	return cap(p.sem)
}

func (p *WorkerPool) NewExecutor() *WaitableExecutor {
	return &WaitableExecutor{pool: p}
}

// TaskResult is the outcome of one task of a WaitableExecutor.
type TaskResult struct {
	// Index is the submission index of the task.
	Index int
	Err   error
}

// WaitableExecutor submits tasks to a WorkerPool and waits for a batch of them to finish.
type WaitableExecutor struct {
	pool *WorkerPool

	wg        sync.WaitGroup
	submitted int

	lock    sync.Mutex
	results []TaskResult
}

// Execute starts task as soon as the pool has room for it.
func (e *WaitableExecutor) Execute(task func() error) {
	index := e.submitted
	e.submitted++
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.pool.sem <- struct{}{}
		err := runTask(task)
		<-e.pool.sem

		e.lock.Lock()
		e.results = append(e.results, TaskResult{Index: index, Err: err})
		e.lock.Unlock()
	}()
}

func runTask(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return task()
}

// WaitForAllTasks blocks until every submitted task finished and returns their results in
// completion order. If ctx is done first the wait is abandoned with an *InterruptedError; tasks
// that already started keep running.
func (e *WaitableExecutor) WaitForAllTasks(ctx context.Context) ([]TaskResult, error) {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Tasks that all finished are reported even if ctx was cancelled meanwhile.
		if !e.finished() {
			return nil, &InterruptedError{Err: ctx.Err()}
		}
	}

	e.lock.Lock()
	defer e.lock.Unlock()
	results := e.results
	e.results = nil
	e.submitted = 0
	return results, nil
}

// finished reports whether every submitted task has stored its result.
func (e *WaitableExecutor) finished() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.results) == e.submitted
}

// BuildError reports the failure of the task processing one split.
type BuildError struct {
	Split *ApkInfo
	Err   error
}

func (e *BuildError) Error() string {
	return e.Err.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// InterruptedError reports that waiting for split tasks was abandoned. Err is the context error.
type InterruptedError struct {
	Err error
}

func (e *InterruptedError) Error() string {
	return "interrupted while waiting for split tasks: " + e.Err.Error()
}

func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// SplitAction processes one split and returns the file it produced, or "" if it produced nothing.
type SplitAction func(split *ApkInfo) (string, error)

// SplitOutputAction processes one split given the file a previous step produced for it.
type SplitOutputAction func(split *ApkInfo, input string) (string, error)

// ParallelForEach runs action on every registered split using pool and records the returned files
// under outputType. Every task runs to completion; the first failure, in completion order, is
// then returned as a *BuildError.
func (s *SplitScope) ParallelForEach(ctx context.Context, pool *WorkerPool, outputType OutputType,
	action SplitAction) error {

	executor := pool.NewExecutor()
	for _, split := range s.splits {
		executor.Execute(func() error {
			outputFile, err := action(split)
			if err != nil {
				return &BuildError{Split: split, Err: err}
			}
			s.AddOutputForSplit(outputType, split, outputFile)
			return nil
		})
	}
	return waitForSplits(ctx, executor)
}

// ParallelForEachOutput is ParallelForEach for a step consuming the output of inputType. Splits
// with no recorded input are skipped.
func (s *SplitScope) ParallelForEachOutput(ctx context.Context, pool *WorkerPool,
	inputType, outputType OutputType, action SplitOutputAction) error {

	executor := pool.NewExecutor()
	for _, split := range s.splits {
		executor.Execute(func() error {
			input := s.Output(inputType, split)
			if input == nil {
				return nil
			}
			outputFile, err := action(split, input.OutputFile())
			if err != nil {
				return &BuildError{Split: split, Err: err}
			}
			s.AddOutputForSplit(outputType, split, outputFile)
			return nil
		})
	}
	return waitForSplits(ctx, executor)
}

func waitForSplits(ctx context.Context, executor *WaitableExecutor) error {
	results, err := executor.WaitForAllTasks(ctx)
	if err != nil {
		return err
	}
	for _, result := range results {
		if result.Err == nil {
			continue
		}
		var buildErr *BuildError
		if errors.As(result.Err, &buildErr) {
			return buildErr
		}
		return &BuildError{Err: result.Err}
	}
	return nil
}
