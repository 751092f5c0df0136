// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gitlab.com/tozd/go/errors"
)

// Task is one unit of work handed to a Runner
type Task func(ctx context.Context) error

// 🏃 Runner executes tasks one after another or concurrently
type Runner struct {
	async bool
	limit int
}

// 🏗️ NewRunner creates a new runner
func NewRunner(async bool) *Runner {
	return &Runner{async: async}
}

// WithLimit caps the number of tasks running at once when async
func (r *Runner) WithLimit(n int) *Runner {
	r.limit = n
	return r
}

// 🏃 Run executes every task and returns the first error
func (r *Runner) Run(ctx context.Context, tasks ...Task) error {
	zerolog.Ctx(ctx).Debug().Bool("async", r.async).Int("tasks", len(tasks)).Msg("running tasks")
	if r.async {
		return r.runAsync(ctx, tasks)
	}
	return r.runSync(ctx, tasks)
}

// 🔄 runSync runs tasks in order, stopping at the first failure
func (r *Runner) runSync(ctx context.Context, tasks []Task) error {
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		if err := task(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ⚡ runAsync runs tasks concurrently; the first failure cancels the rest
func (r *Runner) runAsync(ctx context.Context, tasks []Task) error {
	g, gctx := errgroup.WithContext(ctx)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for _, task := range tasks {
		g.Go(func() error {
			return task(gctx)
		})
	}
	return g.Wait()
}
