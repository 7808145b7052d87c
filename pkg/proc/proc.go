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

package proc

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Result captures one external command invocation
type Result struct {
	Args     []string // full argv, program included
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// 🏃 Runner executes external commands
type Runner interface {
	// Run executes args as a process and reports its exit code and
	// captured output. A nonzero exit is a Result, not an error; errors
	// are reserved for not being able to run the command at all.
	Run(ctx context.Context, args ...string) (*Result, error)
}

// ⚙️ Options configures an ExecRunner
type Options struct {
	DryRun bool // log invocations, spawn nothing, fabricate exit 0
}

// 🔧 ExecRunner is the Runner backed by os/exec
type ExecRunner struct {
	dryRun bool
}

// 🏭 New creates a new ExecRunner
func New(opts Options) *ExecRunner {
	return &ExecRunner{dryRun: opts.DryRun}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, errors.Errorf("empty command")
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Strs("command", args).Msg("running command")

	if r.dryRun {
		logger.Info().Strs("command", args).Msg("dry run, not running command")
		res := &Result{Args: args}
		r.logResult(ctx, res)
		return res, nil
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Args:   args,
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, errors.Errorf("running %s: %w", args[0], err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	r.logResult(ctx, res)
	return res, nil
}

// logResult records the outcome: info on exit 0, error with both captured
// streams otherwise.
func (r *ExecRunner) logResult(ctx context.Context, res *Result) {
	logger := zerolog.Ctx(ctx)
	if res.ExitCode == 0 {
		logger.Info().
			Strs("command", res.Args).
			Int("exit_code", res.ExitCode).
			Msg("command finished")
		return
	}
	logger.Error().
		Strs("command", res.Args).
		Int("exit_code", res.ExitCode).
		Str("stdout", string(res.Stdout)).
		Str("stderr", string(res.Stderr)).
		Msg("command failed")
}
