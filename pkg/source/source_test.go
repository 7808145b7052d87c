package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/pkg/config"
	"github.com/walteh/looprc/pkg/mount"
	"github.com/walteh/looprc/pkg/proc"
)

// 🎭 mockRunner is a mock command runner
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, args ...string) (*proc.Result, error) {
	called := m.Called(ctx, args)
	if res := called.Get(0); res != nil {
		return res.(*proc.Result), called.Error(1)
	}
	return nil, called.Error(1)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.TestWriter{T: t})
	return logger.WithContext(context.Background())
}

func testSpec() config.SourceSpec {
	return config.SourceSpec{
		StorageDevice: &config.StorageDeviceSpec{
			UUID:         "4E21-0000",
			PathTemplate: config.DefaultPathTemplate,
			MountOptions: []string{"ro"},
		},
	}
}

// expectMount wires the runner to accept one mount call and records
// the mount point it was given.
func expectMount(runner *mockRunner, result *proc.Result, err error) *string {
	var mountPoint string
	runner.On("Run", mock.Anything, mock.MatchedBy(func(args []string) bool {
		if len(args) < 3 || args[0] != "sudo" || args[1] != "mount" {
			return false
		}
		mountPoint = args[len(args)-1]
		return true
	})).Return(result, err)
	return &mountPoint
}

func TestEnterMountsDevice(t *testing.T) {
	runner := &mockRunner{}
	mountPoint := expectMount(runner, &proc.Result{}, nil)

	scope := New(testSpec(), mount.New(runner))
	path, err := scope.Enter(testContext(t))
	require.NoError(t, err)

	assert.Equal(t, *mountPoint, path, "the mounted path is the one handed back")
	assert.True(t, strings.HasPrefix(filepath.Base(path), "looprc-"), "mount point: %s", path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	runner.AssertCalled(t, "Run", mock.Anything, []string{
		"sudo", "mount", "-o", "ro", "/dev/disk/by-uuid/4E21-0000", path,
	})

	t.Cleanup(func() { os.Remove(path) })
}

func TestEnterMountFailureLeavesNothingBehind(t *testing.T) {
	runner := &mockRunner{}
	mountPoint := expectMount(runner, &proc.Result{ExitCode: 32}, nil)

	scope := New(testSpec(), mount.New(runner))
	_, err := scope.Enter(testContext(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, mount.ErrMountFailed), "a refused mount must stay classifiable")

	require.NotEmpty(t, *mountPoint)
	_, statErr := os.Stat(*mountPoint)
	assert.True(t, os.IsNotExist(statErr), "failed enter must not leave a mount point: %s", *mountPoint)
}

func TestEnterRejectsUnsupportedLocation(t *testing.T) {
	runner := &mockRunner{}

	scope := New(config.SourceSpec{Patterns: []string{"*.MP4"}}, mount.New(runner))
	_, err := scope.Enter(testContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no supported location")
	assert.Empty(t, runner.Calls, "nothing may run for a source that cannot be mounted")
}

func TestExitUnmountsAndRemoves(t *testing.T) {
	runner := &mockRunner{}
	expectMount(runner, &proc.Result{}, nil)

	scope := New(testSpec(), mount.New(runner))
	ctx := testContext(t)
	path, err := scope.Enter(ctx)
	require.NoError(t, err)

	runner.On("Run", mock.Anything, []string{"sudo", "umount", path}).Return(&proc.Result{}, nil)
	require.NoError(t, scope.Exit(ctx))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "exit must remove the mount point")
	runner.AssertExpectations(t)
}

func TestExitUnmountFailureKeepsMountPoint(t *testing.T) {
	runner := &mockRunner{}
	expectMount(runner, &proc.Result{}, nil)

	scope := New(testSpec(), mount.New(runner))
	ctx := testContext(t)
	path, err := scope.Enter(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	runner.On("Run", mock.Anything, []string{"sudo", "umount", path}).Return(&proc.Result{ExitCode: 1}, nil)
	err = scope.Exit(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, mount.ErrMountFailed), "umount failures are fatal, not skippable")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "a still-mounted path must not be removed")
}

func TestScopeIsSingleUse(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, scope *Scope, ctx context.Context)
		action  func(scope *Scope, ctx context.Context) error
		wantErr string
	}{
		{
			name:    "exit_before_enter",
			prepare: func(t *testing.T, scope *Scope, ctx context.Context) {},
			action: func(scope *Scope, ctx context.Context) error {
				return scope.Exit(ctx)
			},
			wantErr: "is initialized, cannot exit",
		},
		{
			name: "enter_twice",
			prepare: func(t *testing.T, scope *Scope, ctx context.Context) {
				path, err := scope.Enter(ctx)
				require.NoError(t, err)
				t.Cleanup(func() { os.Remove(path) })
			},
			action: func(scope *Scope, ctx context.Context) error {
				_, err := scope.Enter(ctx)
				return err
			},
			wantErr: "is active, cannot enter",
		},
		{
			name: "exit_twice",
			prepare: func(t *testing.T, scope *Scope, ctx context.Context) {
				_, err := scope.Enter(ctx)
				require.NoError(t, err)
				require.NoError(t, scope.Exit(ctx))
			},
			action: func(scope *Scope, ctx context.Context) error {
				return scope.Exit(ctx)
			},
			wantErr: "is torn down, cannot exit",
		},
		{
			name: "enter_after_exit",
			prepare: func(t *testing.T, scope *Scope, ctx context.Context) {
				_, err := scope.Enter(ctx)
				require.NoError(t, err)
				require.NoError(t, scope.Exit(ctx))
			},
			action: func(scope *Scope, ctx context.Context) error {
				_, err := scope.Enter(ctx)
				return err
			},
			wantErr: "is torn down, cannot enter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			runner.On("Run", mock.Anything, mock.Anything).Return(&proc.Result{}, nil)

			scope := New(testSpec(), mount.New(runner))
			ctx := testContext(t)
			tt.prepare(t, scope, ctx)

			err := tt.action(scope, ctx)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
