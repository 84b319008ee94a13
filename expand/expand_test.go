package expand

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tt "github.com/gnolang/mexp/internal/types"
)

func TestMain(m *testing.M) {
	ProgressOutput = io.Discard
	os.Exit(m.Run())
}

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Run(filename string) (*tt.Result, error) {
	args := m.Called(filename)
	res, _ := args.Get(0).(*tt.Result)
	return res, args.Error(1)
}

func (m *mockEngine) RunSource(filename string, source []byte) (*tt.Result, error) {
	args := m.Called(filename, source)
	res, _ := args.Get(0).(*tt.Result)
	return res, args.Error(1)
}

func (m *mockEngine) Accepts(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *mockEngine) IgnorePath(pattern string) {
	m.Called(pattern)
}

func acceptsMx(m *mockEngine) {
	m.On("Accepts", mock.MatchedBy(func(p string) bool { return filepath.Ext(p) == ".mx" })).Return(true)
	m.On("Accepts", mock.MatchedBy(func(p string) bool { return filepath.Ext(p) != ".mx" })).Return(false)
}

func createTempFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("(print 1)\n"), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expected := &tt.Result{Filename: "test.mx", Forms: []string{"(+ 1 2)"}}

	engine := new(mockEngine)
	engine.On("Run", "test.mx").Return(expected, nil)

	res, err := ProcessFile(engine, "test.mx")

	assert.NoError(t, err)
	assert.Equal(t, expected, res)
	engine.AssertExpectations(t)
}

func TestProcessSource(t *testing.T) {
	t.Parallel()
	source := []byte("(my-add 1 2)")
	expected := &tt.Result{Filename: "<stdin>", Forms: []string{"(+ 1 2)"}}

	engine := new(mockEngine)
	engine.On("RunSource", "<stdin>", source).Return(expected, nil)

	res, err := ProcessSource(engine, "<stdin>", source)

	assert.NoError(t, err)
	assert.Equal(t, expected, res)
	engine.AssertExpectations(t)
}

func TestProcessPath(t *testing.T) {
	t.Parallel()
	logger, _ := zap.NewProduction()
	tempDir := t.TempDir()

	paths := createTempFiles(t, tempDir, "test1.mx", "test2.mx", "notes.txt", "sub/test3.mx")

	engine := new(mockEngine)
	acceptsMx(engine)
	engine.On("Run", paths[0]).Return(&tt.Result{Filename: paths[0]}, nil)
	engine.On("Run", paths[1]).Return(&tt.Result{Filename: paths[1]}, nil)
	engine.On("Run", paths[3]).Return(&tt.Result{Filename: paths[3]}, nil)

	results, err := ProcessPath(context.Background(), logger, engine, tempDir, ProcessFile)

	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, want := range []string{paths[3], paths[0], paths[1]} {
		assert.Equal(t, want, results[i].Filename)
	}
	engine.AssertExpectations(t)
	engine.AssertNotCalled(t, "Run", paths[2])
}

func TestProcessPath_NamedFile(t *testing.T) {
	t.Parallel()
	paths := createTempFiles(t, t.TempDir(), "prelude.lisp")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return(&tt.Result{Filename: paths[0]}, nil)

	results, err := ProcessPath(context.Background(), nil, engine, paths[0], ProcessFile)

	require.NoError(t, err)
	require.Len(t, results, 1)
	engine.AssertNotCalled(t, "Accepts", mock.Anything)
}

func TestProcessPath_SkipsUnreadableFiles(t *testing.T) {
	t.Parallel()
	paths := createTempFiles(t, t.TempDir(), "a.mx", "b.mx")

	engine := new(mockEngine)
	acceptsMx(engine)
	engine.On("Run", paths[0]).Return(nil, errors.New("permission denied"))
	engine.On("Run", paths[1]).Return(&tt.Result{Filename: paths[1]}, nil)

	results, err := ProcessPath(context.Background(), zap.NewNop(), engine, filepath.Dir(paths[0]), ProcessFile)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, paths[1], results[0].Filename)
}

func TestProcessPath_Missing(t *testing.T) {
	t.Parallel()

	_, err := ProcessPath(context.Background(), nil, new(mockEngine), filepath.Join(t.TempDir(), "nope"), ProcessFile)
	assert.ErrorContains(t, err, "error accessing")
}

func TestProcessPathContextCancellation(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	for i := 0; i < 10; i++ {
		createTempFiles(t, tempDir, filepath.Join("dir", string(rune('a'+i))+".mx"))
	}

	engine, err := New(DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := ProcessPath(ctx, nil, engine, tempDir, ProcessFile)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, results)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	logger, _ := zap.NewProduction()
	paths := createTempFiles(t, t.TempDir(), "test1.mx", "test2.mx")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return(&tt.Result{Filename: paths[0], Forms: []string{"1"}}, nil)
	engine.On("Run", paths[1]).Return(&tt.Result{Filename: paths[1], Forms: []string{"2"}}, nil)

	results, err := ProcessFiles(context.Background(), logger, engine, paths, ProcessFile)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"1"}, results[0].Forms)
	assert.Equal(t, []string{"2"}, results[1].Forms)
	engine.AssertExpectations(t)
}

func TestProcessFiles_Error(t *testing.T) {
	t.Parallel()
	paths := createTempFiles(t, t.TempDir(), "test1.mx")

	engine := new(mockEngine)
	engine.On("Run", paths[0]).Return(&tt.Result{Filename: paths[0]}, nil)

	_, err := ProcessFiles(context.Background(), zap.NewNop(), engine, []string{paths[0], "missing.mx"}, ProcessFile)
	assert.ErrorContains(t, err, "missing.mx")
}

func TestProcessPath_Engine(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	files := map[string]string{
		"lib.mx":    "(def-macro unless () ((c body ...) (if c nil (do body ...))))\n(unless done (step) (step))\n",
		"main.mx":   "(def-macro swap () ((a b) (b a)))\n(swap 1 f)\n",
		"broken.mx": "(def-macro m () ((x ... y ...) x))\n",
		"skip.txt":  "(swap 1 f)\n",
	}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, name), []byte(src), 0o644))
	}

	engine, err := New(DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	results, err := ProcessPath(context.Background(), nil, engine, tempDir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byName := make(map[string]*tt.Result)
	for _, res := range results {
		byName[filepath.Base(res.Filename)] = res
	}

	assert.Equal(t, []string{"(if done nil (do (step) (step)))"}, byName["lib.mx"].Forms)
	assert.Equal(t, []string{"(f 1)"}, byName["main.mx"].Forms)

	require.Len(t, byName["broken.mx"].Issues, 1)
	assert.Equal(t, "ambiguous-pattern", byName["broken.mx"].Issues[0].Rule)
}
