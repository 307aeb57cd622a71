package video

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buffers(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte("segment-video")
	}
	return out
}

func isStreamJoin(args []string) bool {
	return argValue(args, "-f") == "concat"
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files left behind")
}

func TestConcatenate_RejectsEmptyInput(t *testing.T) {
	e := NewConcatenationEngine(&fakeFFmpeg{}, t.TempDir(), StrategyAuto, logger.NewNop())

	_, err := e.Concatenate(context.Background(), 1, content.TypeReel, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = e.Concatenate(context.Background(), 1, content.TypeReel, [][]byte{[]byte("x"), {}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestConcatenate_StreamJoinReel(t *testing.T) {
	tmp := t.TempDir()
	var manifest string
	ff := &fakeFFmpeg{fail: func(args []string) error {
		data, err := os.ReadFile(argValue(args, "-i"))
		manifest = string(data)
		return err
	}}

	out, err := NewConcatenationEngine(ff, tmp, StrategyAuto, logger.NewNop()).
		Concatenate(context.Background(), 3, content.TypeReel, buffers(3))

	require.NoError(t, err)
	assert.NotEmpty(t, out)
	require.Len(t, ff.calls, 1)

	args := ff.calls[0]
	assert.True(t, isStreamJoin(args))
	assert.Equal(t, "fast", argValue(args, "-preset"))
	assert.Equal(t, "20", argValue(args, "-crf"))
	assert.Equal(t, "30", argValue(args, "-r"))
	assert.Equal(t, "30", argValue(args, "-g"))
	assert.Equal(t, "0", argValue(args, "-sc_threshold"))
	assert.Contains(t, argValue(args, "-af"), "aresample")
	assert.Contains(t, argValue(args, "-af"), "acompressor")

	lines := strings.Split(strings.TrimSpace(manifest), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Contains(t, line, "segment_"+string(rune('1'+i))+".mp4")
	}
	assertEmptyDir(t, tmp)
}

func TestConcatenate_StoryProfile(t *testing.T) {
	ff := &fakeFFmpeg{}

	_, err := NewConcatenationEngine(ff, t.TempDir(), StrategyStream, logger.NewNop()).
		Concatenate(context.Background(), 3, content.TypeStory, buffers(2))

	require.NoError(t, err)
	args := ff.calls[0]
	assert.Equal(t, "slow", argValue(args, "-preset"))
	assert.Equal(t, "18", argValue(args, "-crf"))
	assert.Contains(t, argValue(args, "-af"), "dynaudnorm")
}

func TestConcatenate_AutoFallsBackToFilterGraph(t *testing.T) {
	tmp := t.TempDir()
	ff := &fakeFFmpeg{fail: func(args []string) error {
		if isStreamJoin(args) {
			return errors.New("non-monotonous DTS")
		}
		return nil
	}}

	out, err := NewConcatenationEngine(ff, tmp, StrategyAuto, logger.NewNop()).
		Concatenate(context.Background(), 4, content.TypeReel, buffers(3))

	require.NoError(t, err)
	assert.NotEmpty(t, out)
	require.Len(t, ff.calls, 2)

	graph := argValue(ff.calls[1], "-filter_complex")
	assert.Contains(t, graph, "[0:v][1:v][2:v]concat=n=3:v=1:a=0")
	assert.Contains(t, graph, "[0:a][1:a]acrossfade=d=0.05")
	assert.Contains(t, graph, "[a1][2:a]acrossfade")
	assert.True(t, strings.HasSuffix(graph, "[a]"))
	assertEmptyDir(t, tmp)
}

func TestConcatenate_FailureCleansUp(t *testing.T) {
	tmp := t.TempDir()
	ff := &fakeFFmpeg{fail: func([]string) error { return errors.New("exit status 1") }}

	_, err := NewConcatenationEngine(ff, tmp, StrategyAuto, logger.NewNop()).
		Concatenate(context.Background(), 5, content.TypeReel, buffers(2))

	assert.ErrorIs(t, err, ErrConcatenation)
	assert.Len(t, ff.calls, 2)
	assertEmptyDir(t, tmp)
}

func TestConcatenate_FilterOnly(t *testing.T) {
	ff := &fakeFFmpeg{}

	_, err := NewConcatenationEngine(ff, t.TempDir(), StrategyFilter, logger.NewNop()).
		Concatenate(context.Background(), 6, content.TypeReel, buffers(1))

	require.NoError(t, err)
	require.Len(t, ff.calls, 1)
	graph := argValue(ff.calls[0], "-filter_complex")
	assert.NotContains(t, graph, "acrossfade")
	assert.Contains(t, graph, "[0:a]aresample")
}

func TestParseConcatStrategy(t *testing.T) {
	s, err := ParseConcatStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAuto, s)

	_, err = ParseConcatStrategy("magic")
	assert.Error(t, err)
}
