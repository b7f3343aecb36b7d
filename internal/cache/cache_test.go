package cache

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/flowdex/internal/memory"
)

type countingReader struct {
	docs  map[memory.Kind][]byte
	reads int
	err   error
}

func (r *countingReader) Read(kind memory.Kind) ([]byte, error) {
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return r.docs[kind], nil
}

func TestRepeatedReadsReturnSameView(t *testing.T) {
	reader := &countingReader{docs: map[memory.Kind][]byte{
		memory.KindSymbols: []byte("## a.ts\nF:add(a, b):number\n"),
	}}
	c := New(reader, nil)

	hits := testutil.ToFloat64(lookupsTotal.WithLabelValues("symbols", "hit"))
	misses := testutil.ToFloat64(lookupsTotal.WithLabelValues("symbols", "miss"))

	first, err := c.SymbolsEntry()
	require.NoError(t, err)
	second, err := c.SymbolsEntry()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Same(t, &first.Value[0], &second.Value[0])
	assert.Equal(t, 2, reader.reads)
	assert.Equal(t, misses+1, testutil.ToFloat64(lookupsTotal.WithLabelValues("symbols", "miss")))
	assert.Equal(t, hits+1, testutil.ToFloat64(lookupsTotal.WithLabelValues("symbols", "hit")))
}

func TestWriteThenInvalidateReflectsNewContent(t *testing.T) {
	store := memory.NewStore(t.TempDir())
	_, err := store.Init()
	require.NoError(t, err)
	c := New(store, nil)

	rules, err := c.Rules()
	require.NoError(t, err)
	assert.Empty(t, rules)

	require.NoError(t, store.Append(memory.KindRules, []byte(memory.FormatRule(memory.Rule{
		ID: "USR001", Description: "No console", Files: "*", Action: "WARN", Enabled: true,
	}))))

	before := testutil.ToFloat64(invalidationsTotal.WithLabelValues("rules"))
	c.InvalidateRules()
	assert.Equal(t, before+1, testutil.ToFloat64(invalidationsTotal.WithLabelValues("rules")))

	rules, err = c.Rules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "USR001", rules[0].ID)
}

func TestChangedContentIsReparsedWithoutInvalidation(t *testing.T) {
	reader := &countingReader{docs: map[memory.Kind][]byte{
		memory.KindDiscovery: []byte("- [x] src\n"),
	}}
	c := New(reader, nil)

	dirs, err := c.Discovery()
	require.NoError(t, err)
	assert.Equal(t, []string{"src"}, dirs)

	reader.docs[memory.KindDiscovery] = []byte("- [x] src\n- [x] lib\n")
	dirs, err = c.Discovery()
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "lib"}, dirs)
}

func TestGraphMissingDocumentIsEmpty(t *testing.T) {
	c := New(&countingReader{docs: map[memory.Kind][]byte{}}, nil)
	g, err := c.Graph()
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.True(t, g.IsEmpty())
}

func TestConfigParseErrorIsNotCached(t *testing.T) {
	reader := &countingReader{docs: map[memory.Kind][]byte{
		memory.KindConfig: []byte("query: [broken"),
	}}
	c := New(reader, nil)

	_, err := c.Config()
	require.Error(t, err)

	reader.docs[memory.KindConfig] = []byte("query:\n  depth: 3\n")
	cfg, err := c.Config()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Query.Depth)
}

func TestReadErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	c := New(&countingReader{err: boom}, nil)
	_, err := c.Attempts()
	assert.ErrorIs(t, err, boom)
}

func TestClearDropsEveryKind(t *testing.T) {
	reader := &countingReader{docs: map[memory.Kind][]byte{}}
	c := New(reader, nil)
	_, err := c.Architecture()
	require.NoError(t, err)

	misses := testutil.ToFloat64(lookupsTotal.WithLabelValues("architecture", "miss"))
	c.Clear()
	_, err = c.Architecture()
	require.NoError(t, err)
	assert.Equal(t, misses+1, testutil.ToFloat64(lookupsTotal.WithLabelValues("architecture", "miss")))

	// unknown kinds are a no-op
	c.Invalidate(memory.Kind("notes"))
}
