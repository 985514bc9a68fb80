package checksum

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashers(t *testing.T) {
	data := []byte("lifesim performer snapshot")

	for _, typ := range []Type{TypeCRC32, TypeCRC32C, TypeXXHash} {
		t.Run(string(typ), func(t *testing.T) {
			h, err := New(typ)
			require.NoError(t, err)
			assert.Equal(t, typ, h.Type())

			sum := h.Sum(data)
			assert.True(t, h.Verify(data, sum))
			assert.False(t, h.Verify([]byte("lifesim performer snapshoT"), sum))
		})
	}

	_, err := New("md5")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, TypeCRC32C, Default().Type())
}

func TestKnownCRC32Values(t *testing.T) {
	crc, _ := New(TypeCRC32)
	assert.Equal(t, uint32(0xcbf43926), crc.Sum([]byte("123456789")))

	crcc, _ := New(TypeCRC32C)
	assert.Equal(t, uint32(0xe3069283), crcc.Sum([]byte("123456789")))
}

func TestTree(t *testing.T) {
	fsys := fstest.MapFS{
		"jobs.json":  {Data: []byte(`[{"id":1}]`)},
		"stats.json": {Data: []byte(`[]`)},
		"readme.txt": {Data: []byte("ignored")},
	}

	a, err := Tree(fsys, "*.json")
	require.NoError(t, err)

	fsys["readme.txt"] = &fstest.MapFile{Data: []byte("changed")}
	b, err := Tree(fsys, "*.json")
	require.NoError(t, err)
	assert.Equal(t, a, b, "non-matching files do not count")

	fsys["jobs.json"] = &fstest.MapFile{Data: []byte(`[{"id":2}]`)}
	c, err := Tree(fsys, "*.json")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	// 内容在文件之间移动也会改变摘要
	moved := fstest.MapFS{
		"jobs.json":  {Data: []byte(`[{"id":1}][]`)},
		"stats.json": {Data: []byte(``)},
	}
	d, err := Tree(moved, "*.json")
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}
