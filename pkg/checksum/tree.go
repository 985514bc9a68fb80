package checksum

import (
	"encoding/binary"
	"io/fs"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// Tree 目录摘要：按文件名排序后依次写入文件名、长度与内容
// 只改动时间戳、内容不变时摘要不变
func Tree(fsys fs.FS, pattern string) (uint64, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return 0, errors.Wrapf(err, "glob %s", pattern)
	}
	sort.Strings(names)

	d := xxhash.New()
	var size [8]byte
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return 0, errors.Wrapf(err, "read %s", name)
		}
		_, _ = d.WriteString(name)
		binary.LittleEndian.PutUint64(size[:], uint64(len(data)))
		_, _ = d.Write(size[:])
		_, _ = d.Write(data)
	}
	return d.Sum64(), nil
}
