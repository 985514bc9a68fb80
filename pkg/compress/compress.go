// Package compress 缓存数据压缩
// 压缩结果带一字节算法标记，读取方不依赖写入方的配置
package compress

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupported 不支持的压缩算法
	ErrUnsupported = errors.New("compress: unsupported type")
	// ErrCorrupt 数据缺少算法标记或无法解压
	ErrCorrupt = errors.New("compress: corrupt payload")
)

// Type 压缩算法
type Type string

const (
	TypeNone   Type = "none"
	TypeSnappy Type = "snappy"
	TypeZstd   Type = "zstd"
	TypeLZ4    Type = "lz4"
)

// 标记值写入数据，不能修改
const (
	tagNone byte = iota
	tagSnappy
	tagZstd
	tagLZ4
)

// Compressor 压缩器
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Type() Type
}

// New 创建压缩器，空类型等同于 none
func New(t Type) (Compressor, error) {
	switch t {
	case TypeNone, "":
		return noneCompressor{}, nil
	case TypeSnappy:
		return snappyCompressor{}, nil
	case TypeZstd:
		return sharedZstd()
	case TypeLZ4:
		return lz4Compressor{}, nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "%q", t)
}

func tagOf(t Type) byte {
	switch t {
	case TypeSnappy:
		return tagSnappy
	case TypeZstd:
		return tagZstd
	case TypeLZ4:
		return tagLZ4
	}
	return tagNone
}

func typeOf(tag byte) (Type, bool) {
	switch tag {
	case tagNone:
		return TypeNone, true
	case tagSnappy:
		return TypeSnappy, true
	case tagZstd:
		return TypeZstd, true
	case tagLZ4:
		return TypeLZ4, true
	}
	return "", false
}

// Encode 压缩并在头部写入算法标记
func Encode(c Compressor, src []byte) ([]byte, error) {
	body, err := c.Compress(src)
	if err != nil {
		return nil, errors.Wrapf(err, "compress with %s", c.Type())
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, tagOf(c.Type()))
	return append(out, body...), nil
}

// Decode 按头部标记选择算法解压
func Decode(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrCorrupt
	}
	t, ok := typeOf(src[0])
	if !ok {
		return nil, errors.Wrapf(ErrCorrupt, "unknown tag %d", src[0])
	}
	c, err := New(t)
	if err != nil {
		return nil, err
	}
	out, err := c.Decompress(src[1:])
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "decompress %s: %v", t, err)
	}
	return out, nil
}
