package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type noneCompressor struct{}

func (noneCompressor) Compress(src []byte) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

func (noneCompressor) Decompress(src []byte) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

func (noneCompressor) Type() Type { return TypeNone }

type snappyCompressor struct{}

func (snappyCompressor) Compress(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (snappyCompressor) Decompress(src []byte) ([]byte, error) {
	return snappy.Decode(nil, src)
}

func (snappyCompressor) Type() Type { return TypeSnappy }

// zstd 的 EncodeAll/DecodeAll 并发安全，进程内共用一组编解码器
type zstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var (
	zstdOnce   sync.Once
	zstdShared *zstdCompressor
	zstdErr    error
)

func sharedZstd() (*zstdCompressor, error) {
	zstdOnce.Do(func() {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			zstdErr = err
			return
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			_ = enc.Close()
			zstdErr = err
			return
		}
		zstdShared = &zstdCompressor{encoder: enc, decoder: dec}
	})
	return zstdShared, zstdErr
}

func (c *zstdCompressor) Compress(src []byte) ([]byte, error) {
	return c.encoder.EncodeAll(src, nil), nil
}

func (c *zstdCompressor) Decompress(src []byte) ([]byte, error) {
	return c.decoder.DecodeAll(src, nil)
}

func (c *zstdCompressor) Type() Type { return TypeZstd }

// lz4 使用帧格式，帧头自带长度信息
type lz4Compressor struct{}

func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) Decompress(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

func (lz4Compressor) Type() Type { return TypeLZ4 }
