package redis

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/pkg/compress"
	"github.com/lk2023060901/lifesim/pkg/serializer"
)

// 对象值格式：压缩帧（msgpack）+ 4 字节小端 CRC32C
const checksumSize = 4

// GetObject 读取并解码，键不存在返回 ErrNil，校验失败返回 ErrCorruptObject
func GetObject[T any](ctx context.Context, c *Client, key string) (*T, error) {
	data, err := c.GetBytes(ctx, key)
	if err != nil {
		return nil, err
	}
	var obj T
	if err := c.decodeObject(data, &obj); err != nil {
		return nil, errors.Wrapf(err, "decode %s", key)
	}
	return &obj, nil
}

// SetObject 编码后写入
func SetObject(ctx context.Context, c *Client, key string, value any, ttl time.Duration) error {
	data, err := c.encodeObject(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return c.SetBytes(ctx, key, data, ttl)
}

func (c *Client) encodeObject(value any) ([]byte, error) {
	raw, err := serializer.Encode(value)
	if err != nil {
		return nil, err
	}
	framed, err := compress.Encode(c.compressor, raw)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint32(framed, c.hasher.Sum(framed)), nil
}

func (c *Client) decodeObject(data []byte, v any) error {
	if len(data) <= checksumSize {
		return ErrCorruptObject
	}
	body, sum := data[:len(data)-checksumSize], binary.LittleEndian.Uint32(data[len(data)-checksumSize:])
	if !c.hasher.Verify(body, sum) {
		return errors.Wrap(ErrCorruptObject, "checksum mismatch")
	}
	raw, err := compress.Decode(body)
	if err != nil {
		return errors.Wrapf(ErrCorruptObject, "%v", err)
	}
	if err := serializer.Decode(raw, v); err != nil {
		return errors.Wrapf(ErrCorruptObject, "decode: %v", err)
	}
	return nil
}
