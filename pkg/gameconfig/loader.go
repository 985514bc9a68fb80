// Package gameconfig 加载以 JSON 数组形式保存的静态配置表
package gameconfig

import (
	"encoding/json"
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

// JsonLoader 按表名返回原始行
type JsonLoader func(tableName string) ([]map[string]interface{}, error)

// NewLayeredLoader 依次在 layers 中查找 <tableName>.json，先找到者生效
// 典型用法：数据目录覆盖 + 内嵌默认表
// 所有层都没有该表时返回空数组并记录警告
func NewLayeredLoader(l logger.Logger, layers ...fs.FS) (JsonLoader, error) {
	if l == nil {
		return nil, errors.New("gameconfig: logger is required")
	}
	if len(layers) == 0 {
		return nil, errors.New("gameconfig: at least one layer is required")
	}

	return func(tableName string) ([]map[string]interface{}, error) {
		fileName := tableName + ".json"
		for _, layer := range layers {
			if layer == nil {
				continue
			}
			data, err := fs.ReadFile(layer, fileName)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, errors.Wrapf(err, "read config table %s", fileName)
			}

			var rows []map[string]interface{}
			if err := json.Unmarshal(data, &rows); err != nil {
				return nil, errors.Wrapf(err, "unmarshal config table %s", fileName)
			}
			return rows, nil
		}

		l.Warn("config table not found in any layer, using empty table", "table", tableName)
		return []map[string]interface{}{}, nil
	}, nil
}

// DecodeRows 将原始行解码为强类型记录，字段按 json tag 匹配
// 未知字段视为错误，避免配置拼写错误被静默忽略
func DecodeRows[T any](tableName string, rows []map[string]interface{}) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		var rec T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			Result:           &rec,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		})
		if err != nil {
			return nil, errors.Wrap(err, "gameconfig: build decoder")
		}
		if err := dec.Decode(row); err != nil {
			return nil, errors.Wrapf(err, "decode %s row %d", tableName, i)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Load 读取并解码一张表
func Load[T any](loader JsonLoader, tableName string) ([]T, error) {
	rows, err := loader(tableName)
	if err != nil {
		return nil, err
	}
	return DecodeRows[T](tableName, rows)
}
