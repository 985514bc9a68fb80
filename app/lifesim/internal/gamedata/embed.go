package gamedata

import (
	"embed"
	"io/fs"
)

//go:embed data/*.json
var embedded embed.FS

// DefaultFS 内嵌的默认配置表
func DefaultFS() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}
