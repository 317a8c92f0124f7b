//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// 纯 Go 驱动，无 cgo 的构建（包括 CLI 的静态二进制）走这里.
func openSQLite(cfg configs.DBConfig) gorm.Dialector {
	return sqlite.Open(cfg.GetDSN())
}

func init() {
	RegisterDialectorFactory(configs.SQLite, openSQLite)
}
