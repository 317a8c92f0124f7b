//go:build !no_sqlite && cgo

package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// DSN 按 glebarez 的 _pragma 写法生成，mattn/go-sqlite3 需要换成下划线参数.
var cgoPragmaReplacer = strings.NewReplacer(
	"_pragma=busy_timeout(5000)", "_busy_timeout=5000",
	"_pragma=journal_mode(WAL)", "_journal_mode=WAL",
)

func openSQLite(cfg configs.DBConfig) gorm.Dialector {
	return sqlite.Open(cgoPragmaReplacer.Replace(cfg.GetDSN()))
}

func init() {
	RegisterDialectorFactory(configs.SQLite, openSQLite)
}
