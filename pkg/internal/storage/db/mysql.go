//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// utf8mb4 下索引列最长 191 个字符，media id、owner id 都落在这个范围内.
const mysqlStringSize = 191

func openMySQL(cfg configs.DBConfig) gorm.Dialector {
	return mysql.New(mysql.Config{
		DSN:               cfg.GetDSN(),
		DefaultStringSize: mysqlStringSize,
		// MariaDB 不支持 RENAME COLUMN / RENAME INDEX
		DontSupportRenameColumn: cfg.Type == configs.MariaDB,
		DontSupportRenameIndex:  cfg.Type == configs.MariaDB,
	})
}

func init() {
	RegisterDialectorFactory(configs.MySQL, openMySQL)
	RegisterDialectorFactory(configs.MariaDB, openMySQL)
}
