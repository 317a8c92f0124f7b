// Package main 启动应用程序
package main

import (
	"os"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cmd"
)

//	@title			SmartMedia API
//	@version		1.0
//	@description	SmartMedia 媒体库服务：上传、AI 分析、存储配额与卡死任务回收。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
