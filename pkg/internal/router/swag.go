package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/omgitsguppey/SmartMedia-CMS/docs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// RegisterSwaggerRoute 仅在 debug 模式挂载 /swagger，版本号跟随构建版本.
func RegisterSwaggerRoute(r *gin.Engine, server configs.ServerConfig) {
	if !server.Debug {
		return
	}

	docs.SwaggerInfo.Host = server.Addr()
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DocExpansion("none"),
		ginSwagger.PersistAuthorization(true),
	))
}
