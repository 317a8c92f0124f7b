package handle

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/realtime"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
)

const heartbeatInterval = 25 * time.Second

// StreamMedia 以 Server-Sent Events 推送当前用户的记录变更与配额变化.
// 事件类型：change、quota、error（error 表示客户端落后，应重新拉取列表）.
//
//	@Summary		订阅媒体变更
//	@Description	管理员可用 all=true 订阅全部用户
//	@Tags			媒体
//	@Produce		text/event-stream
//	@Param			all	query	bool	false	"订阅全部用户（仅管理员）"
//	@Success		200
//	@Failure		503	{object}	map[string]string
//	@Router			/api/v1/media/stream [get]
func StreamMedia(c *gin.Context) {
	id, ok := checkUser(c)
	if !ok {
		return
	}

	svc := ctxPkg.GetServices(c.Request.Context())
	if svc == nil || svc.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime updates unavailable"})
		return
	}

	owner := id.UID
	if c.Query("all") == "true" {
		if !id.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		owner = realtime.AllOwners
	}

	sub := svc.Hub.Subscribe(owner)
	defer sub.Close()

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-sub.Changes():
			if !ok {
				return false
			}

			c.SSEvent(string(ev.Kind), ev)
		case err, ok := <-sub.Errors():
			if !ok {
				return false
			}

			c.SSEvent("error", gin.H{"error": err.Error()})
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
		}

		return true
	})
}
