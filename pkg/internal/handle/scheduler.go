package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/middleware"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/scheduler"
)

func getScheduler(c *gin.Context) *scheduler.Scheduler {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
	}

	return sched
}

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary	定时任务列表
//	@Tags		调度器
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/api/v1/admin/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := getScheduler(c)
	if sched == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerJob 返回单个任务的状态.
//
//	@Summary	任务详情
//	@Tags		调度器
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	200		{object}	scheduler.JobInfo
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/admin/scheduler/jobs/{name} [get]
func SchedulerJob(c *gin.Context) {
	sched := getScheduler(c)
	if sched == nil {
		return
	}

	info, err := sched.GetJobInfoByName(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// SchedulerRunJob 立即执行一次指定任务.
//
//	@Summary	立即执行任务
//	@Tags		调度器
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	202		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/admin/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := getScheduler(c)
	if sched == nil {
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered"})
}

// SchedulerStopJobs 停止所有任务.
//
//	@Summary	停止所有任务
//	@Tags		调度器
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/v1/admin/scheduler/jobs/stop [post]
func SchedulerStopJobs(c *gin.Context) {
	sched := getScheduler(c)
	if sched == nil {
		return
	}

	if err := sched.StopJobs(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "jobs stopped"})
}

// SchedulerRemoveJob 按任务 ID 或任务名删除任务.
//
//	@Summary	删除任务
//	@Tags		调度器
//	@Produce	json
//	@Param		name	path		string	true	"任务 ID 或任务名"
//	@Success	200		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/admin/scheduler/jobs/{name} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched := getScheduler(c)
	if sched == nil {
		return
	}

	ref := c.Param("name")

	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		err = sched.RemoveJob(id)
	} else {
		err = sched.RemoveJobByName(ref)
	}

	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "job removed"})
	}
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
//
//	@Summary	等待中的任务数
//	@Tags		调度器
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Router		/api/v1/admin/scheduler/queue/waiting [get]
func SchedulerQueueWaiting(c *gin.Context) {
	sched := getScheduler(c)
	if sched == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}
