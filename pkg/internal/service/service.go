// Package service 实现请求级的业务服务，依赖从 context 注入的领域服务.
package service

import (
	"context"
	"errors"

	ctxPkg "github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
)

var (
	// ErrUnavailable 进程未注入所需服务.
	ErrUnavailable = errors.New("service unavailable")
	// ErrEmptyUpdate 请求里没有任何要修改的字段.
	ErrEmptyUpdate = errors.New("nothing to update")
	// ErrInvalidQuery 查询参数取值不合法.
	ErrInvalidQuery = errors.New("invalid query")
)

func services(ctx context.Context) (*ctxPkg.Services, error) {
	svc := ctxPkg.GetServices(ctx)
	if svc == nil || svc.Store == nil {
		return nil, ErrUnavailable
	}

	return svc, nil
}
