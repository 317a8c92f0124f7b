// Package media 定义媒体记录的领域规则：生命周期状态、允许的状态迁移、
// 媒体类别、错误码、审核结论以及标签与人名的规范化.
package media

// Status 媒体记录的生命周期状态.
type Status string

const (
	StatusUploading  Status = "uploading"  // 客户端仍在传输字节
	StatusPending    Status = "pending"    // 已持久化，等待分析
	StatusProcessing Status = "processing" // 分析进行中
	StatusReady      Status = "ready"      // 分析完成
	StatusFailed     Status = "failed"     // 终止失败，需人工重试
)

// Statuses 全部状态，按生命周期顺序.
var Statuses = []Status{StatusUploading, StatusPending, StatusProcessing, StatusReady, StatusFailed}

// InFlight 看门狗负责回收的中间状态.
var InFlight = []Status{StatusPending, StatusProcessing}

// Reanalyzable 允许手动重新分析的状态.
var Reanalyzable = []Status{StatusPending, StatusReady, StatusFailed}

// transitions 合法的状态迁移. ready/failed -> processing 只由手动重新分析产生.
var transitions = map[Status][]Status{
	StatusUploading:  {StatusPending, StatusFailed},
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusReady, StatusFailed},
	StatusReady:      {StatusProcessing},
	StatusFailed:     {StatusProcessing},
}

// Valid 是否为已知状态.
func (s Status) Valid() bool {
	_, ok := transitions[s]

	return ok
}

// Terminal ready 与 failed 只能通过显式操作离开.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

// CanTransition 判断 from -> to 是否合法.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// ParseStatus 解析状态字符串.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)

	return st, st.Valid()
}

// Contains 判断 s 是否在集合中.
func Contains(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}

	return false
}

// AdminStatus 管理员审核状态.
type AdminStatus string

const (
	AdminPending  AdminStatus = "pending"
	AdminApproved AdminStatus = "approved"
	AdminRejected AdminStatus = "rejected"
)

// Valid 是否为已知审核状态.
func (s AdminStatus) Valid() bool {
	switch s {
	case AdminPending, AdminApproved, AdminRejected:
		return true
	}

	return false
}

// Visibility 记录可见性.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
	VisibilityBlocked Visibility = "blocked"
)

// Valid 是否为已知可见性.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityShared, VisibilityBlocked:
		return true
	}

	return false
}

// Role 用户角色.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
