package service

import "errors"

// Kind 业务错误分类，路由层据此映射 HTTP 状态码
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindAlreadyExists
	KindConflict
	KindServer
)

// Error 携带分类的业务错误，同步抛出并原样向调用方传播
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NotFoundError 引用的商品或报价不存在
func NotFoundError(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

// ForbiddenError 调用者不是本次操作的买卖双方
func ForbiddenError(msg string) error { return &Error{Kind: KindForbidden, Message: msg} }

// InvalidStateError 当前状态下结构性不允许的操作（已售出、自我交易、轮次错误等）
func InvalidStateError(msg string) error { return &Error{Kind: KindInvalidState, Message: msg} }

// AlreadyExistsError 同一 (product, buyer) 已存在 pending 报价
func AlreadyExistsError(msg string) error { return &Error{Kind: KindAlreadyExists, Message: msg} }

// ConflictError 乐观锁写入输掉竞争
func ConflictError(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// ServerError 配置/基础设施故障
func ServerError(msg string) error { return &Error{Kind: KindServer, Message: msg} }

// KindOf 提取错误分类，非业务错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
