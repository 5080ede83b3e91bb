package postgres

import "errors"

// 仓储层哨兵错误，供上层服务映射为业务错误，
// 调用方不应看到原始的数据库约束错误。
var (
	// ErrDuplicateOffer 同一买家在同一商品上已有 pending 报价
	ErrDuplicateOffer = errors.New("buyer already has a pending offer on this product")
	// ErrVersionConflict 条件更新未命中任何行，版本号已被并发修改
	ErrVersionConflict = errors.New("concurrent modification detected")
)
