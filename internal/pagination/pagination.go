package pagination

import "time"

// Cursor 基于 (created_at, id) 的键集分页游标
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        int64     `json:"id"`
}

// Page 一页查询结果，NextCursor 为空表示没有下一页
type Page[T any] struct {
	Items      []T     `json:"items"`
	HasMore    bool    `json:"hasMore"`
	NextCursor *Cursor `json:"nextCursor,omitempty"`
}

// Extract 从“多取一条”的查询结果中切出一页
// 仓储层按 limit+1 查询，这里判断是否还有下一页并生成游标。
func Extract[T any](items []T, limit int, cursorOf func(T) Cursor) Page[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	var next *Cursor
	if hasMore && len(items) > 0 {
		c := cursorOf(items[len(items)-1])
		next = &c
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, HasMore: hasMore, NextCursor: next}
}

// Normalize 约束每页大小，默认 50，上限 100
func Normalize(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 100 {
		return 100
	}
	return limit
}
