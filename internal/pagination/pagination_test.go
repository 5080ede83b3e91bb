package pagination

import (
	"testing"
	"time"
)

type row struct {
	id        int64
	createdAt time.Time
}

func cursorOf(r row) Cursor {
	return Cursor{CreatedAt: r.createdAt, ID: r.id}
}

func TestExtract(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{3, base.Add(2 * time.Minute)},
		{2, base.Add(time.Minute)},
		{1, base},
	}

	// 多取到了一条：截断并带上末尾游标
	page := Extract(rows, 2, cursorOf)
	if len(page.Items) != 2 || !page.HasMore {
		t.Fatalf("page = %d items hasMore=%v, want 2 true", len(page.Items), page.HasMore)
	}
	if page.NextCursor == nil || page.NextCursor.ID != 2 {
		t.Fatalf("nextCursor = %+v, want id 2", page.NextCursor)
	}

	// 刚好满一页：没有下一页
	page = Extract(rows, 3, cursorOf)
	if page.HasMore || page.NextCursor != nil {
		t.Fatalf("exact page: hasMore=%v cursor=%+v, want false nil", page.HasMore, page.NextCursor)
	}

	// 空结果保持空切片而不是 nil，序列化为 [] 而非 null
	page = Extract(nil, 2, cursorOf)
	if page.Items == nil || len(page.Items) != 0 || page.HasMore {
		t.Fatalf("empty page = %+v", page)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 50},
		{-5, 50},
		{10, 10},
		{100, 100},
		{500, 100},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
