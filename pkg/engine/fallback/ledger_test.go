package fallback

import "testing"

func TestLedgerRecord(t *testing.T) {
	l := NewLedger()

	l.Record("a", "2026-09-01", 8)
	l.Record("a", "2026-09-02", 8)
	l.Record("a", "2026-09-03", 4)

	if got := l.ShiftCount("a"); got != 3 {
		t.Errorf("班次数 = %d, 期望 3", got)
	}
	if got := l.WeeklyHours("a"); got != 20 {
		t.Errorf("累计时长 = %v, 期望 20", got)
	}
	if got := l.ConsecutiveDays("a"); got != 3 {
		t.Errorf("连续天数 = %d, 期望 3", got)
	}
	if got := l.LastWorkDay("a"); got != "2026-09-03" {
		t.Errorf("最近排班日 = %q", got)
	}
}

func TestLedgerConsecutiveResetsOnGap(t *testing.T) {
	l := NewLedger()

	l.Record("a", "2026-09-01", 8)
	l.Record("a", "2026-09-02", 8)
	// 跳过一天
	l.Record("a", "2026-09-04", 8)

	if got := l.ConsecutiveDays("a"); got != 1 {
		t.Errorf("间断后连续天数 = %d, 期望重新起算为 1", got)
	}
}

func TestLedgerScore(t *testing.T) {
	l := NewLedger()

	if got := l.Score("unknown"); got != 0 {
		t.Errorf("无记录员工分数 = %v, 期望 0", got)
	}

	l.Record("a", "2026-09-01", 8)
	// 1班×2 + 8小时×0.5 + 1连续天×1.5
	want := 2.0 + 4.0 + 1.5
	if got := l.Score("a"); got != want {
		t.Errorf("分数 = %v, 期望 %v", got, want)
	}
}
