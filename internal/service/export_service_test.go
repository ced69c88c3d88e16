package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, ScheduleService, AvailabilityService, *mockRepos) {
	repo, mocks := newMockRepository()
	logger := zap.NewNop()
	return NewExportService(repo, nil, time.UTC, logger), NewScheduleService(repo, nil, logger), NewAvailabilityService(repo, nil, logger), mocks
}

// ── ExportGrid 测试 ──

func TestExportService_ExportGrid(t *testing.T) {
	exportSvc, scheduleSvc, availSvc, mocks := setupTestExportService()
	alice := viewerOf(t, mocks, "alice")
	bob := viewerOf(t, mocks, "bob")
	ctx := context.Background()

	created := mustCreate(t, scheduleSvc, alice, "Mon\nTue")
	id := created.Schedule.ScheduleID
	mon, tue := created.Candidates[0].CandidateID, created.Candidates[1].CandidateID
	_, _ = availSvc.Upsert(ctx, id, alice.UserID, mon, 2)
	_, _ = availSvc.Upsert(ctx, id, bob.UserID, tue, 1)

	buf, filename, err := exportSvc.ExportGrid(ctx, id, alice)
	if err != nil {
		t.Fatalf("ExportGrid 应成功: %v", err)
	}
	if filename != "忘年会.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应能被解析: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(gridSheet)
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	// 表头 + 2 用户 + 3 统计行
	if len(rows) != 6 {
		t.Fatalf("期望 6 行，实际=%d: %v", len(rows), rows)
	}
	if strings.Join(rows[0], ",") != "用户,Mon,Tue" {
		t.Errorf("表头不符: %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "alice (我),出,欠" {
		t.Errorf("viewer 行不符: %v", rows[1])
	}
	if strings.Join(rows[2], ",") != "bob,欠,?" {
		t.Errorf("bob 行不符: %v", rows[2])
	}
	if strings.Join(rows[3], ",") != "出席,1,0" {
		t.Errorf("出席统计不符: %v", rows[3])
	}
	if strings.Join(rows[5], ",") != "欠席,1,1" {
		t.Errorf("欠席统计不符: %v", rows[5])
	}
}

func TestExportService_ExportGrid_NotFound(t *testing.T) {
	exportSvc, _, _, mocks := setupTestExportService()
	alice := viewerOf(t, mocks, "alice")

	_, _, err := exportSvc.ExportGrid(context.Background(), "0b6f9a43-1a7e-4f5c-8a55-3c2b1d7e9f00", alice)
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("期望 ErrScheduleNotFound，实际: %v", err)
	}
}

// ── ExportCalendar 测试 ──

func TestExportService_ExportCalendar(t *testing.T) {
	exportSvc, scheduleSvc, _, mocks := setupTestExportService()
	alice := viewerOf(t, mocks, "alice")

	created := mustCreate(t, scheduleSvc, alice, "2024-12-20 19:00\n2024/12/21\n金曜の夜")

	buf, filename, err := exportSvc.ExportCalendar(context.Background(), created.Schedule.ScheduleID, alice)
	if err != nil {
		t.Fatalf("ExportCalendar 应成功: %v", err)
	}
	if filename != "忘年会.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	body := buf.String()
	if !strings.HasPrefix(body, "BEGIN:VCALENDAR") {
		t.Errorf("期望 VCALENDAR 开头，实际: %.40s", body)
	}
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("期望 3 个 VEVENT，实际=%d", n)
	}
	if !strings.Contains(body, "DTSTART;VALUE=DATE:20241221") {
		t.Error("仅日期的候选应导出为全天事件")
	}
	if !strings.Contains(body, "忘年会: 金曜の夜") {
		t.Error("期望事件标题包含候选名")
	}
}

func TestExportService_ExportCalendar_UsesConfiguredLocation(t *testing.T) {
	repo, mocks := newMockRepository()
	logger := zap.NewNop()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	scheduleSvc := NewScheduleService(repo, nil, logger)
	alice := viewerOf(t, mocks, "alice")
	created := mustCreate(t, scheduleSvc, alice, "2024-12-20 19:00")
	id := created.Schedule.ScheduleID

	// 19:00 JST = 10:00 UTC，与进程本地时区无关
	buf, _, err := NewExportService(repo, nil, tokyo, logger).ExportCalendar(context.Background(), id, alice)
	if err != nil {
		t.Fatalf("ExportCalendar 应成功: %v", err)
	}
	if !strings.Contains(buf.String(), "DTSTART:20241220T100000Z") {
		t.Errorf("期望按 Asia/Tokyo 解释候选时间，实际:\n%s", buf.String())
	}

	buf, _, err = NewExportService(repo, nil, nil, logger).ExportCalendar(context.Background(), id, alice)
	if err != nil {
		t.Fatalf("ExportCalendar 应成功: %v", err)
	}
	if !strings.Contains(buf.String(), "DTSTART:20241220T190000Z") {
		t.Errorf("未指定时区时应按 UTC 解释，实际:\n%s", buf.String())
	}
}

func TestParseCandidateTime(t *testing.T) {
	loc := time.UTC

	ts, allDay, ok := parseCandidateTime("2024-12-20 19:00", loc)
	if !ok || allDay || ts.Hour() != 19 {
		t.Errorf("日期时间解析不符: %v %v %v", ts, allDay, ok)
	}

	ts, allDay, ok = parseCandidateTime(" 2024/12/21 ", loc)
	if !ok || !allDay || ts.Day() != 21 {
		t.Errorf("日期解析不符: %v %v %v", ts, allDay, ok)
	}

	if _, _, ok := parseCandidateTime("来週のどこか", loc); ok {
		t.Error("非日期文本不应解析成功")
	}
}
