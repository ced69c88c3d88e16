package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nayochev/schedule-arranger/internal/attendance"
	"github.com/nayochev/schedule-arranger/internal/repository"
	"github.com/nayochev/schedule-arranger/pkg/metrics"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出内容与详情页一致：以请求者为 viewer 汇总出欠表后再渲染。
// 结果以内存 buffer 返回，由 Handler 设置下载响应头。
type ExportService interface {
	// ExportGrid 出欠表导出为 Excel：行为用户，列为候选，末尾为统计行
	ExportGrid(ctx context.Context, scheduleID string, viewer attendance.User) (*bytes.Buffer, string, error)
	// ExportCalendar 候选导出为 iCalendar，每个候选一个 VEVENT
	ExportCalendar(ctx context.Context, scheduleID string, viewer attendance.User) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	loc     *time.Location
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
// loc 为候选日期的解释时区，nil 时使用 UTC
func NewExportService(repo *repository.Repository, m *metrics.Metrics, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, metrics: m, loc: loc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportGrid 出欠表导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// | 用户   | 候选1 | 候选2 | ...
// | alice  | 出    | ?     |
// | 出席   | 1     | 0     |
// | 未定   | 0     | 1     |
// | 欠席   | 0     | 0     |

const gridSheet = "出欠表"

func (s *exportService) ExportGrid(ctx context.Context, scheduleID string, viewer attendance.User) (*bytes.Buffer, string, error) {
	data, err := loadGrid(ctx, s.repo, s.metrics, scheduleID, viewer)
	if err != nil {
		s.logIfUnexpected(scheduleID, err)
		return nil, "", err
	}
	grid := data.grid

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(gridSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(gridSheet, "A", "A", 20)
	if n := len(grid.Candidates); n > 0 {
		f.SetColWidth(gridSheet, colName(1), colName(n), 16)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	centerStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// 表头
	row := 1
	f.SetCellValue(gridSheet, cell("A", row), "用户")
	for i, c := range grid.Candidates {
		f.SetCellValue(gridSheet, cell(colName(1+i), row), c.CandidateName)
	}
	f.SetCellStyle(gridSheet, "A1", cell(colName(len(grid.Candidates)), row), headerStyle)

	// 用户行
	for _, u := range grid.Users {
		row++
		name := u.Username
		if u.IsSelf {
			name += " (我)"
		}
		f.SetCellValue(gridSheet, cell("A", row), name)
		for i, c := range grid.Candidates {
			f.SetCellValue(gridSheet, cell(colName(1+i), row), grid.Get(u.UserID, c.CandidateID).Label())
		}
	}

	// 统计行
	summary := grid.Summary()
	for _, line := range []struct {
		label string
		count func(attendance.CandidateSummary) int
	}{
		{"出席", func(cs attendance.CandidateSummary) int { return cs.Present }},
		{"未定", func(cs attendance.CandidateSummary) int { return cs.Undecided }},
		{"欠席", func(cs attendance.CandidateSummary) int { return cs.Absent }},
	} {
		row++
		f.SetCellValue(gridSheet, cell("A", row), line.label)
		for i, cs := range summary {
			f.SetCellValue(gridSheet, cell(colName(1+i), row), line.count(cs))
		}
	}
	if len(grid.Candidates) > 0 {
		f.SetCellStyle(gridSheet, "B2", cell(colName(len(grid.Candidates)), row), centerStyle)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, exportFilename(data.schedule.ScheduleName, "xlsx"), nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 候选导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 候选名能解析为日期时间时生成 1 小时事件；仅日期时生成全天事件；
// 无法解析时以日程更新日期生成全天占位事件。描述中附带出欠统计。

// candidateTimeLayouts 候选名可识别的时间格式，按顺序尝试
var candidateTimeLayouts = []struct {
	layout string
	allDay bool
}{
	{"2006-01-02 15:04", false},
	{"2006/01/02 15:04", false},
	{"2006-01-02", true},
	{"2006/01/02", true},
}

func (s *exportService) ExportCalendar(ctx context.Context, scheduleID string, viewer attendance.User) (*bytes.Buffer, string, error) {
	data, err := loadGrid(ctx, s.repo, s.metrics, scheduleID, viewer)
	if err != nil {
		s.logIfUnexpected(scheduleID, err)
		return nil, "", err
	}
	schedule := data.schedule

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//schedule-arranger//attendance//JA")
	cal.SetXWRCalName(schedule.ScheduleName)

	stamp := schedule.UpdatedAt.UTC()
	summary := data.grid.Summary()

	for i, c := range data.grid.Candidates {
		event := cal.AddEvent(fmt.Sprintf("%s-%d@schedule-arranger", schedule.ScheduleID, c.CandidateID))
		event.SetDtStampTime(stamp)
		event.SetSummary(fmt.Sprintf("%s: %s", schedule.ScheduleName, c.CandidateName))
		event.SetDescription(fmt.Sprintf("出席 %d / 未定 %d / 欠席 %d",
			summary[i].Present, summary[i].Undecided, summary[i].Absent))

		start, allDay, ok := parseCandidateTime(c.CandidateName, s.loc)
		switch {
		case ok && !allDay:
			event.SetStartAt(start)
			event.SetEndAt(start.Add(time.Hour))
		case ok:
			event.SetAllDayStartAt(start)
			event.SetAllDayEndAt(start.AddDate(0, 0, 1))
		default:
			day := schedule.UpdatedAt.In(s.loc)
			event.SetAllDayStartAt(day)
			event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, exportFilename(schedule.ScheduleName, "ics"), nil
}

// parseCandidateTime 尝试把候选名解析为时间
func parseCandidateTime(name string, loc *time.Location) (time.Time, bool, bool) {
	name = strings.TrimSpace(name)
	for _, l := range candidateTimeLayouts {
		if t, err := time.ParseInLocation(l.layout, name, loc); err == nil {
			return t, l.allDay, true
		}
	}
	return time.Time{}, false, false
}

// ── 辅助函数 ──

func (s *exportService) logIfUnexpected(scheduleID string, err error) {
	if errors.Is(err, ErrScheduleNotFound) || errors.Is(err, ErrInvalidScheduleID) {
		return
	}
	s.logger.Error("导出读取出欠表失败", zap.String("schedule_id", scheduleID), zap.Error(err))
}

func exportFilename(scheduleName, ext string) string {
	name := strings.TrimSpace(scheduleName)
	if name == "" {
		name = "schedule"
	}
	return fmt.Sprintf("%s.%s", name, ext)
}

// colName 0 起始的列号转 Excel 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
