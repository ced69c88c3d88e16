// Package attendance 出欠汇总引擎
//
// 输入为已排序的候选日程与出欠回答，输出稠密的「用户 × 候选」出欠表。
// 纯函数实现：不做 I/O、不持有共享状态，可并发调用。
//
// 排序约定由调用方（Repository 层）保证：
//   - candidates 按 candidate_id 升序
//   - answers 按 username 升序、candidate_id 升序
//
// 引擎不重新排序，只保留输入顺序并补全缺失单元格。
package attendance

import (
	"errors"
	"fmt"
)

// ── 汇总引擎错误 ──

var (
	// ErrInvalidAvailability 出欠值不在 {0,1,2} 范围内
	ErrInvalidAvailability = errors.New("出欠值无效")
	// ErrMissingUser 回答缺少关联用户，或关联用户与回答的 user_id 不一致
	ErrMissingUser = errors.New("出欠回答缺少关联用户")
)

// Availability 出欠状态
type Availability int

const (
	Absent    Availability = 0 // 欠席 / 未回答
	Undecided Availability = 1 // 未定
	Present   Availability = 2 // 出席
)

// Valid 是否为合法出欠值
func (a Availability) Valid() bool {
	return a >= Absent && a <= Present
}

// Label 表格展示用的单字标签
func (a Availability) Label() string {
	switch a {
	case Present:
		return "出"
	case Undecided:
		return "?"
	default:
		return "欠"
	}
}

// ParseAvailability 将整数校验为出欠值
func ParseAvailability(n int) (Availability, error) {
	a := Availability(n)
	if !a.Valid() {
		return Absent, fmt.Errorf("%w: %d", ErrInvalidAvailability, n)
	}
	return a, nil
}

// User 用户身份
type User struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Candidate 候选日程
type Candidate struct {
	CandidateID   int64  `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
}

// Answer 单条出欠回答，必须携带关联用户
type Answer struct {
	UserID       int64
	CandidateID  int64
	Availability Availability
	User         *User
}

// UserView 出欠表中的一行
type UserView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsSelf   bool   `json:"is_self"`
}

// Grid 稠密出欠表
type Grid struct {
	Users      []UserView                       `json:"users"`
	Candidates []Candidate                      `json:"candidates"`
	Cells      map[int64]map[int64]Availability `json:"grid"`
}

// Aggregate 汇总出欠回答
//
// 步骤：
//  1. 按输入顺序折叠回答，同一 (user, candidate) 后写覆盖先写
//  2. 构建用户列表：viewer 恒为第一行，其余按首次出现顺序去重
//  3. 补全：每个用户 × 每个候选缺失时填 Absent，不覆盖已有值
//
// 任何一条回答非法都会返回错误，不返回部分结果。
func Aggregate(viewer User, candidates []Candidate, answers []Answer) (*Grid, error) {
	cells := make(map[int64]map[int64]Availability)
	users := []UserView{{UserID: viewer.UserID, Username: viewer.Username, IsSelf: true}}
	seen := map[int64]bool{viewer.UserID: true}

	for i, ans := range answers {
		if ans.User == nil || ans.User.UserID != ans.UserID {
			return nil, fmt.Errorf("%w: answers[%d] user_id=%d", ErrMissingUser, i, ans.UserID)
		}
		if !ans.Availability.Valid() {
			return nil, fmt.Errorf("%w: answers[%d] availability=%d", ErrInvalidAvailability, i, ans.Availability)
		}

		row, ok := cells[ans.UserID]
		if !ok {
			row = make(map[int64]Availability, len(candidates))
			cells[ans.UserID] = row
		}
		row[ans.CandidateID] = ans.Availability

		if !seen[ans.UserID] {
			seen[ans.UserID] = true
			users = append(users, UserView{
				UserID:   ans.UserID,
				Username: ans.User.Username,
				IsSelf:   ans.UserID == viewer.UserID,
			})
		}
	}

	for _, u := range users {
		row, ok := cells[u.UserID]
		if !ok {
			row = make(map[int64]Availability, len(candidates))
			cells[u.UserID] = row
		}
		for _, c := range candidates {
			if _, exists := row[c.CandidateID]; !exists {
				row[c.CandidateID] = Absent
			}
		}
	}

	return &Grid{Users: users, Candidates: candidates, Cells: cells}, nil
}

// Get 读取单元格；不存在的组合视为 Absent
func (g *Grid) Get(userID, candidateID int64) Availability {
	return g.Cells[userID][candidateID]
}

// CandidateSummary 单个候选的出欠统计
type CandidateSummary struct {
	CandidateID int64 `json:"candidate_id"`
	Present     int   `json:"present"`
	Undecided   int   `json:"undecided"`
	Absent      int   `json:"absent"`
}

// Summary 按候选顺序统计出欠人数
func (g *Grid) Summary() []CandidateSummary {
	result := make([]CandidateSummary, 0, len(g.Candidates))
	for _, c := range g.Candidates {
		s := CandidateSummary{CandidateID: c.CandidateID}
		for _, u := range g.Users {
			switch g.Get(u.UserID, c.CandidateID) {
			case Present:
				s.Present++
			case Undecided:
				s.Undecided++
			default:
				s.Absent++
			}
		}
		result = append(result, s)
	}
	return result
}
