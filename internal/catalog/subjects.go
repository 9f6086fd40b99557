package catalog

import "math"

// Group is a subject code. The set of groups is closed.
type Group string

// Known groups, in display order.
const (
	GroupDS Group = "DS" // data structures
	GroupCO Group = "CO" // computer organization
	GroupOS Group = "OS" // operating systems
	GroupCN Group = "CN" // computer networks
)

// Unranked is the rank of groups and subgroups missing from Subjects.
// It sorts after every configured rank.
const Unranked = math.MaxInt

// Chapter is one subgroup of a subject.
type Chapter struct {
	Key  string // two-digit chapter number, e.g. "01"
	Name string
}

// Subject is a group together with its ordered chapters.
type Subject struct {
	Group    Group
	Name     string
	Chapters []Chapter
}

// Subjects is the fixed, ordered subject table. Position in the slice is
// the group rank; position in Chapters is the subgroup rank.
var Subjects = []Subject{
	{GroupDS, "数据结构", []Chapter{
		{"01", "基本概念"},
		{"02", "线性表"},
		{"03", "栈、队列和数组"},
		{"04", "树与二叉树"},
		{"05", "图"},
		{"06", "查找"},
		{"07", "排序"},
	}},
	{GroupCO, "计算机组成原理", []Chapter{
		{"01", "计算机系统概述"},
		{"02", "数据的表示和运算"},
		{"03", "存储器层次结构"},
		{"04", "指令系统"},
		{"05", "中央处理器"},
		{"06", "总线和输入输出系统"},
	}},
	{GroupOS, "操作系统", []Chapter{
		{"01", "操作系统概述"},
		{"02", "进程管理"},
		{"03", "内存管理"},
		{"04", "文件管理"},
		{"05", "输入输出管理"},
	}},
	{GroupCN, "计算机网络", []Chapter{
		{"01", "计算机网络体系结构"},
		{"02", "物理层"},
		{"03", "数据链路层"},
		{"04", "网络层"},
		{"05", "传输层"},
		{"06", "应用层"},
	}},
}

// Valid reports whether g is one of the configured groups.
func (g Group) Valid() bool {
	return g.Rank() != Unranked
}

// Rank returns the display position of g, or Unranked.
func (g Group) Rank() int {
	for i, s := range Subjects {
		if s.Group == g {
			return i
		}
	}
	return Unranked
}

// Subject returns the configured subject for g.
func (g Group) Subject() (Subject, bool) {
	if r := g.Rank(); r != Unranked {
		return Subjects[r], true
	}
	return Subject{}, false
}

// Name returns the display name of g, falling back to the raw code.
func (g Group) Name() string {
	if s, ok := g.Subject(); ok {
		return s.Name
	}
	return string(g)
}

// ChapterRank returns the display position of chapter key within g, or
// Unranked when either the group or the chapter is unknown.
func (g Group) ChapterRank(key string) int {
	s, ok := g.Subject()
	if !ok {
		return Unranked
	}
	for i, c := range s.Chapters {
		if c.Key == key {
			return i
		}
	}
	return Unranked
}

// ChapterName returns the display name of chapter key within g, falling
// back to the raw key.
func (g Group) ChapterName(key string) string {
	if r := g.ChapterRank(key); r != Unranked {
		return Subjects[g.Rank()].Chapters[r].Name
	}
	return key
}

// Kind is the question type.
type Kind string

// Question kinds.
const (
	KindSingleChoice Kind = "single_choice"
	KindApplication  Kind = "application"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSingleChoice, KindApplication:
		return true
	}
	return false
}

// Label returns the display label of k.
func (k Kind) Label() string {
	switch k {
	case KindSingleChoice:
		return "单选题"
	case KindApplication:
		return "应用题"
	}
	return string(k)
}

// Status is the publication state of a record.
type Status string

// Record statuses.
const (
	StatusDraft      Status = "draft"
	StatusPublished  Status = "published"
	StatusDeprecated Status = "deprecated"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusDeprecated:
		return true
	}
	return false
}
