package model

// JobProgressKey 职业进度主键
type JobProgressKey struct {
	PerformerID int64
	JobID       int64
}

// Mutation 一次动作需要原子写入的全部变更
type Mutation struct {
	// Performers 需要整体覆盖的表演者（基础字段、账本、职业关联、成就）
	Performers []*Performer
	// UpsertProgress 新建或更新的职业进度
	UpsertProgress []*JobProgress
	// DeleteProgress 需要删除的职业进度
	DeleteProgress []JobProgressKey
}

// Empty 是否没有任何变更
func (m *Mutation) Empty() bool {
	return m == nil || (len(m.Performers) == 0 && len(m.UpsertProgress) == 0 && len(m.DeleteProgress) == 0)
}

// PerformerIDs 受影响的表演者 ID（去重，保持顺序）
func (m *Mutation) PerformerIDs() []int64 {
	if m == nil {
		return nil
	}
	seen := make(map[int64]bool, len(m.Performers))
	ids := make([]int64, 0, len(m.Performers))
	for _, p := range m.Performers {
		if !seen[p.ID] {
			seen[p.ID] = true
			ids = append(ids, p.ID)
		}
	}
	return ids
}
