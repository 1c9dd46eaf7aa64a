package component

import (
	"fmt"
	"sort"

	"github.com/hexcolony/server/internal/core/ecs"
	"github.com/hexcolony/server/internal/data"
	"github.com/hexcolony/server/internal/hex"
)

type FlowStatus int

const (
	FlowNone FlowStatus = iota
	FlowMoving
	FlowMovingDone
	FlowWorking
	FlowFinished
	FlowCanceled
)

func (s FlowStatus) String() string {
	switch s {
	case FlowNone:
		return "None"
	case FlowMoving:
		return "Moving"
	case FlowMovingDone:
		return "MovingDone"
	case FlowWorking:
		return "Working"
	case FlowFinished:
		return "Finished"
	case FlowCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("FlowStatus(%d)", int(s))
	}
}

// WorkFlowRecord is one monster's go-to-building-and-work intent.
type WorkFlowRecord struct {
	AvatarID   ecs.EntityID `json:"avatarId"`
	SpaceID    ecs.EntityID `json:"spaceId"`
	MonsterID  ecs.EntityID `json:"monsterId"`
	BuildingID ecs.EntityID `json:"buildingId"`
	Target     hex.Coord    `json:"target"`
	WorkType   string       `json:"workType"`
	Status     FlowStatus   `json:"status"`
	PrevStatus FlowStatus   `json:"prevStatus"`
	NavVersion uint64       `json:"navVersion"`
}

// WorkFlows stores the flow records of one space keyed by monster id.
type WorkFlows struct {
	ecs.Base
	Records map[ecs.EntityID]*WorkFlowRecord `json:"records"`
}

func (f *WorkFlows) Get(monster ecs.EntityID) (*WorkFlowRecord, bool) {
	r, ok := f.Records[monster]
	return r, ok
}

// Put adds a record; false when the monster already has a flow.
func (f *WorkFlows) Put(r *WorkFlowRecord) bool {
	if _, ok := f.Records[r.MonsterID]; ok {
		return false
	}
	if f.Records == nil {
		f.Records = make(map[ecs.EntityID]*WorkFlowRecord)
	}
	f.Records[r.MonsterID] = r
	f.MarkDirty()
	return true
}

func (f *WorkFlows) SetStatus(r *WorkFlowRecord, s FlowStatus) {
	if r.Status == s {
		return
	}
	r.PrevStatus = r.Status
	r.Status = s
	f.MarkDirty()
}

func (f *WorkFlows) Delete(monster ecs.EntityID) {
	if _, ok := f.Records[monster]; !ok {
		return
	}
	delete(f.Records, monster)
	f.MarkDirty()
}

// Monsters lists flow owners in id order.
func (f *WorkFlows) Monsters() []ecs.EntityID {
	return sortedIDs(f.Records)
}

// ProgressRecord is one running work session.
type ProgressRecord struct {
	MonsterID  ecs.EntityID          `json:"monsterId"`
	AvatarID   ecs.EntityID          `json:"avatarId"`
	SpaceID    ecs.EntityID          `json:"spaceId"`
	BuildingID ecs.EntityID          `json:"buildingId"`
	WorkType   string                `json:"workType"`
	Coord      hex.Coord             `json:"coord"`
	StartTime  int64                 `json:"startTime"`
	EndTime    int64                 `json:"endTime"`
	LastTime   int64                 `json:"lastTime"`
	Progress   float64               `json:"progress"`
	Efficiency float64               `json:"efficiency"`
	Paid       map[data.ItemType]int `json:"paid,omitempty"`
	Created    bool                  `json:"created,omitempty"` // the session placed its building

	Def *data.WorkTemplate `json:"-"`
}

// Done reports whether the session reached full progress.
func (r *ProgressRecord) Done() bool { return r.Progress >= 1 }

// WorkProgress stores the running sessions of one variant keyed by monster id.
// The same type backs the four variant kinds.
type WorkProgress struct {
	ecs.Base
	Variant data.Variant                     `json:"variant"`
	Records map[ecs.EntityID]*ProgressRecord `json:"records"`
}

func NewWorkProgress(v data.Variant) *WorkProgress {
	return &WorkProgress{Variant: v, Records: make(map[ecs.EntityID]*ProgressRecord)}
}

func (p *WorkProgress) Get(monster ecs.EntityID) (*ProgressRecord, bool) {
	r, ok := p.Records[monster]
	return r, ok
}

// Put adds a session; false when the monster already has one of this variant.
func (p *WorkProgress) Put(r *ProgressRecord) bool {
	if _, ok := p.Records[r.MonsterID]; ok {
		return false
	}
	if p.Records == nil {
		p.Records = make(map[ecs.EntityID]*ProgressRecord)
	}
	p.Records[r.MonsterID] = r
	p.MarkDirty()
	return true
}

// Advance moves a session's progress forward; it never decreases.
func (p *WorkProgress) Advance(r *ProgressRecord, now int64, progress float64) {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	r.LastTime = now
	if progress > r.Progress {
		r.Progress = progress
	}
	p.MarkDirty()
}

func (p *WorkProgress) Delete(monster ecs.EntityID) {
	if _, ok := p.Records[monster]; !ok {
		return
	}
	delete(p.Records, monster)
	p.MarkDirty()
}

func (p *WorkProgress) Monsters() []ecs.EntityID {
	return sortedIDs(p.Records)
}

func sortedIDs[V any](m map[ecs.EntityID]V) []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
