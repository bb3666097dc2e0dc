// Package novel implements the human-in-the-loop novel writing
// workflow: director routing, specialist generation steps, the
// writer/editor revision loop, and durable confirmation/review
// suspension points, all driven by the generic graph engine.
package novel

// ChapterStatus is a chapter's lifecycle position. Only the save step
// moves a chapter to DONE, after a successful write cycle.
type ChapterStatus string

const (
	StatusPlanned   ChapterStatus = "PLANNED"
	StatusDrafting  ChapterStatus = "DRAFTING"
	StatusReviewing ChapterStatus = "REVIEWING"
	StatusDone      ChapterStatus = "DONE"
)

// WorldSetting is the worldbuilding artifact produced by the world
// builder step.
type WorldSetting struct {
	Background   string   `json:"background"`
	PowerSystem  string   `json:"power_system,omitempty"`
	Geography    string   `json:"geography,omitempty"`
	Items        []string `json:"items,omitempty"`
	Concepts     []string `json:"concepts,omitempty"`
	CoreConflict string   `json:"core_conflict,omitempty"`
}

// Character is one member of the character roster. Relationships
// reference other character ids; a dangling reference is not an error,
// it is simply unresolved at render time.
type Character struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Role          string            `json:"role"`
	Personality   string            `json:"personality,omitempty"`
	Relationships map[string]string `json:"relationships,omitempty"`
}

// SceneBeat is one planned story beat within a chapter.
type SceneBeat struct {
	Summary string `json:"summary"`
}

// Chapter is one chapter in the outline. Identity is the stable ID;
// list position is presentation order only.
type Chapter struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Summary string        `json:"summary,omitempty"`
	Status  ChapterStatus `json:"status"`
	Beats   []SceneBeat   `json:"beats,omitempty"`
}

// Volume is an ordered group of chapters.
type Volume struct {
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
}

// OutlineTree is the full outline artifact: volumes of chapters of beats.
type OutlineTree struct {
	Title   string   `json:"title,omitempty"`
	Volumes []Volume `json:"volumes"`
}

// Progress is the project's stored writing cursor. ChapterID is the
// primary key for resolving the current chapter; the indices are a
// bounds-checked fallback for records written before ids existed.
type Progress struct {
	ChapterID    string `json:"chapter_id,omitempty"`
	VolumeIndex  int    `json:"volume_index"`
	ChapterIndex int    `json:"chapter_index"`
}

// ChapterCount returns the total number of chapters across volumes.
func (o *OutlineTree) ChapterCount() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, v := range o.Volumes {
		n += len(v.Chapters)
	}
	return n
}

// FindChapter locates a chapter by stable id. Returns the volume and
// chapter indices alongside the chapter, or ok=false.
func (o *OutlineTree) FindChapter(id string) (vi, ci int, ch *Chapter, ok bool) {
	if o == nil || id == "" {
		return 0, 0, nil, false
	}
	for i := range o.Volumes {
		for j := range o.Volumes[i].Chapters {
			if o.Volumes[i].Chapters[j].ID == id {
				return i, j, &o.Volumes[i].Chapters[j], true
			}
		}
	}
	return 0, 0, nil, false
}

// ChapterAt returns the chapter at bounds-checked indices, or ok=false.
func (o *OutlineTree) ChapterAt(vi, ci int) (*Chapter, bool) {
	if o == nil || vi < 0 || vi >= len(o.Volumes) {
		return nil, false
	}
	v := &o.Volumes[vi]
	if ci < 0 || ci >= len(v.Chapters) {
		return nil, false
	}
	return &v.Chapters[ci], true
}

// NextAfter returns the progress pointer for the chapter following
// (vi, ci): the next chapter in the volume, or the first chapter of the
// next volume. ok=false when (vi, ci) is the last chapter.
func (o *OutlineTree) NextAfter(vi, ci int) (Progress, bool) {
	if o == nil || vi < 0 || vi >= len(o.Volumes) {
		return Progress{}, false
	}
	if ci+1 < len(o.Volumes[vi].Chapters) {
		next := o.Volumes[vi].Chapters[ci+1]
		return Progress{ChapterID: next.ID, VolumeIndex: vi, ChapterIndex: ci + 1}, true
	}
	for v := vi + 1; v < len(o.Volumes); v++ {
		if len(o.Volumes[v].Chapters) > 0 {
			next := o.Volumes[v].Chapters[0]
			return Progress{ChapterID: next.ID, VolumeIndex: v, ChapterIndex: 0}, true
		}
	}
	return Progress{}, false
}
