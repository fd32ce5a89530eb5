package beatlab

import (
	"time"

	"github.com/beatlab/beatlab/pattern"
)

// ModuleData is the closed sum of variant-specific module payloads.
// Consumers dispatch on the concrete type:
//
//	switch d := m.Data().(type) {
//	case beatlab.AudioData:
//		...
//	}
type ModuleData interface {
	isModuleData()
}

// EditorData is the Editor module's payload: the raw content, the result
// of the last validation, and the last successfully parsed pattern.
type EditorData struct {
	Content    string             `json:"content"`
	Validation pattern.Validation `json:"validation"`
	Pattern    *pattern.Pattern   `json:"pattern,omitempty"`
}

func (EditorData) isModuleData() {}

// AudioData is the Audio module's payload: the pattern currently loaded
// into the engine and the playback state.
type AudioData struct {
	Pattern *pattern.Pattern `json:"pattern,omitempty"`
	Playing bool             `json:"isPlaying"`
	Tempo   int              `json:"tempo"`
	Step    int              `json:"currentStep"`
}

func (AudioData) isModuleData() {}

// Exchange is one prompt/reply pair in the assistant's history.
type Exchange struct {
	Prompt string    `json:"prompt"`
	Reply  string    `json:"reply"`
	At     time.Time `json:"at"`
}

// AssistantData is the AI assistant module's payload.
type AssistantData struct {
	History []Exchange `json:"history"`
}

func (AssistantData) isModuleData() {}

// RecordMetadata carries the derived attributes of a saved pattern.
type RecordMetadata struct {
	Tempo      int       `json:"tempo"`
	Complexity float64   `json:"complexity"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PatternRecord is the persisted pattern format owned by the library
// module. Records are stored as an ordered JSON sequence under a fixed
// store key; timestamps serialize as RFC 3339 and come back as time.Time.
type PatternRecord struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Content  string           `json:"content"`
	Pattern  *pattern.Pattern `json:"pattern,omitempty"`
	Metadata RecordMetadata   `json:"metadata"`
}

// LibraryData is the pattern library module's payload.
type LibraryData struct {
	Entries []PatternRecord `json:"entries"`
}

func (LibraryData) isModuleData() {}

// DataUpdate is the closed sum of updates a module can receive through
// UpdateData. Each variant handles the updates it understands and records
// an error for the ones it does not.
type DataUpdate interface {
	isDataUpdate()
}

// ContentUpdate replaces the editor's raw content. The editor validates
// it, parses it on success, and propagates the parsed pattern to the
// audio module.
type ContentUpdate struct {
	Content string
}

func (ContentUpdate) isDataUpdate() {}

// StepToggleUpdate flips a single step of one instrument in the editor's
// current content. The content round-trips through parse -> toggle ->
// format, leaving every untouched field as it was.
type StepToggleUpdate struct {
	Instrument string
	Step       int
}

func (StepToggleUpdate) isDataUpdate() {}

// PatternUpdate pushes a parsed pattern into the audio module. Source
// names the module that produced it, for logging only.
type PatternUpdate struct {
	Pattern *pattern.Pattern
	Source  string
}

func (PatternUpdate) isDataUpdate() {}

// PlaybackUpdate starts or stops audio playback. A Tempo of zero leaves
// the current tempo unchanged.
type PlaybackUpdate struct {
	Playing bool
	Tempo   int
}

func (PlaybackUpdate) isDataUpdate() {}

// PromptUpdate sends a prompt to the assistant module.
type PromptUpdate struct {
	Prompt string
}

func (PromptUpdate) isDataUpdate() {}

// SaveUpdate stores the given content as a named entry in the pattern
// library.
type SaveUpdate struct {
	Name    string
	Content string
	Tags    []string
}

func (SaveUpdate) isDataUpdate() {}

// RemoveUpdate deletes a library entry by id.
type RemoveUpdate struct {
	ID string
}

func (RemoveUpdate) isDataUpdate() {}
