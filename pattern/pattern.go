// Package pattern implements the ASCII step-notation parser used by the
// beatlab modules. A pattern is a handful of lines, one instrument each:
//
//	tempo: 120
//	# four on the floor
//	kick:  x...x...x...x...
//	snare: ....x.......x...
//	hihat: x.x.x.x.x.x.x.x.
//
// 'x' (or 'X') is a hit, '.' (or '-') a rest; spaces inside the grid are
// ignored so steps can be grouped visually. The orchestration core treats
// this package as a black box: Validate before Parse, Parse only on
// success.
package pattern

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tempo bounds accepted by the parser.
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

var (
	ErrEmptyPattern   = errors.New("pattern has no instrument lines")
	ErrInvalidTempo   = errors.New("invalid tempo")
	ErrInvalidStep    = errors.New("invalid step character")
	ErrEmptyTrack     = errors.New("instrument line has no steps")
	ErrNotParseable   = errors.New("pattern does not validate")
	ErrUnknownTrack   = errors.New("instrument not present in pattern")
	ErrStepOutOfRange = errors.New("step index out of range")
)

// knownInstruments is the vocabulary the validator recognizes. Unknown
// names still parse but are reported as warnings.
var knownInstruments = map[string]bool{
	"kick":    true,
	"snare":   true,
	"hihat":   true,
	"clap":    true,
	"tom":     true,
	"rim":     true,
	"cowbell": true,
	"crash":   true,
}

// Track is one instrument's ordered step sequence.
type Track struct {
	Steps []bool `json:"steps"`
}

// Pattern is the validated structured representation of a text pattern.
type Pattern struct {
	Tempo       int              `json:"tempo"`
	TotalSteps  int              `json:"totalSteps"`
	Instruments map[string]Track `json:"instruments"`
}

// Validation is the result of checking a text pattern without building
// the structured form.
type Validation struct {
	IsValid            bool     `json:"isValid"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
	ValidInstruments   []string `json:"validInstruments"`
	InvalidInstruments []string `json:"invalidInstruments"`
}

// Clone returns a deep copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	out := &Pattern{
		Tempo:       p.Tempo,
		TotalSteps:  p.TotalSteps,
		Instruments: make(map[string]Track, len(p.Instruments)),
	}
	for name, track := range p.Instruments {
		steps := make([]bool, len(track.Steps))
		copy(steps, track.Steps)
		out.Instruments[name] = Track{Steps: steps}
	}
	return out
}

// Toggle flips one step of one instrument in place.
func (p *Pattern) Toggle(instrument string, step int) error {
	track, ok := p.Instruments[instrument]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrack, instrument)
	}
	if step < 0 || step >= len(track.Steps) {
		return fmt.Errorf("%w: %d (track has %d)", ErrStepOutOfRange, step, len(track.Steps))
	}
	track.Steps[step] = !track.Steps[step]
	return nil
}

// ActiveSteps counts the hits across all instruments.
func (p *Pattern) ActiveSteps() int {
	n := 0
	for _, track := range p.Instruments {
		for _, on := range track.Steps {
			if on {
				n++
			}
		}
	}
	return n
}

// Complexity is the fraction of grid cells that are hits, in [0, 1].
func (p *Pattern) Complexity() float64 {
	cells := 0
	for _, track := range p.Instruments {
		cells += len(track.Steps)
	}
	if cells == 0 {
		return 0
	}
	return float64(p.ActiveSteps()) / float64(cells)
}

// Validate checks the text form and reports every problem found. It
// never returns an error: malformed input is reported through the
// Errors list and IsValid.
func Validate(text string) Validation {
	v := Validation{
		Errors:             []string{},
		Warnings:           []string{},
		ValidInstruments:   []string{},
		InvalidInstruments: []string{},
	}

	seen := map[string]bool{}
	trackLengths := map[string]int{}

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			v.Errors = append(v.Errors, fmt.Sprintf("line %d: missing ':' separator", lineNo+1))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if key == "tempo" {
			if _, err := parseTempo(value); err != nil {
				v.Errors = append(v.Errors, fmt.Sprintf("line %d: %v", lineNo+1, err))
			}
			continue
		}

		if seen[key] {
			v.Errors = append(v.Errors, fmt.Sprintf("line %d: duplicate instrument %q", lineNo+1, key))
			continue
		}
		seen[key] = true

		steps, err := parseSteps(value)
		if err != nil {
			v.Errors = append(v.Errors, fmt.Sprintf("line %d: %v", lineNo+1, err))
			continue
		}
		trackLengths[key] = len(steps)

		if knownInstruments[key] {
			v.ValidInstruments = append(v.ValidInstruments, key)
		} else {
			v.InvalidInstruments = append(v.InvalidInstruments, key)
			v.Warnings = append(v.Warnings, fmt.Sprintf("line %d: unknown instrument %q", lineNo+1, key))
		}
	}

	if len(seen) == 0 {
		v.Errors = append(v.Errors, ErrEmptyPattern.Error())
	}
	if uneven(trackLengths) {
		v.Warnings = append(v.Warnings, "instrument lines have different lengths; shorter tracks are padded with rests")
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// Parse builds the structured pattern from the text form. Input that does
// not validate returns ErrNotParseable with the first validation error.
// Unknown instrument names parse normally; they are a warning, not an
// error.
func Parse(text string) (*Pattern, error) {
	if v := Validate(text); !v.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrNotParseable, v.Errors[0])
	}

	p := &Pattern{
		Tempo:       DefaultTempo,
		Instruments: make(map[string]Track),
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if key == "tempo" {
			tempo, err := parseTempo(value)
			if err != nil {
				return nil, err
			}
			p.Tempo = tempo
			continue
		}

		steps, err := parseSteps(value)
		if err != nil {
			return nil, err
		}
		p.Instruments[key] = Track{Steps: steps}
		if len(steps) > p.TotalSteps {
			p.TotalSteps = len(steps)
		}
	}

	// Pad shorter tracks so every instrument spans the full grid.
	for name, track := range p.Instruments {
		if len(track.Steps) < p.TotalSteps {
			padded := make([]bool, p.TotalSteps)
			copy(padded, track.Steps)
			p.Instruments[name] = Track{Steps: padded}
		}
	}

	return p, nil
}

// Format serializes a pattern back to its text form: a tempo line
// followed by one line per instrument in alphabetical order. The output
// re-parses to a structurally equal pattern.
func Format(p *Pattern) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tempo: %d\n", p.Tempo)

	names := make([]string, 0, len(p.Instruments))
	width := 0
	for name := range p.Instruments {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(strings.Repeat(" ", width-len(name)+1))
		for _, on := range p.Instruments[name].Steps {
			if on {
				sb.WriteByte('x')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func parseTempo(value string) (int, error) {
	tempo, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTempo, value)
	}
	if tempo < MinTempo || tempo > MaxTempo {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidTempo, tempo, MinTempo, MaxTempo)
	}
	return tempo, nil
}

func parseSteps(value string) ([]bool, error) {
	var steps []bool
	for _, r := range value {
		switch r {
		case 'x', 'X':
			steps = append(steps, true)
		case '.', '-':
			steps = append(steps, false)
		case ' ', '\t', '|':
			// grouping only
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidStep, r)
		}
	}
	if len(steps) == 0 {
		return nil, ErrEmptyTrack
	}
	return steps, nil
}

func uneven(lengths map[string]int) bool {
	first := -1
	for _, l := range lengths {
		if first == -1 {
			first = l
			continue
		}
		if l != first {
			return true
		}
	}
	return false
}
