package domain

import "strings"

// NoteTag labels a journal line with the kind of signal it records.
type NoteTag string

const (
	TagProblem NoteTag = "Problem"
	TagNeeds   NoteTag = "Client seeks"
	TagChannel NoteTag = "Channel"
	TagTiming  NoteTag = "Timing"
)

// AllTags lists the tags that count as distinct conversation
// categories for scoring and depth checks.
var AllTags = []NoteTag{TagProblem, TagNeeds, TagChannel, TagTiming}

// Journal is the prospect's qualitative notes: an ordered, append-only
// sequence of lines. A line is never stored twice, which keeps repeated
// extractions from inflating the record.
type Journal struct {
	lines []string
}

// ParseJournal rebuilds a Journal from its stored text form, dropping
// blank lines and duplicates while preserving first-seen order.
func ParseJournal(raw string) Journal {
	var j Journal
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		j.appendLine(line)
	}
	return j
}

// Append adds a tagged line ("Problem: ship times kill us") unless the
// exact line is already present. Reports whether the journal changed.
func (j *Journal) Append(tag NoteTag, text string) bool {
	text = flattenLine(text)
	if text == "" {
		return false
	}
	return j.appendLine(string(tag) + ": " + text)
}

// AppendRaw adds an untagged line with the same dedupe rule.
func (j *Journal) AppendRaw(text string) bool {
	text = flattenLine(text)
	if text == "" {
		return false
	}
	return j.appendLine(text)
}

// flattenLine folds embedded newlines into spaces so a stored entry is
// always one line. Without this, a multi-line note would split apart in
// the persisted text form and defeat the dedupe check after a reload.
func flattenLine(text string) string {
	if strings.ContainsAny(text, "\r\n") {
		text = strings.Join(strings.FieldsFunc(text, func(r rune) bool {
			return r == '\n' || r == '\r'
		}), " ")
	}
	return strings.TrimSpace(text)
}

func (j *Journal) appendLine(line string) bool {
	for _, existing := range j.lines {
		if existing == line {
			return false
		}
	}
	j.lines = append(j.lines, line)
	return true
}

// Contains reports whether the exact line is already in the journal.
func (j Journal) Contains(line string) bool {
	line = strings.TrimSpace(line)
	for _, existing := range j.lines {
		if existing == line {
			return true
		}
	}
	return false
}

// ContainsFold reports whether any line contains the given substring,
// case-insensitively.
func (j Journal) ContainsFold(substr string) bool {
	substr = strings.ToLower(substr)
	for _, line := range j.lines {
		if strings.Contains(strings.ToLower(line), substr) {
			return true
		}
	}
	return false
}

// CountTag returns the number of lines carrying the given tag. Lines
// are deduplicated on append, so this counts unique signals.
func (j Journal) CountTag(tag NoteTag) int {
	prefix := string(tag) + ":"
	n := 0
	for _, line := range j.lines {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

// DistinctTags returns how many of the known categories appear at
// least once.
func (j Journal) DistinctTags() int {
	n := 0
	for _, tag := range AllTags {
		if j.CountTag(tag) > 0 {
			n++
		}
	}
	return n
}

// Lines returns a copy of the journal lines in order.
func (j Journal) Lines() []string {
	out := make([]string, len(j.lines))
	copy(out, j.lines)
	return out
}

// Len is the total character length of the rendered journal.
func (j Journal) Len() int {
	return len(j.String())
}

// IsEmpty reports whether the journal holds no lines.
func (j Journal) IsEmpty() bool {
	return len(j.lines) == 0
}

func (j Journal) String() string {
	return strings.Join(j.lines, "\n")
}
