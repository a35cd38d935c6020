package model

import (
	"encoding/json"
	"strings"
)

// Choice is one of the answer alternatives printed on the sheet.
type Choice uint8

const (
	ChoiceA Choice = iota + 1
	ChoiceB
	ChoiceC
	ChoiceD
	ChoiceE
)

const choiceLetters = "ABCDE"

func (c Choice) valid() bool {
	return c >= ChoiceA && c <= ChoiceE
}

// String returns the letter for the choice.
func (c Choice) String() string {
	if !c.valid() {
		return "?"
	}
	return string(choiceLetters[c-1])
}

// KeyMark is one position of an answer key: a choice, or Void when the
// question has no correct answer. The zero value is Void.
type KeyMark struct {
	choice Choice
}

// Void marks a question that nobody gets credit for.
var Void = KeyMark{}

// KeyChoice returns the key mark expecting choice c.
func KeyChoice(c Choice) KeyMark {
	return KeyMark{choice: c}
}

// IsVoid reports whether the mark voids its question.
func (k KeyMark) IsVoid() bool {
	return !k.choice.valid()
}

// Choice returns the expected choice and false for a void mark.
func (k KeyMark) Choice() (Choice, bool) {
	if k.IsVoid() {
		return 0, false
	}
	return k.choice, true
}

// String returns "A".."E", or "N" for a void mark.
func (k KeyMark) String() string {
	if k.IsVoid() {
		return "N"
	}
	return k.choice.String()
}

// MarshalText implements encoding.TextMarshaler.
func (k KeyMark) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *KeyMark) UnmarshalText(b []byte) error {
	m, err := ParseKeyMark(string(b))
	if err != nil {
		return err
	}
	*k = m
	return nil
}

// ParseKeyMark parses one of A, B, C, D, E or N (case-insensitive).
func ParseKeyMark(s string) (KeyMark, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "N" {
		return Void, nil
	}
	if len(v) == 1 {
		if i := strings.IndexByte(choiceLetters, v[0]); i >= 0 {
			return KeyChoice(Choice(i + 1)), nil
		}
	}
	return Void, &InvalidMarkError{Value: s}
}

// Answer is what a student marked for one question. The zero value is Blank.
type Answer struct {
	choice Choice
}

// Blank is an unanswered or unreadable position.
var Blank = Answer{}

// AnswerChoice returns the answer for choice c.
func AnswerChoice(c Choice) Answer {
	return Answer{choice: c}
}

// IsBlank reports whether nothing valid was marked.
func (a Answer) IsBlank() bool {
	return !a.choice.valid()
}

// Choice returns the marked choice and false for a blank answer.
func (a Answer) Choice() (Choice, bool) {
	if a.IsBlank() {
		return 0, false
	}
	return a.choice, true
}

// String returns "A".."E", or "" for a blank answer.
func (a Answer) String() string {
	if a.IsBlank() {
		return ""
	}
	return a.choice.String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Answer) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails.
func (a *Answer) UnmarshalText(b []byte) error {
	*a = ParseAnswer(string(b))
	return nil
}

// ParseAnswer reads a single mark. Anything outside A..E is Blank.
func ParseAnswer(s string) Answer {
	v := strings.ToUpper(strings.TrimSpace(s))
	if len(v) == 1 {
		if i := strings.IndexByte(choiceLetters, v[0]); i >= 0 {
			return AnswerChoice(Choice(i + 1))
		}
	}
	return Blank
}

// KeyMarks is an ordered answer key sequence.
type KeyMarks []KeyMark

// String encodes the marks as a compact string such as "ABNCD".
func (ms KeyMarks) String() string {
	var sb strings.Builder
	for _, m := range ms {
		sb.WriteString(m.String())
	}
	return sb.String()
}

// ParseKeyMarks decodes a compact key string.
func ParseKeyMarks(s string) (KeyMarks, error) {
	marks := make(KeyMarks, 0, len(s))
	for _, r := range s {
		m, err := ParseKeyMark(string(r))
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	return marks, nil
}

// UnmarshalJSON accepts the compact string form ("ABN") as well as an array
// of single marks.
func (ms *KeyMarks) UnmarshalJSON(b []byte) error {
	var compact string
	if err := json.Unmarshal(b, &compact); err == nil {
		marks, err := ParseKeyMarks(compact)
		if err != nil {
			return err
		}
		*ms = marks
		return nil
	}
	var marks []KeyMark
	if err := json.Unmarshal(b, &marks); err != nil {
		return err
	}
	*ms = marks
	return nil
}

// VoidMarks returns n void marks.
func VoidMarks(n int) KeyMarks {
	return make(KeyMarks, n)
}

// Answers is an ordered answer sequence.
type Answers []Answer

// blankRune stands for a blank position in the compact encoding.
const blankRune = '-'

// String encodes the answers as a compact string such as "AB-C".
func (as Answers) String() string {
	var sb strings.Builder
	for _, a := range as {
		if a.IsBlank() {
			sb.WriteRune(blankRune)
			continue
		}
		sb.WriteString(a.String())
	}
	return sb.String()
}

// ParseAnswers decodes a compact answer string. Unknown runes are blanks.
func ParseAnswers(s string) Answers {
	answers := make(Answers, 0, len(s))
	for _, r := range s {
		answers = append(answers, ParseAnswer(string(r)))
	}
	return answers
}

// UnmarshalJSON accepts the compact string form ("AB-C") as well as an array
// of single answers.
func (as *Answers) UnmarshalJSON(b []byte) error {
	var compact string
	if err := json.Unmarshal(b, &compact); err == nil {
		*as = ParseAnswers(compact)
		return nil
	}
	var answers []Answer
	if err := json.Unmarshal(b, &answers); err != nil {
		return err
	}
	*as = answers
	return nil
}
