package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseKeyMark(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"A", "A", false},
		{"e", "E", false},
		{" c ", "C", false},
		{"N", "N", false},
		{"n", "N", false},
		{"F", "", true},
		{"", "", true},
		{"AB", "", true},
		{"-", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyMark(tt.in)
			if tt.wantErr {
				var ime *InvalidMarkError
				if !errors.As(err, &ime) {
					t.Fatalf("ParseKeyMark(%q) err = %v, want InvalidMarkError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKeyMark(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseKeyMark(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAnswerIsLenient(t *testing.T) {
	tests := []struct {
		in        string
		wantBlank bool
		want      string
	}{
		{"A", false, "A"},
		{"d", false, "D"},
		{"", true, ""},
		{"-", true, ""},
		{"N", true, ""},
		{"X", true, ""},
		{"AB", true, ""},
	}

	for _, tt := range tests {
		got := ParseAnswer(tt.in)
		if got.IsBlank() != tt.wantBlank {
			t.Errorf("ParseAnswer(%q).IsBlank() = %v, want %v", tt.in, got.IsBlank(), tt.wantBlank)
		}
		if got.String() != tt.want {
			t.Errorf("ParseAnswer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestZeroValues(t *testing.T) {
	var k KeyMark
	if !k.IsVoid() {
		t.Error("zero KeyMark should be void")
	}
	var a Answer
	if !a.IsBlank() {
		t.Error("zero Answer should be blank")
	}
	for _, m := range VoidMarks(3) {
		if !m.IsVoid() {
			t.Fatal("VoidMarks should only hold void marks")
		}
	}
}

func TestCompactEncoding(t *testing.T) {
	marks, err := ParseKeyMarks("ABNCE")
	if err != nil {
		t.Fatalf("ParseKeyMarks: %v", err)
	}
	if len(marks) != 5 || !marks[2].IsVoid() {
		t.Fatalf("unexpected marks %v", marks)
	}
	if marks.String() != "ABNCE" {
		t.Errorf("KeyMarks.String() = %q", marks.String())
	}

	if _, err := ParseKeyMarks("AZ"); err == nil {
		t.Error("expected error for invalid key string")
	}

	answers := ParseAnswers("A-*d")
	if got := answers.String(); got != "A--D" {
		t.Errorf("Answers.String() = %q, want %q", got, "A--D")
	}
}

func TestMarksJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Key     KeyMarks `json:"key"`
		Answers Answers  `json:"answers"`
	}{
		Key:     KeyMarks{KeyChoice(ChoiceA), Void},
		Answers: Answers{Blank, AnswerChoice(ChoiceC)},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"key":["A","N"],"answers":["","C"]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var in struct {
		Key KeyMarks `json:"key"`
	}
	err = json.Unmarshal([]byte(`{"key":["A","Q"]}`), &in)
	var ime *InvalidMarkError
	if !errors.As(err, &ime) {
		t.Errorf("Unmarshal invalid key: err = %v, want InvalidMarkError", err)
	}
	err = json.Unmarshal([]byte(`{"key":"AQ"}`), &in)
	if !errors.As(err, &ime) {
		t.Errorf("Unmarshal invalid compact key: err = %v, want InvalidMarkError", err)
	}
}

func TestMarksJSONAcceptsBothForms(t *testing.T) {
	tests := []struct {
		name, input, key, answers string
	}{
		{"arrays", `{"key":["A","N","c"],"answers":["","C","x"]}`, "ANC", "-C-"},
		{"compact", `{"key":"anc","answers":"-C*"}`, "ANC", "-C-"},
		{"empty", `{"key":"","answers":[]}`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in struct {
				Key     KeyMarks `json:"key"`
				Answers Answers  `json:"answers"`
			}
			if err := json.Unmarshal([]byte(tt.input), &in); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got := in.Key.String(); got != tt.key {
				t.Errorf("key = %q, want %q", got, tt.key)
			}
			if got := in.Answers.String(); got != tt.answers {
				t.Errorf("answers = %q, want %q", got, tt.answers)
			}
		})
	}

	// What the API writes decodes back to the same sequences.
	key, _ := ParseKeyMarks("ANC")
	out, err := json.Marshal(struct {
		Key     KeyMarks `json:"key"`
		Answers Answers  `json:"answers"`
	}{key, ParseAnswers("A-C")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back struct {
		Key     KeyMarks `json:"key"`
		Answers Answers  `json:"answers"`
	}
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Key.String() != "ANC" || back.Answers.String() != "A-C" {
		t.Errorf("round trip = %q %q", back.Key.String(), back.Answers.String())
	}
}

func TestMarksScan(t *testing.T) {
	var ms KeyMarks
	if err := ms.Scan([]byte("BN")); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if ms.String() != "BN" {
		t.Errorf("scanned %q", ms.String())
	}

	var as Answers
	if err := as.Scan("C-"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(as) != 2 || !as[1].IsBlank() {
		t.Errorf("scanned %v", as)
	}

	if err := as.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
