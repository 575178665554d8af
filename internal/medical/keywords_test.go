package medical

import (
	"reflect"
	"testing"
)

func TestKeywordsDropsFiller(t *testing.T) {
	got := Keywords("I have a headache and feel tired", 3)
	want := []string{"headache", "tired"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}

func TestKeywordsCap(t *testing.T) {
	got := Keywords("fever chills cough fatigue nausea", 3)
	if len(got) != 3 {
		t.Fatalf("Keywords returned %d entries, want 3", len(got))
	}
	want := []string{"fever", "chills", "cough"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}

func TestKeywordsNoCap(t *testing.T) {
	got := Keywords("fever chills cough", 0)
	if len(got) != 3 {
		t.Errorf("Keywords with no cap returned %d entries, want 3", len(got))
	}
}

func TestKeywordsPunctuationAndCase(t *testing.T) {
	got := Keywords("What does Tachycardia mean?", 0)
	found := false
	for _, kw := range got {
		if kw == "tachycardia" {
			found = true
		}
	}
	if !found {
		t.Errorf("Keywords = %v, missing %q", got, "tachycardia")
	}
}

func TestKeywordsEmptyInput(t *testing.T) {
	if got := Keywords("", 3); len(got) != 0 {
		t.Errorf("Keywords on empty input = %v", got)
	}
	if got := Keywords("I have a", 3); len(got) != 0 {
		t.Errorf("Keywords on all-filler input = %v", got)
	}
}
