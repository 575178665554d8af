package medical

import (
	"reflect"
	"testing"
)

var testLexicon = []string{"aspirin", "ibuprofen", "metformin", "lisinopril"}

func TestExtractDrugs(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "two drugs",
			query: "Can I take aspirin with ibuprofen?",
			want:  []string{"aspirin", "ibuprofen"},
		},
		{
			name:  "case insensitive",
			query: "Is Metformin safe with LISINOPRIL?",
			want:  []string{"metformin", "lisinopril"},
		},
		{
			name:  "duplicate mention",
			query: "aspirin aspirin aspirin",
			want:  []string{"aspirin"},
		},
		{
			name:  "no drugs",
			query: "I have a headache",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDrugs(tt.query, testLexicon)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractDrugs(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestDetectEmergency(t *testing.T) {
	keywords := []string{"chest pain", "difficulty breathing", "stroke"}

	tests := []struct {
		query string
		want  bool
	}{
		{"I have severe chest pain and can't breathe", true},
		{"I think I'm having a Stroke", true},
		{"I have a mild headache", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := DetectEmergency(tt.query, keywords); got != tt.want {
			t.Errorf("DetectEmergency(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestDetectEmergencyEmptyKeywords(t *testing.T) {
	if DetectEmergency("chest pain", nil) {
		t.Error("empty keyword list should never detect an emergency")
	}
}
