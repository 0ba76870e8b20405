package models

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"0", 0, false},
		{"12", 1200, false},
		{"12.5", 1250, false},
		{"12.50", 1250, false},
		{"0.01", 1, false},
		{"33.333", 3333, false},
		{"33.335", 3334, false},
		{"-4.20", -420, false},
		{"abc", 0, true},
		{"100000000000000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmountJSON(t *testing.T) {
	var body struct {
		Total  Amount `json:"total"`
		Quoted Amount `json:"quoted"`
	}
	if err := json.Unmarshal([]byte(`{"total": 300, "quoted": "99.9"}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Total != 30000 || body.Quoted != 9990 {
		t.Fatalf("got total=%d quoted=%d", body.Total, body.Quoted)
	}

	out, err := json.Marshal(map[string]Amount{"a": 10050, "b": 5, "c": -1999})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"a":100.50,"b":0.05,"c":-19.99}`; string(out) != want {
		t.Errorf("marshal = %s, want %s", out, want)
	}

	var bad Amount
	if err := json.Unmarshal([]byte(`true`), &bad); err == nil {
		t.Error("expected error for boolean amount")
	}
}
