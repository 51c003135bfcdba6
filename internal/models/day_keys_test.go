package models

import (
	"encoding/json"
	"testing"
)

func TestDayKeysToggle(t *testing.T) {
	d := DayKeys{"2024-01-08"}

	added := d.Toggle("2024-01-09")
	if !added.Has("2024-01-09") || !added.Has("2024-01-08") {
		t.Fatalf("Toggle add = %v", added)
	}
	if d.Has("2024-01-09") {
		t.Error("Toggle must not mutate the receiver")
	}

	removed := added.Toggle("2024-01-08")
	if removed.Has("2024-01-08") || len(removed) != 1 {
		t.Errorf("Toggle remove = %v", removed)
	}
}

func TestDayKeysScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty_array", "{}", []string{}},
		{"postgres_text", "{2024-01-08,2024-01-09}", []string{"2024-01-08", "2024-01-09"}},
		{"quoted_bytes", []byte(`{"2024-01-08"}`), []string{"2024-01-08"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DayKeys
			if err := d.Scan(tt.src); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if len(d) != len(tt.want) {
				t.Fatalf("Scan = %v, want %v", d, tt.want)
			}
			for i := range d {
				if d[i] != tt.want[i] {
					t.Errorf("Scan[%d] = %q, want %q", i, d[i], tt.want[i])
				}
			}
		})
	}

	var d DayKeys
	if err := d.Scan(42); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestDayKeysValue(t *testing.T) {
	v, err := DayKeys{"2024-01-08", "2024-01-09"}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != `{"2024-01-08","2024-01-09"}` {
		t.Errorf("Value = %v", v)
	}
}

func TestDayKeysMarshalNil(t *testing.T) {
	b, err := json.Marshal(Period{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if days, ok := raw["days_marked_done"].([]any); !ok || len(days) != 0 {
		t.Errorf("days_marked_done = %v, want []", raw["days_marked_done"])
	}
}

func TestPeriodClone(t *testing.T) {
	spent := int64(100)
	p := &Period{DaysMarkedDone: DayKeys{"2024-01-08"}, TotalSpentCents: &spent, Expenses: []Expense{{AmountCents: 1}}}
	c := p.Clone()
	c.DaysMarkedDone[0] = "changed"
	*c.TotalSpentCents = 5
	c.Expenses[0].AmountCents = 9

	if p.DaysMarkedDone[0] != "2024-01-08" || *p.TotalSpentCents != 100 || p.Expenses[0].AmountCents != 1 {
		t.Error("Clone shares state with the original")
	}
	if (*Period)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
