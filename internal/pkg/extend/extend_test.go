package extend

import (
	"testing"
)

func TestGetReturnsAppendedValue(t *testing.T) {
	lists := []List{
		nil,
		{},
		{{Name: "a", Value: "1"}},
		{{Name: "b", Value: "2"}, {Name: "c", Value: "3"}},
	}
	for _, l := range lists {
		got, ok := Get(Append(l, KeyValue{Name: "k", Value: "v"}), "k")
		if !ok || got != "v" {
			t.Errorf("Get(Append(%v, k=v), k) = %q, %v; want v, true", l, got, ok)
		}
	}
}

func TestGetMissingKey(t *testing.T) {
	if v, ok := Get(List{{Name: "a", Value: "1"}}, "b"); ok || v != "" {
		t.Errorf("Get missing = %q, %v; want empty, false", v, ok)
	}
}

func TestDuplicateKeysGetVersusToMap(t *testing.T) {
	l := List{
		{Name: "id", Value: "first"},
		{Name: "other", Value: "x"},
		{Name: "id", Value: "last"},
	}

	if v, _ := Get(l, "id"); v != "first" {
		t.Errorf("Get = %q, want first match", v)
	}
	m := ToMap(l)
	if m["id"] != "last" {
		t.Errorf("ToMap[id] = %q, want last occurrence", m["id"])
	}
	if len(m) != 2 {
		t.Errorf("len(ToMap) = %d, want 2", len(m))
	}
}

func TestAppendDoesNotMutateInput(t *testing.T) {
	base := make(List, 1, 4)
	base[0] = KeyValue{Name: "a", Value: "1"}

	one := Append(base, KeyValue{Name: "b", Value: "2"})
	two := Append(base, KeyValue{Name: "c", Value: "3"})

	if len(base) != 1 {
		t.Fatalf("base length changed to %d", len(base))
	}
	if one[1].Name != "b" || two[1].Name != "c" {
		t.Errorf("appends share backing storage: %v %v", one, two)
	}
}

func TestAppendKeepsDuplicates(t *testing.T) {
	l := Append(nil, KeyValue{Name: "a", Value: "1"}, KeyValue{Name: "a", Value: "2"})
	if len(l) != 2 {
		t.Fatalf("len = %d, want 2", len(l))
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    int
		wantErr bool
	}{
		{name: "nil", in: nil, want: 0},
		{name: "empty", in: "", want: 0},
		{name: "null", in: []byte("null"), want: 0},
		{name: "items", in: `[{"name":"a","value":"1"},{"name":"b","value":"2"}]`, want: 2},
		{name: "malformed", in: "{", wantErr: true},
		{name: "unsupported", in: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l List
			err := l.Scan(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(l) != tt.want {
				t.Errorf("len = %d, want %d", len(l), tt.want)
			}
		})
	}
}

func TestValue(t *testing.T) {
	v, err := List(nil).Value()
	if err != nil || v != "[]" {
		t.Errorf("nil Value = %v, %v", v, err)
	}
	v, err = List{{Name: "a", Value: "1"}}.Value()
	if err != nil {
		t.Fatal(err)
	}
	var back List
	if err := back.Scan(v); err != nil {
		t.Fatal(err)
	}
	if got, _ := Get(back, "a"); got != "1" {
		t.Errorf("Scan(Value()) lost entry, got %q", got)
	}
}
