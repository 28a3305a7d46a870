package jsonutil

import (
	"strings"
	"testing"
)

type record struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

func TestUnmarshalStrict(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"name":"test","id":3}`, false},
		{"surrounding whitespace", "\n {\"name\":\"test\"} \n", false},
		{"unknown field", `{"name":"test","nope":true}`, true},
		{"trailing value", `{"name":"test"} {"name":"b"}`, true},
		{"wrong type", `{"id":"three"}`, true},
		{"invalid JSON", `not json`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v record
			err := UnmarshalStrict([]byte(tt.data), &v, "test context")
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && v.Name != "test" {
				t.Errorf("UnmarshalStrict() v.Name = %q, want %q", v.Name, "test")
			}
		})
	}
}

func TestUnmarshalStrict_WrapsContext(t *testing.T) {
	var v record
	err := UnmarshalStrict([]byte(`{`), &v, "import file.json")
	if err == nil || !strings.HasPrefix(err.Error(), "import file.json: ") {
		t.Errorf("expected error prefixed with context, got %v", err)
	}
}

func TestMarshalLine(t *testing.T) {
	got, err := MarshalLine(record{Name: "a", ID: -1})
	if err != nil {
		t.Fatalf("MarshalLine: %v", err)
	}
	if got != `{"name":"a","id":-1}` {
		t.Errorf("MarshalLine() = %q", got)
	}
	if strings.Contains(got, "\n") {
		t.Error("MarshalLine() must not contain newlines")
	}
}

func TestMarshalLine_Unsupported(t *testing.T) {
	if _, err := MarshalLine(make(chan int)); err == nil {
		t.Error("expected error for unsupported type")
	}
}
