package catalog

import (
	"errors"
	"testing"
)

func TestRecord_Choices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "all four",
			rec:  Record{Kind: KindSingleChoice, ChoiceA: "a", ChoiceB: "b", ChoiceC: "c", ChoiceD: "d"},
			want: "ABCD",
		},
		{
			name: "gaps keep letters",
			rec:  Record{Kind: KindSingleChoice, ChoiceB: "b", ChoiceD: "d"},
			want: "BD",
		},
		{
			name: "whitespace only is empty",
			rec:  Record{Kind: KindSingleChoice, ChoiceA: "  ", ChoiceC: "c"},
			want: "C",
		},
		{
			name: "none populated",
			rec:  Record{Kind: KindSingleChoice},
			want: "",
		},
		{
			name: "application ignores options",
			rec:  Record{Kind: KindApplication, ChoiceA: "a"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var letters []byte
			for _, c := range tt.rec.Choices() {
				letters = append(letters, c.Letter)
			}
			if string(letters) != tt.want {
				t.Errorf("Choices() letters = %q, want %q", letters, tt.want)
			}
		})
	}
}

func TestRecord_Validate(t *testing.T) {
	t.Parallel()

	valid := Record{
		ID: "DS01000001", Group: GroupDS, Subgroup: "01",
		Kind: KindSingleChoice, Status: StatusDraft, Body: "text",
	}

	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantErr error
	}{
		{"valid", func(r *Record) {}, nil},
		{"no id yet", func(r *Record) { r.ID = "" }, nil},
		{"legacy group accepted", func(r *Record) { r.Group = "XX"; r.ID = "XX01000001" }, nil},
		{"bad kind", func(r *Record) { r.Kind = "essay" }, ErrInvalidKind},
		{"bad status", func(r *Record) { r.Status = "archived" }, ErrInvalidStatus},
		{"empty body", func(r *Record) { r.Body = " \n" }, ErrEmptyBody},
		{"prefix mismatch", func(r *Record) { r.Subgroup = "02" }, ErrIDMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_CheckID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      string
		wantErr bool
	}{
		{"DS01000001", false},
		{"DS01999999", false},
		{"DS0100000x", true},
		{"DS010000001", true},
		{"DS0100001", true},
		{"DS02000001", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			r := Record{ID: tt.id, Group: GroupDS, Subgroup: "01"}
			err := r.CheckID()
			if tt.wantErr != (err != nil) {
				t.Fatalf("CheckID(%q) = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedIdentifier) {
				t.Errorf("CheckID(%q) = %v, want ErrMalformedIdentifier", tt.id, err)
			}
		})
	}
}

func TestRecord_Normalize(t *testing.T) {
	t.Parallel()

	r := Record{Body: "line1\r\nline2\rline3", Explanation: "e\u0301"}
	r.Normalize()
	if r.Body != "line1\nline2\nline3" {
		t.Errorf("Body = %q", r.Body)
	}
	if r.Explanation != "\u00e9" {
		t.Errorf("Explanation = %q, want NFC composed é", r.Explanation)
	}
}

func TestGroup_Lookups(t *testing.T) {
	t.Parallel()

	if GroupDS.Rank() != 0 || GroupCN.Rank() != 3 {
		t.Errorf("ranks = %d, %d", GroupDS.Rank(), GroupCN.Rank())
	}
	if Group("XX").Valid() {
		t.Error("XX should not be valid")
	}
	if got := GroupDS.ChapterName("02"); got != "线性表" {
		t.Errorf("ChapterName(02) = %q", got)
	}
	if got := GroupDS.ChapterName("42"); got != "42" {
		t.Errorf("unknown chapter name = %q, want raw key", got)
	}
	if got := Group("XX").Name(); got != "XX" {
		t.Errorf("unknown group name = %q, want raw code", got)
	}
	if Group("XX").ChapterRank("01") != Unranked {
		t.Error("chapter of unknown group should be unranked")
	}
}
