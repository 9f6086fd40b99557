package workbook

import (
	"errors"
	"testing"
)

func TestLayoutSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		layout  LayoutSettings
		wantErr error
	}{
		{"default", DefaultLayout(), nil},
		{"upper case size", LayoutSettings{Size: "A4", Margin: 1}, nil},
		{"min margin", LayoutSettings{Size: "letter", Margin: MinMargin}, nil},
		{"max margin", LayoutSettings{Size: "legal", Margin: MaxMargin}, nil},
		{"unknown size", LayoutSettings{Size: "a3", Margin: 1}, ErrInvalidPageSize},
		{"empty size", LayoutSettings{Margin: 1}, ErrInvalidPageSize},
		{"margin too small", LayoutSettings{Size: "a4", Margin: 0.1}, ErrInvalidMargin},
		{"margin too large", LayoutSettings{Size: "a4", Margin: 3.5}, ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.layout.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLayoutSettings_DimensionsFallback(t *testing.T) {
	t.Parallel()

	w, h := LayoutSettings{Size: "tabloid"}.Dimensions()
	if w != 8.27 || h != 11.69 {
		t.Errorf("Dimensions() = %v x %v, want A4", w, h)
	}
}
