package validator

import "testing"

type incident struct {
	Kind string `json:"kind" validate:"required,kind"`
}

func TestRegisterStringSet(t *testing.T) {
	v := New()
	v.MustRegisterStringSet("kind", func(s string) bool { return s == "burn" || s == "stroke" })

	tests := []struct {
		name    string
		kind    string
		wantTag string
	}{
		{name: "known value", kind: "burn"},
		{name: "unknown value", kind: "teleport", wantTag: "kind"},
		{name: "empty left to required", kind: "", wantTag: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(incident{Kind: tt.kind})
			if tt.wantTag == "" {
				if len(errs) != 0 {
					t.Fatalf("Validate() = %+v, want no errors", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Tag != tt.wantTag || errs[0].Field != "kind" {
				t.Errorf("Validate() = %+v, want one %q error on kind", errs, tt.wantTag)
			}
		})
	}
}

func TestMustRegisterStringSet_PanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegisterStringSet() with empty tag did not panic")
		}
	}()
	New().MustRegisterStringSet("", func(string) bool { return true })
}
