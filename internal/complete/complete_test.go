package complete

import (
	"reflect"
	"testing"
)

func TestComplete_Prefix(t *testing.T) {
	p := NewProvider()

	got := p.Complete("imp")
	want := []string{"import"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Complete(\"imp\") = %v, want %v", got, want)
	}
}

func TestComplete_NoMatch(t *testing.T) {
	p := NewProvider()

	if got := p.Complete("xyz"); len(got) != 0 {
		t.Errorf("Complete(\"xyz\") = %v, want empty", got)
	}
}

func TestComplete_EmptyPrefixReturnsAll(t *testing.T) {
	p := NewProvider()

	got := p.Complete("")
	if len(got) != len(Keywords()) {
		t.Errorf("expected %d keywords, got %d", len(Keywords()), len(got))
	}
}

func TestComplete_Sorted(t *testing.T) {
	p := NewProvider()

	got := p.Complete("")
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Errorf("results not sorted: %v", got)
			break
		}
	}
}

func TestCompleteLine_TriggersOnlyAfterMarker(t *testing.T) {
	p := NewProvider()

	if got := p.CompleteLine(":imp"); !reflect.DeepEqual(got, []string{"import"}) {
		t.Errorf("CompleteLine(\":imp\") = %v, want [import]", got)
	}

	// No marker: never triggers.
	if got := p.CompleteLine("imp"); got != nil {
		t.Errorf("CompleteLine(\"imp\") = %v, want nil", got)
	}

	// Past the keyword position: never triggers.
	if got := p.CompleteLine(":import f"); got != nil {
		t.Errorf("CompleteLine(\":import f\") = %v, want nil", got)
	}
}

func TestSeed_AddsHistoryCandidates(t *testing.T) {
	p := NewProvider()
	p.Seed([]string{"imports.List()", "import", ""})

	got := p.Complete("imports")
	want := []string{"imports.List()"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Complete(\"imports\") = %v, want %v", got, want)
	}

	// Seeding the built-in keyword again must not duplicate it.
	if got := p.Complete("import"); len(got) != 2 {
		t.Errorf("expected [import imports.List()], got %v", got)
	}
}
