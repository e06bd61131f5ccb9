package edit

import (
	"reflect"
	"slices"
	"testing"

	"github.com/dshills/crustcfg/internal/config/notify"
	"github.com/dshills/crustcfg/internal/document"
)

func sentinelCount(v *document.Value) int {
	n := 0
	for _, c := range v.Comments {
		if c == document.Sentinel {
			n++
		}
	}
	return n
}

func checkInvariant(t *testing.T, v *document.Value) {
	t.Helper()
	if v.Edited != slices.Contains(v.Comments, document.Sentinel) {
		t.Errorf("Edited = %v but comments = %q", v.Edited, v.Comments)
	}
}

func TestTracker_SetValue(t *testing.T) {
	doc := document.Parse("# Tab size.\ninput_tab_size = 8 # unsigned number\n")
	v, _ := doc.Lookup("input_tab_size")

	tr := New(nil)
	tr.SetValue(v, "4")

	if v.Value != "4" {
		t.Errorf("Value = %q, want 4", v.Value)
	}
	if !v.Edited {
		t.Error("expected entry to be edited")
	}
	want := []string{"# Tab size.", document.Sentinel}
	if !reflect.DeepEqual(v.Comments, want) {
		t.Errorf("Comments = %q, want %q", v.Comments, want)
	}
	checkInvariant(t, v)

	// Written back verbatim
	got := document.Serialize(doc)
	wantText := "# Tab size.\n" + document.Sentinel + "\ninput_tab_size = 4 # unsigned number\n"
	if got != wantText {
		t.Errorf("Serialize() = %q, want %q", got, wantText)
	}
}

func TestTracker_SetValueIdempotent(t *testing.T) {
	v := document.NewValue("x", "1", nil, []string{})
	tr := New(nil)

	tr.SetValue(v, "2")
	tr.SetValue(v, "2")

	if !v.Edited {
		t.Error("expected entry to be edited")
	}
	if n := sentinelCount(v); n != 1 {
		t.Errorf("sentinel appears %d times, want 1", n)
	}
	checkInvariant(t, v)
}

func TestTracker_SetEditedSymmetry(t *testing.T) {
	before := []string{"# one", "# two"}
	v := document.NewValue("x", "1", nil, slices.Clone(before))
	tr := New(nil)

	tr.SetEdited(v, true)
	checkInvariant(t, v)
	tr.SetEdited(v, true)
	if n := sentinelCount(v); n != 1 {
		t.Errorf("sentinel appears %d times after double set, want 1", n)
	}

	tr.SetEdited(v, false)
	checkInvariant(t, v)
	if !reflect.DeepEqual(v.Comments, before) {
		t.Errorf("Comments = %q, want %q", v.Comments, before)
	}
}

func TestTracker_ResetRemovesAll(t *testing.T) {
	v := document.NewValue("x", "1", nil, []string{document.Sentinel, "# doc", document.Sentinel})
	if !v.Edited {
		t.Fatal("NewValue should derive Edited from comments")
	}

	New(nil).Reset(v)

	if v.Edited {
		t.Error("expected entry not to be edited")
	}
	if !reflect.DeepEqual(v.Comments, []string{"# doc"}) {
		t.Errorf("Comments = %q, want [# doc]", v.Comments)
	}
}

func TestTracker_Notifications(t *testing.T) {
	n := notify.New()
	defer n.Close()

	var changes []notify.Change
	n.Subscribe(func(c notify.Change) {
		changes = append(changes, c)
	})

	v := document.NewValue("sp_arith", "ignore", nil, nil)
	tr := New(n, WithSource("test"))

	tr.SetValue(v, "add")

	// Delivered synchronously: edited flag first, then the value.
	if len(changes) != 2 {
		t.Fatalf("received %d changes, want 2: %+v", len(changes), changes)
	}
	if changes[0].Type != notify.ChangeEdited || changes[0].Old != "false" || changes[0].New != "true" {
		t.Errorf("first change = %+v, want edited false->true", changes[0])
	}
	c := changes[1]
	if c.Type != notify.ChangeValue || c.Entry != v || c.Old != "ignore" || c.New != "add" || c.Source != "test" {
		t.Errorf("second change = %+v", c)
	}

	changes = nil
	tr.SetValue(v, "add")
	if len(changes) != 1 || changes[0].Type != notify.ChangeValue {
		t.Errorf("repeat SetValue changes = %+v, want one value change", changes)
	}

	changes = nil
	tr.SetEdited(v, true)
	if len(changes) != 0 {
		t.Errorf("SetEdited without change emitted %+v", changes)
	}

	tr.Reset(v)
	if len(changes) != 1 || changes[0].New != "false" {
		t.Errorf("Reset changes = %+v, want one edited change", changes)
	}
}

func TestTracker_ObserverSeesMutation(t *testing.T) {
	n := notify.New()
	defer n.Close()

	v := document.NewValue("x", "1", nil, nil)

	var seen string
	var seenEdited bool
	n.SubscribeName("x", func(c notify.Change) {
		if c.Type == notify.ChangeValue {
			seen = c.Entry.Value
			seenEdited = c.Entry.Edited
		}
	})

	New(n).SetValue(v, "9")

	if seen != "9" || !seenEdited {
		t.Errorf("observer saw value %q edited %v, want 9 true", seen, seenEdited)
	}
}
