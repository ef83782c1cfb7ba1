package dragdrop

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/docdesigner/pkg/template"
)

// listTarget is a minimal layout that applies drops the way the store does.
type listTarget struct {
	items []string
	calls int
	panic bool
}

func (l *listTarget) AddModule(kind string, index int) (template.Module, bool) {
	l.calls++
	if l.panic {
		panic("boom")
	}
	if index >= 0 && index < len(l.items) {
		l.items = slices.Insert(l.items, index, kind)
	} else {
		l.items = append(l.items, kind)
	}
	return template.Module{ID: kind, Type: kind}, true
}

func (l *listTarget) ReorderModules(from, to int) bool {
	l.calls++
	if l.panic {
		panic("boom")
	}
	if from < 0 || from >= len(l.items) || to < 0 || from == to {
		return false
	}
	m := l.items[from]
	rest := slices.Delete(slices.Clone(l.items), from, from+1)
	to = min(to, len(rest))
	l.items = slices.Insert(rest, to, m)
	return true
}

func (l *listTarget) String() string { return strings.Join(l.items, ",") }

func abcd() *listTarget { return &listTarget{items: []string{"A", "B", "C", "D"}} }

func TestResolve(t *testing.T) {
	tests := []struct {
		from, zone int
		to         int
		move       bool
	}{
		{0, 0, 0, false},
		{0, 1, 0, false},
		{0, 2, 1, true},
		{0, 3, 2, true},
		{0, 4, 3, true},
		{2, 2, 2, false},
		{2, 3, 2, false},
		{2, 0, 0, true},
		{2, 1, 1, true},
		{3, 0, 0, true},
		{-1, 2, -1, false},
		{1, -1, 1, false},
	}
	for _, tt := range tests {
		to, move := Resolve(tt.from, tt.zone)
		if to != tt.to || move != tt.move {
			t.Errorf("Resolve(%d, %d) = %d, %v; want %d, %v", tt.from, tt.zone, to, move, tt.to, tt.move)
		}
	}
}

func TestDropMoveEveryZone(t *testing.T) {
	// Expected layout after dragging the module at from onto each zone 0..4.
	want := map[int][]string{
		0: {"A,B,C,D", "A,B,C,D", "B,A,C,D", "B,C,A,D", "B,C,D,A"},
		1: {"B,A,C,D", "A,B,C,D", "A,B,C,D", "A,C,B,D", "A,C,D,B"},
		2: {"C,A,B,D", "A,C,B,D", "A,B,C,D", "A,B,C,D", "A,B,D,C"},
		3: {"D,A,B,C", "A,D,B,C", "A,B,D,C", "A,B,C,D", "A,B,C,D"},
	}
	for from, zones := range want {
		for zone, exp := range zones {
			tgt := abcd()
			s := New(tgt)
			if err := s.StartMove(from); err != nil {
				t.Fatal(err)
			}
			s.Drop(zone)
			if got := tgt.String(); got != exp {
				t.Errorf("from %d zone %d: got %s, want %s", from, zone, got, exp)
			}
		}
	}
}

func TestSelfDropDoesNotCallTarget(t *testing.T) {
	for _, zone := range []int{1, 2} {
		tgt := abcd()
		s := New(tgt)
		_ = s.StartMove(1)
		res := s.Drop(zone)
		if res.Applied || tgt.calls != 0 {
			t.Errorf("zone %d: applied=%v calls=%d", zone, res.Applied, tgt.calls)
		}
		if s.Dragging() {
			t.Errorf("zone %d: session still dragging", zone)
		}
	}
}

func TestDropNewInsertsAtZone(t *testing.T) {
	tgt := abcd()
	s := New(tgt)
	if err := s.StartNew("X"); err != nil {
		t.Fatal(err)
	}
	res := s.Drop(2)
	if !res.Applied || res.ModuleID != "X" {
		t.Errorf("result = %+v", res)
	}
	if got := tgt.String(); got != "A,B,X,C,D" {
		t.Errorf("layout = %s", got)
	}

	_ = s.StartNew("Y")
	s.Drop(5)
	if got := tgt.String(); got != "A,B,X,C,D,Y" {
		t.Errorf("drop on last zone should append, got %s", got)
	}
}

func TestStateTransitions(t *testing.T) {
	var seen []State
	var zones []int
	s := New(abcd(), WithObserver(func(st Status) {
		seen = append(seen, st.State)
		zones = append(zones, st.Zone)
	}))

	s.Hover(2)
	if s.Status().Zone != NoZone {
		t.Error("hover while idle should be ignored")
	}

	_ = s.StartMove(0)
	s.Hover(3)
	if st := s.Status(); st.State != Dragging || st.Zone != 3 {
		t.Errorf("status = %+v", st)
	}
	s.Leave()
	if s.Status().Zone != NoZone {
		t.Error("leave should clear the highlight")
	}
	s.Hover(3)
	s.Drop(3)

	if st := s.Status(); st.State != Idle || st.Zone != NoZone {
		t.Errorf("after drop = %+v", st)
	}
	if !slices.Contains(seen, Dropped) || seen[len(seen)-1] != Idle {
		t.Errorf("states = %v", seen)
	}
	if zones[len(zones)-1] != NoZone {
		t.Errorf("final zone = %d", zones[len(zones)-1])
	}
}

func TestCancelResets(t *testing.T) {
	tgt := abcd()
	s := New(tgt)
	_ = s.StartNew("X")
	s.Hover(1)
	s.Cancel()
	if st := s.Status(); st.State != Idle || st.Zone != NoZone || st.Source.Kind != "" {
		t.Errorf("after cancel = %+v", st)
	}
	if res := s.Drop(1); res.Applied || tgt.calls != 0 {
		t.Error("drop after cancel should do nothing")
	}
}

func TestResetSurvivesPanic(t *testing.T) {
	tgt := abcd()
	tgt.panic = true
	s := New(tgt)
	_ = s.StartMove(0)
	s.Hover(3)

	func() {
		defer func() { _ = recover() }()
		s.Drop(3)
	}()

	if st := s.Status(); st.State != Idle || st.Zone != NoZone {
		t.Errorf("session stuck after panic: %+v", st)
	}
}

func TestStartValidation(t *testing.T) {
	s := New(abcd())
	if err := s.StartNew(""); err == nil {
		t.Error("empty kind accepted")
	}
	if err := s.StartMove(-1); err == nil {
		t.Error("negative index accepted")
	}
	if s.Dragging() {
		t.Error("rejected start changed state")
	}
}

func TestApply(t *testing.T) {
	tgt := abcd()
	res := Apply(tgt, Existing(0), 3)
	if !res.Applied || res.To != 2 || tgt.String() != "B,C,A,D" {
		t.Errorf("Apply = %+v, layout %s", res, tgt)
	}
	if res := Apply(tgt, Existing(1), -1); res.Applied {
		t.Error("negative zone applied")
	}
}
