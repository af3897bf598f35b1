package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestPrimitivePretty(t *testing.T) {
	cases := []struct {
		kind PrimitiveKind
		want string
	}{
		{Int32, "i32"}, {UInt64, "u64"}, {Float64, "f64"}, {Bool, "bool"}, {Void, "void"},
	}
	for _, c := range cases {
		if got := NewPrimitive(c.kind).Pretty(); got != c.want {
			t.Errorf("Pretty(%v) = %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestMangleDeterminism(t *testing.T) {
	a := NewPrimitive(Int32)
	b := NewPrimitive(Int32)
	if Mangle(a) != Mangle(b) {
		t.Fatalf("Mangle not deterministic across equal primitives")
	}
}

func TestEqualityViaMangle(t *testing.T) {
	p1 := PointerTo(NewPrimitive(Int32), false)
	p2 := PointerTo(NewPrimitive(Int32), false)
	if !Equals(p1, p2) {
		t.Fatalf("expected equal pointer types")
	}
	p3 := PointerTo(NewPrimitive(Int32), true)
	if Equals(p1, p3) {
		t.Fatalf("mutable and const pointers should not be equal")
	}
}

func TestAliasTransparentInComparison(t *testing.T) {
	base := NewPrimitive(Int64)
	alias := &Alias{Name: "MyInt", Base: base}
	if !Equals(alias, base) {
		t.Fatalf("alias should compare equal to its base")
	}
}

func TestReferenceNeverNests(t *testing.T) {
	r1 := ReferenceTo(NewPrimitive(Int32), false)
	r2 := ReferenceTo(r1, true)
	if r2 != r1 {
		t.Fatalf("ReferenceTo(Reference) should collapse, got a new wrapper")
	}
}

func TestDereferenceRoundTrip(t *testing.T) {
	base := NewPrimitive(Float32)
	ref := ReferenceTo(base, false)
	got := Dereference(ref)
	if got.Pretty() != base.Pretty() {
		t.Fatalf("round-trip failed: got %q want %q", got.Pretty(), base.Pretty())
	}
}

func TestIsSized(t *testing.T) {
	if IsSized(NewPrimitive(Void)) {
		t.Fatalf("void should be unsized")
	}
	iface := &Interface{Name: "Drawable"}
	if IsSized(iface) {
		t.Fatalf("bare interface should be unsized")
	}
	defined := &Defined{Name: "Widget"}
	if !IsSized(defined) {
		t.Fatalf("defined type should be sized")
	}
}

func TestDefinedFieldSlotShiftsWithVtable(t *testing.T) {
	withVtable := &Defined{Name: "B", HasVtable: true}
	withoutVtable := &Defined{Name: "A", HasVtable: false}
	if withVtable.FieldSlot(0) != 1 {
		t.Fatalf("FieldSlot(0) with vtable = %d, want 1", withVtable.FieldSlot(0))
	}
	if withoutVtable.FieldSlot(0) != 0 {
		t.Fatalf("FieldSlot(0) without vtable = %d, want 0", withoutVtable.FieldSlot(0))
	}
}

func TestDefinedAllFieldsMergesParentFirst(t *testing.T) {
	parent := &Defined{Name: "A", Fields: []Field{{Name: "x"}}}
	child := &Defined{Name: "B", Parent: parent, Fields: []Field{{Name: "y"}}}
	all := child.AllFields()
	if len(all) != 2 || all[0].Name != "x" || all[1].Name != "y" {
		t.Fatalf("AllFields() = %+v, want [x y]", all)
	}
}

func TestInstanceKeySuffixesGenericInstantiations(t *testing.T) {
	base := uuid.New()
	d0 := &Defined{UUID: base, InstantiationCount: 0}
	d1 := &Defined{UUID: base, InstantiationCount: 1}
	if d0.InstanceKey() != base.String() {
		t.Fatalf("zeroth instantiation should not carry a suffix")
	}
	if d1.InstanceKey() == d0.InstanceKey() {
		t.Fatalf("distinct instantiations must have distinct instance keys")
	}
}

func TestFunctionMangleHasDelimiters(t *testing.T) {
	fn := &Function{Args: []Type{NewPrimitive(Int32), NewPrimitive(Bool)}, Return: NewPrimitive(Void)}
	m := Mangle(fn)
	if m[:7] != "_FntY.v" {
		t.Fatalf("Mangle(fn) = %q, want prefix _FntY.v", m)
	}
}
