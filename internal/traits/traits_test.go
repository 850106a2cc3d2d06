package traits

import (
	"reflect"
	"testing"
)

func TestResolveMethodTrait(t *testing.T) {
	r := New()
	r.AddTraitMethods("Display", []string{"fmt"})
	r.AddTraitImpl("MyStruct", "Display", 1)

	if tr, ok := r.ResolveMethodTrait("MyStruct", "fmt"); !ok || tr != "Display" {
		t.Errorf("ResolveMethodTrait(MyStruct, fmt) = %q, %v", tr, ok)
	}
	if _, ok := r.ResolveMethodTrait("MyStruct", "unknown"); ok {
		t.Error("unknown method resolved to a trait")
	}
	if _, ok := r.ResolveMethodTrait("Other", "fmt"); ok {
		t.Error("type without impls resolved to a trait")
	}
}

func TestDirectMappingWins(t *testing.T) {
	r := New()
	r.AddTraitMethods("Shape", []string{"area"})
	r.AddTraitMethods("Measured", []string{"area"})
	r.AddTraitImpl("Square", "Shape", 1)
	r.AddTraitImpl("Square", "Measured", 1)

	if tr, _ := r.ResolveMethodTrait("Square", "area"); tr != "Shape" {
		t.Errorf("registration order: got %q, want Shape", tr)
	}
	r.AddTypeMethod("Square", "area", "Measured")
	if tr, _ := r.ResolveMethodTrait("Square", "area"); tr != "Measured" {
		t.Errorf("direct mapping: got %q, want Measured", tr)
	}
}

func TestImplementedTraitsDeduplicates(t *testing.T) {
	r := New()
	r.AddTraitImpl("Square", "Shape", 1)
	r.AddTraitImpl("Square", "Shape", 2)
	r.AddTraitImpl("Square", "Clone", 1)
	if got := r.ImplementedTraits("Square"); !reflect.DeepEqual(got, []string{"Shape", "Clone"}) {
		t.Errorf("ImplementedTraits = %v", got)
	}
}

func TestInferImplementations(t *testing.T) {
	r := New()
	r.AddTraitMethods("Reader", []string{"Read"})
	r.AddTraitMethods("ReadCloser", []string{"Read", "Close"})
	r.AddTraitMethods("Marker", nil)
	r.AddTraitImpl("File", "Reader", 1)

	got := r.InferImplementations(map[string][]string{
		"File":   {"Read", "Close"},
		"Buffer": {"Read", "Write"},
		"Empty":  nil,
	}, nil)
	want := []Impl{
		{Type: "Buffer", Trait: "Reader"},
		{Type: "File", Trait: "ReadCloser"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InferImplementations = %+v, want %+v", got, want)
	}
	if tr, ok := r.ResolveMethodTrait("Buffer", "Read"); !ok || tr != "Reader" {
		t.Errorf("inferred impl not registered: %q, %v", tr, ok)
	}
}

func TestClear(t *testing.T) {
	r := New()
	r.AddTraitMethods("Display", []string{"fmt"})
	r.AddTraitImpl("MyStruct", "Display", 1)
	r.AddTypeMethod("MyStruct", "fmt", "Display")
	r.Clear()
	if _, ok := r.ResolveMethodTrait("MyStruct", "fmt"); ok {
		t.Error("facts survived Clear")
	}
	if _, ok := r.TraitMethods("Display"); ok {
		t.Error("trait methods survived Clear")
	}
}
