package oad

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func dummyFactory(*Registry, Options) (Component, error) {
	return emptyComponent{}, nil
}

func TestRegisterThenFactory(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Registration{ID: "test.a", Factory: dummyFactory, Domain: DomainGeometry, Description: "a"}); err != nil {
		t.Fatalf("register failed: %s", err)
	}
	f, err := reg.Factory("test.a")
	if err != nil {
		t.Fatal(err)
	}
	comp, err := f(reg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := comp.(emptyComponent); !ok {
		t.Fatalf("factory returned %T", comp)
	}
	if d, _ := reg.Domain("test.a"); d != DomainGeometry {
		t.Fatalf("domain: got %s exp %s", d, DomainGeometry)
	}
	if desc, _ := reg.Description("test.a"); desc != "a" {
		t.Fatalf("description: got %q", desc)
	}
}

func TestRegistryNotFound(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Factory("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := reg.Instantiate("nope", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := reg.Unregister("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Registration{ID: "test.a", Factory: dummyFactory, Domain: DomainGeometry})
	if err := reg.Register(Registration{ID: "test.a", Factory: dummyFactory}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	assertPanic(t, func() {
		reg.MustRegister(Registration{ID: "test.a", Factory: dummyFactory})
	})
	// Override replaces the binding and moves it to its new domain.
	if err := reg.Register(Registration{ID: "test.a", Factory: dummyFactory, Domain: DomainWeight, Override: true}); err != nil {
		t.Fatalf("override failed: %s", err)
	}
	if ids := reg.ByDomain(DomainGeometry); len(ids) != 0 {
		t.Fatalf("geometry domain still lists %v", ids)
	}
	if diff := cmp.Diff([]string{"test.a"}, reg.ByDomain(DomainWeight)); diff != "" {
		t.Fatalf("weight domain mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryMalformed(t *testing.T) {
	reg := NewRegistry()
	for _, r := range []Registration{{Factory: dummyFactory}, {ID: "test.nofactory"}} {
		if err := reg.Register(r); !errors.Is(err, ErrMalformedRegistration) {
			t.Fatalf("expected ErrMalformedRegistration for %+v, got %v", r, err)
		}
	}
	reg.MustRegister(Registration{ID: "test.nil", Factory: func(*Registry, Options) (Component, error) { return nil, nil }})
	if _, err := reg.Instantiate("test.nil", nil); !errors.Is(err, ErrMalformedRegistration) {
		t.Fatalf("expected ErrMalformedRegistration for a nil component, got %v", err)
	}
}

func TestRegistryListing(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Registration{ID: "test.c", Factory: dummyFactory, Domain: DomainWeight})
	reg.MustRegister(Registration{ID: "test.a", Factory: dummyFactory, Domain: DomainGeometry})
	reg.MustRegister(Registration{ID: "test.b", Factory: dummyFactory, Domain: DomainWeight, Description: "b"})
	if diff := cmp.Diff([]string{"test.a", "test.b", "test.c"}, reg.IDs()); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
	infos := reg.ListModules(DomainWeight)
	exp := []ModuleInfo{{ID: "test.b", Domain: DomainWeight, Description: "b"}, {ID: "test.c", Domain: DomainWeight}}
	if diff := cmp.Diff(exp, infos); diff != "" {
		t.Fatalf("ListModules mismatch (-want +got):\n%s", diff)
	}
	if err := reg.Unregister("test.b"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"test.c"}, reg.ByDomain(DomainWeight)); diff != "" {
		t.Fatalf("ByDomain mismatch after unregister (-want +got):\n%s", diff)
	}
}

func TestRegistryOptions(t *testing.T) {
	reg := NewRegistry()
	var got Options
	reg.MustRegister(Registration{
		ID:      "test.opts",
		Options: []OptionSpec{{Name: "n", Default: 3}, {Name: "mode", Required: true}},
		Factory: func(_ *Registry, opts Options) (Component, error) {
			got = opts
			return emptyComponent{}, nil
		},
	})
	if _, err := reg.Instantiate("test.opts", map[string]any{"mode": "fast"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Options{"n": 3, "mode": "fast"}, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if _, err := reg.Instantiate("test.opts", nil); !errors.Is(err, ErrMissingOption) {
		t.Fatalf("expected ErrMissingOption, got %v", err)
	}
	if _, err := reg.Instantiate("test.opts", map[string]any{"mode": "x", "other": 1}); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
}

func TestModelDomain(t *testing.T) {
	for _, d := range []ModelDomain{DomainUnspecified, DomainGeometry, DomainAerodynamics, DomainHandlingQualities, DomainWeight, DomainPerformance, DomainPropulsion, DomainLoadAnalysis, DomainOther} {
		back, err := ModelDomainFromString(d.String())
		if err != nil || back != d {
			t.Fatalf("round trip of %s: got %s (%v)", d, back, err)
		}
	}
	if d, err := ModelDomainFromString(" Weight "); err != nil || d != DomainWeight {
		t.Fatalf("case insensitive lookup failed: %s %v", d, err)
	}
	if _, err := ModelDomainFromString("astrodynamics"); err == nil {
		t.Fatal("expected an error for an unknown domain")
	}
	assertPanic(t, func() {
		_ = ModelDomain(200).String()
	})
}
