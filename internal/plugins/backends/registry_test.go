package backends

import (
	"reflect"
	"testing"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	cluster := NewClusterBackend()
	r.Register("cluster", cluster)

	got, ok := r.Resolve("cluster")
	if !ok || got != cluster {
		t.Fatalf("Resolve(cluster) = %v, %v", got, ok)
	}
	if _, ok := r.Resolve("missing"); ok {
		t.Fatal("Resolve(missing) must report absence")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := NewClusterBackend()
	second := NewClusterBackend()
	r.Register("cluster", first)
	r.Register("cluster", second)

	got, _ := r.Resolve("cluster")
	if got != second {
		t.Fatal("Register must replace an existing binding")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("openai", NewClusterBackend())
	r.Register("cluster", NewClusterBackend())

	if got := r.Names(); !reflect.DeepEqual(got, []string{"cluster", "openai"}) {
		t.Fatalf("Names() = %v", got)
	}
}
