package lazy

import (
	"reflect"
	"sort"
)

// MethodsOf returns the exported method names of T, sorted.
//
// For an interface type this is its full method set. For a concrete type it is
// the method set of that exact type, so pass *S to include pointer methods.
func MethodsOf[T any]() []string {
	return methodNames(reflect.TypeFor[T]())
}

func methodNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.IsExported() {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names
}

// descriptorSet dedupes names and returns the set plus its sorted keys.
func descriptorSet(methods []string) (map[string]struct{}, []string) {
	set := make(map[string]struct{}, len(methods))
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		if _, seen := set[m]; seen {
			continue
		}
		set[m] = struct{}{}
		names = append(names, m)
	}
	sort.Strings(names)
	return set, names
}
