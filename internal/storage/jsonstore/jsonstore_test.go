package jsonstore_test

import (
	"errors"
	"reflect"
	"slices"
	"strconv"
	"testing"
	"time"

	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
	"github.com/louisbranch/typedview/internal/storage/jsonstore"
	"github.com/louisbranch/typedview/internal/storage/mapstore"
	"github.com/louisbranch/typedview/internal/view"
	"github.com/tidwall/gjson"
)

type Strings struct {
	Name view.Mutable[string]
}

type Numbers struct {
	Count view.Property[int32]
	Size  view.Property[int64]
}

type Dates struct {
	Created view.Property[string]
}

type Cascade struct {
	Numbers view.Property[Numbers]
	Dates   view.Property[*Dates]
}

type Typed struct {
	Created view.Property[time.Time]
	Ratio   view.Property[float32]
	Active  view.Property[bool]
	Initial view.Property[rune]
	Big     view.Property[int64]
}

const cascadeJSON = `{"numbers":{"count":1,"size":123},"dates":{"created":"2014-12-1"}}`

func TestCascadeMatchesMapStore(t *testing.T) {
	store, err := jsonstore.Parse(cascadeJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fromJSON := readCascade(t, store)
	fromMap := readCascade(t, mapstore.New(map[string]any{
		"numbers": map[string]any{"count": 1, "size": 123},
		"dates":   map[string]any{"created": "2014-12-1"},
	}))
	if !slices.Equal(fromJSON, fromMap) {
		t.Fatalf("json %v differs from map %v", fromJSON, fromMap)
	}
	if !slices.Equal(fromJSON, []string{"1", "123", "2014-12-1"}) {
		t.Fatalf("unexpected values %v", fromJSON)
	}
}

func readCascade(t *testing.T, s view.Storage) []string {
	t.Helper()
	cascade, err := view.Interpret[Cascade](s)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	numbers, err := cascade.Numbers.Get()
	if err != nil {
		t.Fatalf("numbers: %v", err)
	}
	count, err := numbers.Count.Get()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	size, err := numbers.Size.Get()
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	dates, err := cascade.Dates.Get()
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	created, err := dates.Created.Get()
	if err != nil {
		t.Fatalf("created: %v", err)
	}
	return []string{strconv.Itoa(int(count)), strconv.FormatInt(size, 10), created}
}

func TestFromResultNestedPath(t *testing.T) {
	doc := gjson.Parse(`{"meta":{"numbers":{"count":3,"size":4}}}`)
	store, err := jsonstore.FromResult(doc.Get("meta"))
	if err != nil {
		t.Fatalf("from result: %v", err)
	}
	numbers, err := view.Interpret[Numbers](mustNested(t, store, "numbers"))
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if got, _ := numbers.Count.Get(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
}

func mustNested(t *testing.T, s *jsonstore.Store, key string) view.Storage {
	t.Helper()
	value, err := s.Get(key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	if _, ok := value.(map[string]any); !ok {
		t.Fatalf("expected %s to be an object, got %T", key, value)
	}
	nested, err := jsonstore.FromResult(gjson.Get(s.Raw(), key))
	if err != nil {
		t.Fatalf("nested %s: %v", key, err)
	}
	return nested
}

func TestWriteFailsReadOnly(t *testing.T) {
	store, err := jsonstore.Parse(`{"name":"value"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	named, err := view.Interpret[Strings](store)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if err := named.Name.Set("x"); !errors.Is(err, view.ErrReadOnlyStorage) {
		t.Fatalf("expected read-only storage, got %v", err)
	}
	if err := store.SetAs("name", reflect.TypeFor[string](), "x"); !errors.Is(err, view.ErrReadOnlyStorage) {
		t.Fatalf("expected read-only storage from SetAs, got %v", err)
	}
	if got, _ := named.Name.Get(); got != "value" {
		t.Fatalf("expected value unchanged, got %q", got)
	}
}

func TestNativeValues(t *testing.T) {
	store, err := jsonstore.Parse(`{"i":12,"f":1.5,"e":1e3,"big":18446744073709551616,"s":"x","b":false,"o":{"k":1},"a":[1,"two"]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tests := []struct {
		key  string
		want any
	}{
		{"i", int64(12)},
		{"f", 1.5},
		{"e", 1000.0},
		{"big", 18446744073709551616.0},
		{"s", "x"},
		{"b", false},
	}
	for _, tc := range tests {
		got, err := store.Get(tc.key)
		if err != nil {
			t.Fatalf("get %s: %v", tc.key, err)
		}
		if got != tc.want {
			t.Errorf("get %s = %#v, want %#v", tc.key, got, tc.want)
		}
	}

	obj, _ := store.Get("o")
	if m, ok := obj.(map[string]any); !ok || m["k"] != 1.0 {
		t.Fatalf("expected object as map, got %#v", obj)
	}
	arr, _ := store.Get("a")
	if a, ok := arr.([]any); !ok || len(a) != 2 {
		t.Fatalf("expected array as slice, got %#v", arr)
	}
}

func TestTypedCoercion(t *testing.T) {
	store, err := jsonstore.Parse(`{"created":"2014-12-1","ratio":0.25,"active":true,"initial":"λ","big":9007199254740993}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	typed, err := view.Interpret[Typed](store)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	created, err := typed.Created.Get()
	if err != nil || !created.Equal(time.Date(2014, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created = %v, %v", created, err)
	}
	if ratio, _ := typed.Ratio.Get(); ratio != 0.25 {
		t.Fatalf("ratio = %v", ratio)
	}
	if active, _ := typed.Active.Get(); !active {
		t.Fatal("expected active")
	}
	if initial, _ := typed.Initial.Get(); initial != 'λ' {
		t.Fatalf("initial = %q", initial)
	}
	if big, _ := typed.Big.Get(); big != 9007199254740993 {
		t.Fatalf("expected integer precision beyond float64, got %d", big)
	}
}

func TestNullAndMissingAreNotFound(t *testing.T) {
	store, err := jsonstore.Parse(`{"name":null}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, key := range []string{"name", "absent"} {
		if _, err := store.Get(key); !errors.Is(err, view.ErrPropertyNotFound) {
			t.Fatalf("get %s: expected property not found, got %v", key, err)
		}
		if _, err := store.GetAs(key, reflect.TypeFor[Numbers]()); !errors.Is(err, view.ErrPropertyNotFound) {
			t.Fatalf("get as %s: expected property not found, got %v", key, err)
		}
	}
}

func TestTypeMismatchOnNestedScalar(t *testing.T) {
	store, err := jsonstore.Parse(`{"numbers":"many","dates":{"created":7}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cascade, err := view.Interpret[Cascade](store)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if _, err := cascade.Numbers.Get(); !errors.Is(err, view.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	dates, err := cascade.Dates.Get()
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if _, err := dates.Created.Get(); !errors.Is(err, view.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch for number as text, got %v", err)
	}
}

func TestParseRejectsNonObjects(t *testing.T) {
	for _, text := range []string{`[1,2]`, `"x"`, `{"a":`, ``} {
		if _, err := jsonstore.Parse(text); apperrors.CodeOf(err) != apperrors.CodeInvalidDocument {
			t.Errorf("parse %q: expected invalid document, got %v", text, err)
		}
	}
	if _, err := jsonstore.ParseBytes([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("parse bytes: %v", err)
	}
}

func TestRawAndKeys(t *testing.T) {
	store, err := jsonstore.Parse(`{"b":1,"a":2}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	keys := store.Keys()
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"a", "b"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
	if store.Raw() != `{"b":1,"a":2}` {
		t.Fatalf("unexpected raw %s", store.Raw())
	}
}
