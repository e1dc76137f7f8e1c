package tapeson

import "testing"

func mustParse(t *testing.T, doc string) *ParsedJSON {
	t.Helper()
	pj, err := Parse([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Parse(%q): %v", doc, err)
	}
	return pj
}

func TestIterScalars(t *testing.T) {
	pj := mustParse(t, `42`)
	root := pj.Root()
	if root.Type() != TypeInt64 {
		t.Fatalf("Type() = %v, want TypeInt64", root.Type())
	}
	v, err := root.Int64()
	if err != nil || v != 42 {
		t.Fatalf("Int64() = (%d, %v)", v, err)
	}
}

func TestIterObjectEach(t *testing.T) {
	pj := mustParse(t, `{"a":1,"b":"two","c":[1,2,3]}`)
	obj, err := pj.Root().Object()
	if err != nil {
		t.Fatalf("Object(): %v", err)
	}
	var keys []string
	eachErr := obj.Each(func(key string, v Iter) error {
		keys = append(keys, key)
		return nil
	})
	if eachErr != nil {
		t.Fatalf("Each: %v", eachErr)
	}
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestIterObjectMap(t *testing.T) {
	pj := mustParse(t, `{"name":"ada","age":36,"active":true,"tag":null}`)
	obj, err := pj.Root().Object()
	if err != nil {
		t.Fatalf("Object(): %v", err)
	}
	m, merr := obj.Map()
	if merr != nil {
		t.Fatalf("Map(): %v", merr)
	}
	if m["name"] != "ada" {
		t.Fatalf("name = %v", m["name"])
	}
	if v, ok := m["age"].(int64); !ok || v != 36 {
		t.Fatalf("age = %v", m["age"])
	}
	if m["active"] != true {
		t.Fatalf("active = %v", m["active"])
	}
	if m["tag"] != nil {
		t.Fatalf("tag = %v, want nil", m["tag"])
	}
}

func TestIterArraySlice(t *testing.T) {
	pj := mustParse(t, `[1,2,3]`)
	arr, err := pj.Root().Array()
	if err != nil {
		t.Fatalf("Array(): %v", err)
	}
	s, serr := arr.Slice()
	if serr != nil {
		t.Fatalf("Slice(): %v", serr)
	}
	if len(s) != 3 {
		t.Fatalf("len = %d", len(s))
	}
	for i, want := range []int64{1, 2, 3} {
		if v, ok := s[i].(int64); !ok || v != want {
			t.Fatalf("s[%d] = %v, want %d", i, s[i], want)
		}
	}
}

func TestIterNestedContainerSkip(t *testing.T) {
	pj := mustParse(t, `{"skip":{"deep":{"deeper":[1,2,3]}},"keep":99}`)
	obj, err := pj.Root().Object()
	if err != nil {
		t.Fatalf("Object(): %v", err)
	}
	var found int64 = -1
	eachErr := obj.Each(func(key string, v Iter) error {
		if key == "keep" {
			n, ierr := v.Int64()
			if ierr != nil {
				return ierr
			}
			found = n
		}
		return nil
	})
	if eachErr != nil {
		t.Fatalf("Each: %v", eachErr)
	}
	if found != 99 {
		t.Fatalf("found = %d, want 99", found)
	}
}

func TestIterWrongTypeError(t *testing.T) {
	pj := mustParse(t, `"a string"`)
	if _, err := pj.Root().Int64(); err == nil || !IsCode(err, ErrIncorrectType) {
		t.Fatalf("expected ErrIncorrectType, got %v", err)
	}
}

func TestIterUint64FromNegativeRejected(t *testing.T) {
	pj := mustParse(t, `-5`)
	if _, err := pj.Root().Uint64(); err == nil || !IsCode(err, ErrNumberOutOfRange) {
		t.Fatalf("expected ErrNumberOutOfRange, got %v", err)
	}
}

func TestIterFloat64WidensInt(t *testing.T) {
	pj := mustParse(t, `7`)
	f, err := pj.Root().Float64()
	if err != nil || f != 7.0 {
		t.Fatalf("Float64() = (%v, %v)", f, err)
	}
}

func TestObjectAtKey(t *testing.T) {
	pj := mustParse(t, `{"a":1,"b":"two","c":[1,2,3]}`)
	obj, err := pj.Root().Object()
	if err != nil {
		t.Fatalf("Object(): %v", err)
	}
	if obj.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", obj.Len())
	}
	v, verr := obj.AtKey("b")
	if verr != nil {
		t.Fatalf("AtKey(b): %v", verr)
	}
	s, serr := v.String()
	if serr != nil || s != "two" {
		t.Fatalf("AtKey(b) = (%q, %v)", s, serr)
	}
	if _, err := obj.AtKey("nope"); err == nil || !IsCode(err, ErrNoSuchField) {
		t.Fatalf("expected ErrNoSuchField, got %v", err)
	}
}

func TestArrayAt(t *testing.T) {
	pj := mustParse(t, `[10,20,30]`)
	arr, err := pj.Root().Array()
	if err != nil {
		t.Fatalf("Array(): %v", err)
	}
	if arr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", arr.Len())
	}
	v, verr := arr.At(1)
	if verr != nil {
		t.Fatalf("At(1): %v", verr)
	}
	n, nerr := v.Int64()
	if nerr != nil || n != 20 {
		t.Fatalf("At(1) = (%d, %v)", n, nerr)
	}
	if _, err := arr.At(-1); err == nil || !IsCode(err, ErrIndexOutOfBounds) {
		t.Fatalf("expected ErrIndexOutOfBounds for negative index, got %v", err)
	}
	if _, err := arr.At(3); err == nil || !IsCode(err, ErrIndexOutOfBounds) {
		t.Fatalf("expected ErrIndexOutOfBounds for out-of-range index, got %v", err)
	}
}

func TestObjectLenNestedContainersDoNotInflateCount(t *testing.T) {
	pj := mustParse(t, `{"a":{"x":1,"y":2},"b":[1,2,3,4]}`)
	obj, err := pj.Root().Object()
	if err != nil {
		t.Fatalf("Object(): %v", err)
	}
	if obj.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (nested container fields must not be counted)", obj.Len())
	}
	a, aerr := obj.AtKey("a")
	if aerr != nil {
		t.Fatalf("AtKey(a): %v", aerr)
	}
	inner, ierr := a.Object()
	if ierr != nil {
		t.Fatalf("Object(): %v", ierr)
	}
	if inner.Len() != 2 {
		t.Fatalf("inner Len() = %d, want 2", inner.Len())
	}
	b, berr := obj.AtKey("b")
	if berr != nil {
		t.Fatalf("AtKey(b): %v", berr)
	}
	barr, barrerr := b.Array()
	if barrerr != nil {
		t.Fatalf("Array(): %v", barrerr)
	}
	if barr.Len() != 4 {
		t.Fatalf("b Len() = %d, want 4", barr.Len())
	}
}

func TestInterfaceRoundTrip(t *testing.T) {
	pj := mustParse(t, `{"items":[1,"two",3.5,true,null],"count":5}`)
	v, err := pj.Root().Interface()
	if err != nil {
		t.Fatalf("Interface(): %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("Interface() did not return a map")
	}
	items, ok := m["items"].([]any)
	if !ok || len(items) != 5 {
		t.Fatalf("items = %v", m["items"])
	}
}
