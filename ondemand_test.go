package tapeson

import "testing"

func TestOnDemandScalars(t *testing.T) {
	d, err := NewOnDemand([]byte(`123`))
	if err != nil {
		t.Fatalf("NewOnDemand: %v", err)
	}
	root := d.Root()
	if root.Type() != TypeFloat64 {
		t.Fatalf("Type() = %v, want TypeFloat64 (generic number marker)", root.Type())
	}
	v, verr := root.Int64()
	if verr != nil || v != 123 {
		t.Fatalf("Int64() = (%d, %v)", v, verr)
	}
}

func TestOnDemandObjectEach(t *testing.T) {
	d, err := NewOnDemand([]byte(`{"a":1,"b":2,"c":3}`))
	if err != nil {
		t.Fatalf("NewOnDemand: %v", err)
	}
	obj, oerr := d.Root().Object()
	if oerr != nil {
		t.Fatalf("Object(): %v", oerr)
	}
	var keys []string
	err2 := obj.Each(func(key string, val ODValue) error {
		keys = append(keys, key)
		return nil
	})
	if err2 != nil {
		t.Fatalf("Each: %v", err2)
	}
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestOnDemandSkipContainerIsConstantCost(t *testing.T) {
	// A large nested array followed by a scalar: confirm Skip() jumps
	// straight past the array to the following value without the caller
	// ever touching an element inside it.
	big := "["
	for i := 0; i < 500; i++ {
		if i > 0 {
			big += ","
		}
		big += "[1,2,3,4,5]"
	}
	big += "],42"
	doc := "[" + big + "]"

	d, err := NewOnDemand([]byte(doc))
	if err != nil {
		t.Fatalf("NewOnDemand: %v", err)
	}
	arr, aerr := d.Root().Array()
	if aerr != nil {
		t.Fatalf("Array(): %v", aerr)
	}
	var visited int
	err2 := arr.Each(func(val ODValue) error {
		visited++
		if visited == 1 {
			// Skip the huge nested array without descending into it.
			return nil
		}
		n, ierr := val.Int64()
		if ierr != nil {
			return ierr
		}
		if n != 42 {
			t.Fatalf("second element = %d, want 42", n)
		}
		return nil
	})
	if err2 != nil {
		t.Fatalf("Each: %v", err2)
	}
	if visited != 2 {
		t.Fatalf("visited = %d, want 2", visited)
	}
}

func TestOnDemandUnmatchedBracketRejected(t *testing.T) {
	if _, err := NewOnDemand([]byte(`[1,2}`)); err == nil {
		t.Fatalf("expected an error for mismatched brackets")
	}
}

func TestODObjectFindFieldInOrder(t *testing.T) {
	d, err := NewOnDemand([]byte(`{"a":1,"b":2,"c":3}`))
	if err != nil {
		t.Fatalf("NewOnDemand: %v", err)
	}
	obj, oerr := d.Root().Object()
	if oerr != nil {
		t.Fatalf("Object(): %v", oerr)
	}
	for _, tc := range []struct {
		key  string
		want int64
	}{{"a", 1}, {"b", 2}, {"c", 3}} {
		v, ferr := obj.FindField(tc.key)
		if ferr != nil {
			t.Fatalf("FindField(%q): %v", tc.key, ferr)
		}
		n, nerr := v.Int64()
		if nerr != nil || n != tc.want {
			t.Fatalf("FindField(%q) = (%d, %v), want %d", tc.key, n, nerr, tc.want)
		}
	}
}

func TestODObjectFindFieldWrapsAroundOnce(t *testing.T) {
	d, err := NewOnDemand([]byte(`{"a":1,"b":2,"c":3}`))
	if err != nil {
		t.Fatalf("NewOnDemand: %v", err)
	}
	obj, oerr := d.Root().Object()
	if oerr != nil {
		t.Fatalf("Object(): %v", oerr)
	}
	// Ask for "c" first to advance the cursor past it, then ask for "a",
	// which is behind the cursor and only reachable via a wraparound.
	if _, ferr := obj.FindField("c"); ferr != nil {
		t.Fatalf("FindField(c): %v", ferr)
	}
	v, ferr := obj.FindField("a")
	if ferr != nil {
		t.Fatalf("FindField(a) after wraparound: %v", ferr)
	}
	n, nerr := v.Int64()
	if nerr != nil || n != 1 {
		t.Fatalf("FindField(a) = (%d, %v), want 1", n, nerr)
	}
}

func TestODObjectFindFieldMissingKey(t *testing.T) {
	d, err := NewOnDemand([]byte(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("NewOnDemand: %v", err)
	}
	obj, oerr := d.Root().Object()
	if oerr != nil {
		t.Fatalf("Object(): %v", oerr)
	}
	if _, ferr := obj.FindField("nope"); ferr == nil || !IsCode(ferr, ErrNoSuchField) {
		t.Fatalf("expected ErrNoSuchField, got %v", ferr)
	}
}

func TestOnDemandArrayElementTypes(t *testing.T) {
	d, err := NewOnDemand([]byte(`[true,false,null,"s",1]`))
	if err != nil {
		t.Fatalf("NewOnDemand: %v", err)
	}
	arr, aerr := d.Root().Array()
	if aerr != nil {
		t.Fatalf("Array(): %v", aerr)
	}
	var types []Type
	_ = arr.Each(func(val ODValue) error {
		types = append(types, val.Type())
		return nil
	})
	want := []Type{TypeBool, TypeBool, TypeNull, TypeString, TypeFloat64}
	if len(types) != len(want) {
		t.Fatalf("types = %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types[%d] = %v, want %v", i, types[i], want[i])
		}
	}
}
