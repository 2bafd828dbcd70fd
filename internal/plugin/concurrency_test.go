package plugin

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestConcurrentDiscovery(t *testing.T) {
	f := newFakeLoader()
	for i := range 20 {
		name := fmt.Sprintf("p%02d", i)
		f.add("ns", name, func(r *Registrar) error {
			time.Sleep(time.Millisecond)
			r.Register(constant(name), Name("run"), SortValue(i%3))
			return nil
		})
	}
	r := New(f)

	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 20 {
				name := fmt.Sprintf("p%02d", (i+g)%20)
				switch g % 4 {
				case 0:
					if _, err := r.Names("ns"); err != nil {
						t.Errorf("Names() error = %v", err)
					}
				case 1:
					if ok, err := r.Exists("ns", name); err != nil || !ok {
						t.Errorf("Exists(%s) = %v, %v", name, ok, err)
					}
				case 2:
					got, err := r.Call("ns", name, Selector{})
					if err != nil || got != name {
						t.Errorf("Call(%s) = %v, %v", name, got, err)
					}
				case 3:
					r.Register(constant("extra"), Name(fmt.Sprintf("extra%d", g)))
				}
			}
		}()
	}
	wg.Wait()

	// Concurrent lookups of one member run its code once.
	for i := range 20 {
		name := fmt.Sprintf("p%02d", i)
		if n := f.loadCount("ns", name); n != 1 {
			t.Errorf("%s loaded %d times, want 1", name, n)
		}
	}

	names, err := r.Names("ns")
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if len(names) != 20 {
		t.Errorf("Names() returned %d plug-ins, want 20", len(names))
	}
}
