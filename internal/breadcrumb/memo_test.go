package breadcrumb

import (
	"reflect"
	"sync"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/forgecommerce/storefront/internal/metrics"
)

func TestMemo_MatchesCategoryList(t *testing.T) {
	memo := NewMemo(8)
	in := []string{"/Calçados/Tênis/", "/Calçados/"}

	want := CategoryList(in)
	for i := 0; i < 3; i++ {
		if got := memo.CategoryList(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("call %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestMemo_CountsHits(t *testing.T) {
	memo := NewMemo(8)
	in := []string{"/Metrics/Hits/"}

	hits := promtestutil.ToFloat64(metrics.CategoryListMemoHitsTotal)
	misses := promtestutil.ToFloat64(metrics.CategoryListMemoMissesTotal)

	memo.CategoryList(in)
	memo.CategoryList(in)

	if got := promtestutil.ToFloat64(metrics.CategoryListMemoMissesTotal) - misses; got != 1 {
		t.Errorf("misses: got %v, want 1", got)
	}
	if got := promtestutil.ToFloat64(metrics.CategoryListMemoHitsTotal) - hits; got != 1 {
		t.Errorf("hits: got %v, want 1", got)
	}
}

func TestMemo_DifferentInputsDoNotCollide(t *testing.T) {
	memo := NewMemo(8)

	a := memo.CategoryList([]string{"/A/B/"})
	b := memo.CategoryList([]string{"/A/", "B/"})
	if reflect.DeepEqual(a, b) {
		t.Fatalf("different inputs returned the same list: %+v", a)
	}

	lower := memo.CategoryList([]string{"/Shoes/"})
	kept := memo.CategoryList([]string{"/Shoes/"}, WithPreservedLabelCase())
	if lower[0].Name != "shoes" || kept[0].Name != "Shoes" {
		t.Errorf("label case leaked between options: %q / %q", lower[0].Name, kept[0].Name)
	}
}

func TestMemo_ResultsAreCopies(t *testing.T) {
	memo := NewMemo(8)
	in := []string{"/A/"}

	first := memo.CategoryList(in)
	first[0].Name = "mutated"

	second := memo.CategoryList(in)
	if second[0].Name != "a" {
		t.Errorf("cached entry was mutated: %q", second[0].Name)
	}
	second[0].Href = "/mutated"

	third := memo.CategoryList(in)
	if third[0].Href != "/a/d" {
		t.Errorf("cached entry was mutated: %q", third[0].Href)
	}
}

func TestMemo_EvictsLeastRecentlyUsed(t *testing.T) {
	memo := NewMemo(2)

	memo.CategoryList([]string{"/A/"})
	memo.CategoryList([]string{"/B/"})
	memo.CategoryList([]string{"/A/"}) // A is now most recent
	memo.CategoryList([]string{"/C/"}) // evicts B

	if memo.Len() != 2 {
		t.Fatalf("len: got %d, want 2", memo.Len())
	}
	if _, ok := memo.entries[memoKey([]string{"/B/"}, listConfig{})]; ok {
		t.Error("expected /B/ to be evicted")
	}
	if _, ok := memo.entries[memoKey([]string{"/A/"}, listConfig{})]; !ok {
		t.Error("expected /A/ to be kept")
	}
}

func TestMemo_Concurrent(t *testing.T) {
	memo := NewMemo(4)
	inputs := [][]string{{"/A/"}, {"/B/", "/B/C/"}, {"/D/E/F/"}}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := inputs[i%len(inputs)]
			if got := memo.CategoryList(in); len(got) != len(in) {
				t.Errorf("got %d items, want %d", len(got), len(in))
			}
		}(i)
	}
	wg.Wait()
}

func TestNewMemo_PanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewMemo(0)
}
