package breadcrumb

import (
	"container/list"
	"strconv"
	"strings"
	"sync"

	"github.com/forgecommerce/storefront/internal/metrics"
)

// Memo is a thread-safe, bounded LRU of derived category lists.
// Entries are keyed by the value of the input paths and the list options,
// so a changed input never sees a previous input's result.
type Memo struct {
	mu      sync.Mutex
	cap     int
	ll      *list.List
	entries map[string]*list.Element
}

type memoEntry struct {
	key   string
	items []NavigationItem
}

// NewMemo returns a Memo holding at most capacity lists. Panics on capacity < 1.
func NewMemo(capacity int) *Memo {
	if capacity < 1 {
		panic("breadcrumb: memo capacity must be >= 1")
	}
	return &Memo{
		cap:     capacity,
		ll:      list.New(),
		entries: make(map[string]*list.Element, capacity),
	}
}

// CategoryList returns CategoryList(categories, opts...), reusing a cached
// result when the same paths were derived before. The returned slice is a
// copy and may be modified by the caller.
func (m *Memo) CategoryList(categories []string, opts ...ListOption) []NavigationItem {
	cfg := newListConfig(opts)
	key := memoKey(categories, cfg)

	m.mu.Lock()
	if ele, ok := m.entries[key]; ok {
		m.ll.MoveToFront(ele)
		items := cloneItems(ele.Value.(*memoEntry).items)
		m.mu.Unlock()
		metrics.CategoryListMemoHitsTotal.Inc()
		return items
	}
	m.mu.Unlock()

	metrics.CategoryListMemoMissesTotal.Inc()
	items := CategoryList(categories, opts...)
	m.add(key, cloneItems(items))
	return items
}

// Len reports the number of cached lists.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

func (m *Memo) add(key string, items []NavigationItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ele, ok := m.entries[key]; ok {
		ele.Value.(*memoEntry).items = items
		m.ll.MoveToFront(ele)
		return
	}

	m.entries[key] = m.ll.PushFront(&memoEntry{key: key, items: items})
	if m.ll.Len() > m.cap {
		last := m.ll.Back()
		m.ll.Remove(last)
		delete(m.entries, last.Value.(*memoEntry).key)
	}
	metrics.CategoryListMemoEntries.Set(float64(m.ll.Len()))
}

// memoKey length-prefixes every path so that no two different inputs
// share a key.
func memoKey(categories []string, cfg listConfig) string {
	var b strings.Builder
	if cfg.preserveLabelCase {
		b.WriteString("P|")
	} else {
		b.WriteString("L|")
	}
	for _, c := range categories {
		b.WriteString(strconv.Itoa(len(c)))
		b.WriteByte(':')
		b.WriteString(c)
	}
	return b.String()
}

func cloneItems(items []NavigationItem) []NavigationItem {
	out := make([]NavigationItem, len(items))
	copy(out, items)
	return out
}
