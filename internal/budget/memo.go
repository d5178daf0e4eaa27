package budget

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"gastos/internal/cache"
	"gastos/internal/core"
)

// Memo caches summaries by a fingerprint of their inputs. Concurrent calls
// with identical inputs share one computation.
type Memo struct {
	cache *cache.LRUCache[Summary]
	group singleflight.Group
}

func NewMemo(size int, ttl time.Duration) *Memo {
	return &Memo{cache: cache.NewLRUCache[Summary](size, ttl)}
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (m *Memo) Cache() *cache.LRUCache[Summary] {
	return m.cache
}

// Aggregate returns the same result as the package-level Aggregate.
func (m *Memo) Aggregate(expenses []core.Expense, budgets map[string]core.Money) Summary {
	key := Fingerprint(expenses, budgets)
	if s, ok := m.cache.Get(key); ok {
		return s.Clone()
	}
	v, _, _ := m.group.Do(key, func() (any, error) {
		s := Aggregate(expenses, budgets)
		m.cache.Set(key, s)
		return s, nil
	})
	return v.(Summary).Clone()
}

// Fingerprint hashes every field that influences aggregation. Expense order
// does not matter.
func Fingerprint(expenses []core.Expense, budgets map[string]core.Money) string {
	lines := make([]string, 0, len(expenses))
	for _, e := range expenses {
		lines = append(lines, e.ID+"\x00"+e.Category+"\x00"+e.Subcategory+"\x00"+
			strconv.FormatInt(e.Amount.Cents, 10)+"\x00"+e.Date.String())
	}
	sort.Strings(lines)

	names := make([]string, 0, len(budgets))
	for name := range budgets {
		names = append(names, name)
	}
	sort.Strings(names)

	h := fnv.New64a()
	var buf [8]byte
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte{0xff})
	for _, name := range names {
		h.Write([]byte(name))
		binary.LittleEndian.PutUint64(buf[:], uint64(budgets[name].Cents))
		h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
