package user

import (
	"sort"
	"strconv"
)

// Allocator hands out unique usernames for one generation run.
// The zero value is not usable; create one with NewAllocator.
type Allocator struct {
	used     map[string]struct{}
	counters map[string]int
}

// NewAllocator returns an Allocator whose used set is seeded with reserved.
func NewAllocator(reserved ...string) *Allocator {
	a := &Allocator{
		used:     make(map[string]struct{}, len(reserved)),
		counters: make(map[string]int),
	}
	for _, r := range reserved {
		if r != "" {
			a.used[r] = struct{}{}
		}
	}
	return a
}

// Allocate claims a username for name. The bare base token is returned when
// free; otherwise base1, base2, ... are tried. The per-base counter survives
// across calls so a suffix is never offered twice in a run.
func (a *Allocator) Allocate(name string) string {
	base := BaseUsername(name)
	if _, taken := a.used[base]; !taken {
		a.used[base] = struct{}{}
		return base
	}

	if a.counters[base] == 0 {
		a.counters[base] = 1
	}
	for {
		candidate := base + strconv.Itoa(a.counters[base])
		a.counters[base]++
		if _, taken := a.used[candidate]; !taken {
			a.used[candidate] = struct{}{}
			return candidate
		}
	}
}

// AllocateAll allocates usernames for names in order. The result is
// positional: identical names still get distinct usernames.
func (a *Allocator) AllocateAll(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = a.Allocate(name)
	}
	return out
}

// taken reports whether username is already claimed or reserved.
func (a *Allocator) taken(username string) bool {
	_, ok := a.used[username]
	return ok
}

// claimed returns a sorted snapshot of every claimed or reserved username.
func (a *Allocator) claimed() []string {
	out := make([]string, 0, len(a.used))
	for u := range a.used {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
