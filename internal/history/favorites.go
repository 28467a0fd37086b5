package history

import (
	"strings"
	"sync"
)

// Favorite is a saved query. Query text is unique within the list.
type Favorite struct {
	ID        string `json:"id"`
	Query     string `json:"query"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Favorites is an insertion-ordered set of saved queries.
type Favorites struct {
	mu    sync.RWMutex
	items []Favorite
	opts  options
}

// NewFavorites returns an empty list.
func NewFavorites(opts ...Option) *Favorites {
	return &Favorites{opts: buildOptions(opts)}
}

// Add saves query under name. When the query is already saved the
// existing entry is returned with false.
func (f *Favorites) Add(query, name string) (Favorite, bool) {
	if strings.TrimSpace(query) == "" {
		return Favorite{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fav := range f.items {
		if fav.Query == query {
			return fav, false
		}
	}
	fav := Favorite{ID: f.opts.newID(), Query: query, Name: name, CreatedAt: f.opts.now().UnixMilli()}
	f.items = append(f.items, fav)
	return fav, true
}

// Remove deletes the favorite with id.
func (f *Favorites) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, fav := range f.items {
		if fav.ID == id {
			f.items = append(f.items[:i:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle removes query if saved, otherwise saves it. It reports whether the
// query is saved afterwards.
func (f *Favorites) Toggle(query, name string) bool {
	f.mu.Lock()
	for i, fav := range f.items {
		if fav.Query == query {
			f.items = append(f.items[:i:i], f.items[i+1:]...)
			f.mu.Unlock()
			return false
		}
	}
	f.mu.Unlock()
	_, added := f.Add(query, name)
	return added
}

// Contains reports whether query is saved.
func (f *Favorites) Contains(query string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, fav := range f.items {
		if fav.Query == query {
			return true
		}
	}
	return false
}

// Items returns a copy in insertion order.
func (f *Favorites) Items() []Favorite {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Favorite, len(f.items))
	copy(out, f.items)
	return out
}

// Replace loads persisted favorites, dropping repeated queries.
func (f *Favorites) Replace(items []Favorite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	f.items = make([]Favorite, 0, len(items))
	for _, fav := range items {
		if seen[fav.Query] {
			continue
		}
		seen[fav.Query] = true
		f.items = append(f.items, fav)
	}
}
