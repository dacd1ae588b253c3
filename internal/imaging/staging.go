package imaging

import (
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStagingLimit is how many uploads an instance may hold at once.
const DefaultStagingLimit = 2

// Staged is an upload waiting to be cropped.
type Staged struct {
	Token    string
	Image    image.Image
	StagedAt time.Time
}

// Staging holds orientation-corrected uploads of one application instance.
// Tokens play the part of object URLs: the page previews and crops by token.
type Staging struct {
	mu    sync.Mutex
	limit int
	items []Staged
	now   func() time.Time
}

// NewStaging returns a Staging holding at most limit uploads; the oldest is dropped first.
func NewStaging(limit int) *Staging {
	if limit <= 0 {
		limit = DefaultStagingLimit
	}
	return &Staging{limit: limit, now: time.Now}
}

// Put stages img and returns its token.
func (s *Staging) Put(img image.Image) string {
	st := Staged{Token: uuid.NewString(), Image: img, StagedAt: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, st)
	if over := len(s.items) - s.limit; over > 0 {
		s.items = append([]Staged(nil), s.items[over:]...)
	}
	return st.Token
}

// Get returns the staged upload for token.
func (s *Staging) Get(token string) (Staged, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.items {
		if st.Token == token {
			return st, true
		}
	}
	return Staged{}, false
}

// Delete releases token.
func (s *Staging) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.items {
		if st.Token == token {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear releases everything.
func (s *Staging) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Len reports how many uploads are staged.
func (s *Staging) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
