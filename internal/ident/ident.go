// internal/ident/ident.go
package ident

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source produces collision-free opaque identifiers. The engine never
// inspects them beyond prefix matching.
type Source interface {
	NewID() string
}

// UUIDSource is the default Source, backed by random UUIDs.
type UUIDSource struct{}

func (UUIDSource) NewID() string {
	return uuid.NewString()
}

// Sequence is a deterministic Source for tests: prefix-0, prefix-1, ...
type Sequence struct {
	prefix string
	mu     sync.Mutex
	next   int
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s-%d", s.prefix, s.next)
	s.next++
	return id
}

// StampLayout is the ISO-8601 UTC timestamp format used everywhere a
// date is recorded.
const StampLayout = "2006-01-02T15:04:05.000Z"

// Clock supplies ISO-8601 UTC timestamps.
type Clock interface {
	Now() string
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() string {
	return time.Now().UTC().Format(StampLayout)
}

// FixedClock always reports the same instant. Tests pin history dates
// with it.
type FixedClock struct {
	Stamp string
}

func (c FixedClock) Now() string {
	return c.Stamp
}
