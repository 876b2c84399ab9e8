// Package rules decides which audit records get flagged.
package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Vendor set errors.
var (
	ErrEmptyVendor     = errors.New("vendor name cannot be empty")
	ErrDuplicateVendor = errors.New("vendor is already in the trusted list")
	ErrVendorNotFound  = errors.New("vendor is not in the trusted list")
)

// TrustedVendorSet is a case-insensitive set of merchant names. Listing
// preserves insertion order and the original spelling.
type TrustedVendorSet struct {
	index map[string]int
	names []string
}

// NewTrustedVendorSet builds a set from names, skipping blanks and
// case-insensitive duplicates.
func NewTrustedVendorSet(names ...string) *TrustedVendorSet {
	s := &TrustedVendorSet{index: make(map[string]int)}
	for _, name := range names {
		_ = s.Add(name)
	}
	return s
}

func normalizeVendor(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add inserts a vendor. Names are trimmed; a case-insensitive duplicate is
// rejected.
func (s *TrustedVendorSet) Add(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyVendor
	}
	key := normalizeVendor(trimmed)
	if _, ok := s.index[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVendor, trimmed)
	}
	s.index[key] = len(s.names)
	s.names = append(s.names, trimmed)
	return nil
}

// Remove deletes a vendor, matching case-insensitively.
func (s *TrustedVendorSet) Remove(name string) error {
	key := normalizeVendor(name)
	pos, ok := s.index[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVendorNotFound, strings.TrimSpace(name))
	}

	s.names = append(s.names[:pos], s.names[pos+1:]...)
	delete(s.index, key)
	for i := pos; i < len(s.names); i++ {
		s.index[normalizeVendor(s.names[i])] = i
	}
	return nil
}

// Contains reports whether merchant matches a trusted vendor. An empty
// merchant never matches.
func (s *TrustedVendorSet) Contains(merchant string) bool {
	if s == nil {
		return false
	}
	key := normalizeVendor(merchant)
	if key == "" {
		return false
	}
	_, ok := s.index[key]
	return ok
}

// Lookup returns the stored spelling of the vendor matching name.
func (s *TrustedVendorSet) Lookup(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	pos, ok := s.index[normalizeVendor(name)]
	if !ok {
		return "", false
	}
	return s.names[pos], true
}

// Names returns the vendors in insertion order.
func (s *TrustedVendorSet) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Len returns the number of trusted vendors.
func (s *TrustedVendorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Clone returns an independent copy. Evaluations take a snapshot so that
// later edits cannot change a run already in progress.
func (s *TrustedVendorSet) Clone() *TrustedVendorSet {
	return NewTrustedVendorSet(s.Names()...)
}
