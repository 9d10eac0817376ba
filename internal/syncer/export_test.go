// internal/syncer/export_test.go
package syncer

// SetTopUpLimit overrides the top-up buffer cap for tests.
func (s *Syncer) SetTopUpLimit(n int) { s.topUpLimit = n }
