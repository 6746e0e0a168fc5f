// file: internal/metadata/source_test.go
// version: 2.0.0
// guid: f6a7b8c9-d0e1-2f3a-4b5c-d6e7f8a9b0c1

package metadata

import "testing"

// TestInterfaceCompliance verifies all clients implement VolumeSearcher.
func TestInterfaceCompliance(t *testing.T) {
	var _ VolumeSearcher = (*GoogleBooksClient)(nil)
}
