// file: internal/metadata/source.go
// version: 2.0.0
// guid: 6686a7a3-fc1e-41dc-a7b7-ea3bdcb6b76c

package metadata

import "context"

// VolumeSearcher is the external book-search collaborator.
type VolumeSearcher interface {
	Name() string
	SearchVolumes(ctx context.Context, title, author string, maxResults int) ([]Volume, error)
}
