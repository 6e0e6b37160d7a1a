package pipeline

import (
	"fmt"

	"github.com/feichai0017/dedup-scanner/internal/models"
)

// grouper accumulates hashed files keyed by digest, preserving the order in
// which each digest was first observed.
type grouper struct {
	order  []string
	byHash map[string][]models.HashedFile
}

func newGrouper() *grouper {
	return &grouper{
		byHash: make(map[string][]models.HashedFile),
	}
}

func (g *grouper) add(file models.HashedFile) {
	if _, ok := g.byHash[file.Hash]; !ok {
		g.order = append(g.order, file.Hash)
	}
	g.byHash[file.Hash] = append(g.byHash[file.Hash], file)
}

// finalize filters to digests with 2+ members and assigns sequential group
// ids in discovery order. Singleton digests are dropped silently.
func (g *grouper) finalize() []models.DuplicateGroup {
	groups := make([]models.DuplicateGroup, 0)
	for _, hash := range g.order {
		files := g.byHash[hash]
		if len(files) < 2 {
			continue
		}
		groups = append(groups, models.DuplicateGroup{
			ID:    fmt.Sprintf("group-%d", len(groups)),
			Hash:  hash,
			Size:  files[0].Size,
			Files: files,
		})
	}
	return groups
}
