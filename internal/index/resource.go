package index

import (
	"time"

	"github.com/arklib/ark/internal/hashid"
)

// Resource is a (id, relative path, last modified) triple, per
// SPEC_FULL.md §3's IndexedResource.
type Resource struct {
	Id           hashid.Id
	Path         string
	LastModified time.Time
}
