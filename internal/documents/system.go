package documents

import (
	"context"

	"github.com/trackerzenith/docpipe/pkg/pagination"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id int64) (*Document, error)

	// Update locks the document row, resolves the requested status against the
	// stored one and applies the update through the status procedure.
	Update(ctx context.Context, id int64, u Update) (*Document, error)

	// CountSignature counts documents other than excludeID that carry
	// signature and have not failed.
	CountSignature(ctx context.Context, signature string, excludeID int64) (int, error)
}
