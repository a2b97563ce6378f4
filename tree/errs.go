package tree

import "errors"

var (
	// ErrNodeNotFound reports that an index, key or position does not
	// resolve to an existing node, or that the node lacks the
	// requested facet (key, value, tag, anchor, reference).
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidChange reports a structural edit that would lose data,
	// such as turning a container with children into a scalar.
	ErrInvalidChange = errors.New("invalid structural change")

	// ErrSameTree reports a cross-tree operation invoked with the same
	// tree as source and destination.
	ErrSameTree = errors.New("source and destination tree are the same")

	// ErrResolve reports a dangling alias during reference resolution.
	ErrResolve = errors.New("resolve error")
)
