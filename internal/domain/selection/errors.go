package selection

import "errors"

// Operation outcomes. All are recoverable: the caller maps them to
// user-facing messaging and may re-invoke the same operation.
var (
	// ErrCapacityExceeded means a toggle-to-select was attempted while the
	// pending set is already at the plan's selection cap. State unchanged.
	ErrCapacityExceeded = errors.New("selection capacity exceeded for plan")

	// ErrValidation means a custom firm was submitted with an empty name
	// or match keyword. State unchanged.
	ErrValidation = errors.New("invalid firm input")

	// ErrPlanRestricted means custom firm creation was attempted below the
	// premium tier. State unchanged.
	ErrPlanRestricted = errors.New("feature not available on current plan")

	// ErrPersistence means the commit collaborator rejected the write.
	// Pending edits are preserved so the caller can retry.
	ErrPersistence = errors.New("could not persist selections")

	// ErrUnknownFirm means a toggle referenced an id absent from the
	// pending set.
	ErrUnknownFirm = errors.New("unknown firm")
)
