package issue

// Status is an entry of the issue status lookup table.
// Exactly one status is the default.
type Status struct {
	id        int64
	name      string
	isClosed  bool
	isDefault bool
	position  int
}

// NewStatus creates a new Status.
func NewStatus(name string, isClosed, isDefault bool, position int) Status {
	return Status{
		name:      name,
		isClosed:  isClosed,
		isDefault: isDefault,
		position:  position,
	}
}

// ReconstructStatus reconstructs a Status from persistence.
func ReconstructStatus(id int64, name string, isClosed, isDefault bool, position int) Status {
	return Status{
		id:        id,
		name:      name,
		isClosed:  isClosed,
		isDefault: isDefault,
		position:  position,
	}
}

// ID returns the status ID.
func (s Status) ID() int64 { return s.id }

// Name returns the status name.
func (s Status) Name() string { return s.name }

// IsClosed reports whether issues with this status are closed.
func (s Status) IsClosed() bool { return s.isClosed }

// IsDefault reports whether this is the status of new issues.
func (s Status) IsDefault() bool { return s.isDefault }

// Position returns the display position.
func (s Status) Position() int { return s.position }

// WithID returns a copy with the specified ID.
func (s Status) WithID(id int64) Status {
	s.id = id
	return s
}

// WithDefault returns a copy with the default flag set.
func (s Status) WithDefault(isDefault bool) Status {
	s.isDefault = isDefault
	return s
}
