package issue

// NoDoneRatio leaves an issue's done ratio untouched when it is fixed.
const NoDoneRatio = -1

// Project owns issues and repositories. It decides what a "fixes" keyword
// does to an issue.
type Project struct {
	id           int64
	identifier   string
	name         string
	fixStatusID  int64
	fixDoneRatio int
}

// NewProject creates a Project with no fix status override.
func NewProject(identifier, name string) Project {
	return Project{
		identifier:   identifier,
		name:         name,
		fixDoneRatio: NoDoneRatio,
	}
}

// ReconstructProject reconstructs a Project from persistence.
func ReconstructProject(id int64, identifier, name string, fixStatusID int64, fixDoneRatio int) Project {
	return Project{
		id:           id,
		identifier:   identifier,
		name:         name,
		fixStatusID:  fixStatusID,
		fixDoneRatio: fixDoneRatio,
	}
}

// ID returns the project ID.
func (p Project) ID() int64 { return p.id }

// Identifier returns the project's short identifier.
func (p Project) Identifier() string { return p.identifier }

// Name returns the project name.
func (p Project) Name() string { return p.name }

// FixStatusID returns the status applied by "fixes", or 0 for the first
// closed status.
func (p Project) FixStatusID() int64 { return p.fixStatusID }

// FixDoneRatio returns the done ratio applied by "fixes", or NoDoneRatio.
func (p Project) FixDoneRatio() int { return p.fixDoneRatio }

// HasFixDoneRatio reports whether fixing sets a done ratio.
func (p Project) HasFixDoneRatio() bool { return p.fixDoneRatio >= 0 }

// WithID returns a copy with the specified ID.
func (p Project) WithID(id int64) Project {
	p.id = id
	return p
}

// WithFixStatus returns a copy that moves fixed issues to statusID and,
// when ratio is not NoDoneRatio, sets their done ratio.
func (p Project) WithFixStatus(statusID int64, ratio int) Project {
	p.fixStatusID = statusID
	if ratio < 0 {
		ratio = NoDoneRatio
	}
	p.fixDoneRatio = min(ratio, 100)
	return p
}
