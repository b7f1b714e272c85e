// Package issue provides the issue-tracking types that commit messages
// refer to: issues, their statuses, projects and changeset relations.
package issue

// Issue is a tracked work item belonging to a project.
type Issue struct {
	id        int64
	projectID int64
	subject   string
	statusID  int64
	doneRatio int
}

// NewIssue creates a new Issue.
func NewIssue(projectID int64, subject string, statusID int64) Issue {
	return Issue{
		projectID: projectID,
		subject:   subject,
		statusID:  statusID,
	}
}

// ReconstructIssue reconstructs an Issue from persistence.
func ReconstructIssue(id, projectID int64, subject string, statusID int64, doneRatio int) Issue {
	return Issue{
		id:        id,
		projectID: projectID,
		subject:   subject,
		statusID:  statusID,
		doneRatio: doneRatio,
	}
}

// ID returns the issue ID.
func (i Issue) ID() int64 { return i.id }

// ProjectID returns the owning project ID.
func (i Issue) ProjectID() int64 { return i.projectID }

// Subject returns the issue subject.
func (i Issue) Subject() string { return i.subject }

// StatusID returns the current status ID.
func (i Issue) StatusID() int64 { return i.statusID }

// DoneRatio returns the completion percentage.
func (i Issue) DoneRatio() int { return i.doneRatio }

// WithID returns a copy with the specified ID.
func (i Issue) WithID(id int64) Issue {
	i.id = id
	return i
}

// WithStatusID returns a copy with a new status.
func (i Issue) WithStatusID(statusID int64) Issue {
	i.statusID = statusID
	return i
}

// WithDoneRatio returns a copy with the done ratio clamped to 0-100.
func (i Issue) WithDoneRatio(ratio int) Issue {
	i.doneRatio = min(max(ratio, 0), 100)
	return i
}
