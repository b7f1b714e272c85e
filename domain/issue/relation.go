package issue

// RelationKind distinguishes a plain reference from a fix.
type RelationKind string

// RelationKind values.
const (
	RelationReferences RelationKind = "references"
	RelationFixes      RelationKind = "fixes"
)

// Relation links a changeset to an issue its comment mentions.
// (changeset, issue, kind) is unique.
type Relation struct {
	changesetID int64
	issueID     int64
	kind        RelationKind
}

// NewRelation creates a Relation.
func NewRelation(changesetID, issueID int64, kind RelationKind) Relation {
	return Relation{
		changesetID: changesetID,
		issueID:     issueID,
		kind:        kind,
	}
}

// ChangesetID returns the changeset ID.
func (r Relation) ChangesetID() int64 { return r.changesetID }

// IssueID returns the issue ID.
func (r Relation) IssueID() int64 { return r.issueID }

// Kind returns the relation kind.
func (r Relation) Kind() RelationKind { return r.kind }
