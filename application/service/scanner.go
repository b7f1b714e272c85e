package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/helixml/scmtrack/domain/issue"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/helixml/scmtrack/internal/database"
)

const scanBatchSize = 200

var (
	issueNumber = regexp.MustCompile(`\d+`)
	anyIssueRef = regexp.MustCompile(`(?:^|[\s(\[,-])#(\d+)\b`)
)

// Reference is one issue mentioned by a commit message.
type Reference struct {
	IssueID int64
	Kind    issue.RelationKind
}

// Scanner links changesets to the issues their comments mention and
// applies the status change of a fixing keyword.
type Scanner struct {
	repoStore      repository.RepositoryStore
	changesetStore repository.ChangesetStore
	issueStore     issue.IssueStore
	statusStore    issue.StatusStore
	projectStore   issue.ProjectStore
	relationStore  issue.RelationStore
	logger         *slog.Logger

	keywords     *regexp.Regexp
	fixKeywords  map[string]bool
	anyReference bool
	crossProject bool
}

// NewScanner creates a Scanner using the keyword grammar in settings.
func NewScanner(
	repoStore repository.RepositoryStore,
	changesetStore repository.ChangesetStore,
	issueStore issue.IssueStore,
	statusStore issue.StatusStore,
	projectStore issue.ProjectStore,
	relationStore issue.RelationStore,
	settings config.Settings,
	logger *slog.Logger,
) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scanner{
		repoStore:      repoStore,
		changesetStore: changesetStore,
		issueStore:     issueStore,
		statusStore:    statusStore,
		projectStore:   projectStore,
		relationStore:  relationStore,
		logger:         logger,
		fixKeywords:    make(map[string]bool),
		crossProject:   settings.CrossProjectRefs(),
	}

	var quoted []string
	for _, kw := range settings.RefKeywords() {
		if kw == "*" {
			s.anyReference = true
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	for _, kw := range settings.FixKeywords() {
		s.fixKeywords[strings.ToLower(kw)] = true
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	if len(quoted) > 0 {
		s.keywords = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") +
			`)[\s:]+(#?\d+(?:(?:\s*[,;&]\s*|\s+and\s+)#?\d+|\s+#\d+)*)`)
	}
	return s
}

// Parse returns the issue references in a commit message, in order of
// appearance. An issue named by a fixing keyword is a fix; any other
// mention is a reference. Each (issue, kind) pair appears once.
func (s *Scanner) Parse(comment string) []Reference {
	var refs []Reference
	seen := make(map[Reference]bool)
	add := func(id string, kind issue.RelationKind) {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n <= 0 {
			return
		}
		ref := Reference{IssueID: n, Kind: kind}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	if s.keywords != nil {
		for _, m := range s.keywords.FindAllStringSubmatch(comment, -1) {
			kind := issue.RelationReferences
			if s.fixKeywords[strings.ToLower(m[1])] {
				kind = issue.RelationFixes
			}
			for _, id := range issueNumber.FindAllString(m[2], -1) {
				add(id, kind)
			}
		}
	}
	if s.anyReference {
		for _, m := range anyIssueRef.FindAllStringSubmatch(comment, -1) {
			id, _ := strconv.ParseInt(m[1], 10, 64)
			if !seen[Reference{IssueID: id, Kind: issue.RelationFixes}] {
				add(m[1], issue.RelationReferences)
			}
		}
	}
	return refs
}

// ScanChangeset records the issue relations of one changeset and marks it
// scanned. It returns the number of relations that did not exist before.
func (s *Scanner) ScanChangeset(ctx context.Context, cs repository.Changeset) (int, error) {
	repo, err := s.repoStore.Get(ctx, cs.RepositoryID())
	if err != nil {
		return 0, fmt.Errorf("get repository: %w", err)
	}
	return s.scan(ctx, repo, cs)
}

// ScanRepository scans the unscanned changesets of a repository, or all
// of them when force is set, oldest first. Relations already recorded are
// left alone.
func (s *Scanner) ScanRepository(ctx context.Context, repositoryID int64, force bool) (int, error) {
	repo, err := s.repoStore.Get(ctx, repositoryID)
	if err != nil {
		return 0, fmt.Errorf("get repository: %w", err)
	}

	var lastID int64
	created := 0
	for {
		options := []repository.Option{
			repository.WithRepositoryID(repositoryID),
			repository.WithWhere("id > ?", lastID),
			repository.WithOrderAsc("id"),
			repository.WithLimit(scanBatchSize),
		}
		if !force {
			options = append(options, repository.WithScanned(false))
		}

		batch, err := s.changesetStore.Find(ctx, options...)
		if err != nil {
			return created, fmt.Errorf("find changesets: %w", err)
		}
		for _, cs := range batch {
			n, err := s.scan(ctx, repo, cs)
			if err != nil {
				return created, err
			}
			created += n
			lastID = cs.ID()
		}
		if len(batch) < scanBatchSize {
			break
		}
	}

	s.logger.Info("repository scanned",
		slog.Int64("repository_id", repositoryID),
		slog.Bool("force", force),
		slog.Int("relations", created),
	)
	return created, nil
}

func (s *Scanner) scan(ctx context.Context, repo repository.Repository, cs repository.Changeset) (int, error) {
	created := 0
	for _, ref := range s.Parse(cs.Comment()) {
		target, err := s.issueStore.Get(ctx, ref.IssueID)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("get issue %d: %w", ref.IssueID, err)
		}
		if !s.crossProject && target.ProjectID() != repo.ProjectID() {
			continue
		}

		isNew, err := s.relationStore.Save(ctx, issue.NewRelation(cs.ID(), target.ID(), ref.Kind))
		if err != nil {
			return created, fmt.Errorf("save relation: %w", err)
		}
		if !isNew {
			continue
		}
		created++
		if ref.Kind == issue.RelationFixes {
			s.fix(ctx, target, cs)
		}
	}

	if !cs.Scanned() {
		if err := s.changesetStore.MarkScanned(ctx, cs.ID()); err != nil {
			return created, fmt.Errorf("mark changeset scanned: %w", err)
		}
	}
	return created, nil
}

// fix moves an open issue to its project's fix status, or the first
// closed status. Failures are logged and otherwise ignored.
func (s *Scanner) fix(ctx context.Context, target issue.Issue, cs repository.Changeset) {
	warn := func(msg string, err error) {
		s.logger.Warn(msg,
			slog.Int64("issue_id", target.ID()),
			slog.String("revision", cs.Revision()),
			slog.String("error", err.Error()),
		)
	}

	current, err := s.statusStore.Get(ctx, target.StatusID())
	if err != nil {
		warn("issue status lookup failed", err)
		return
	}
	if current.IsClosed() {
		return
	}

	project, err := s.projectStore.Get(ctx, target.ProjectID())
	if err != nil {
		warn("issue project lookup failed", err)
		return
	}

	var status issue.Status
	if project.FixStatusID() > 0 {
		status, err = s.statusStore.Get(ctx, project.FixStatusID())
	} else {
		status, err = s.statusStore.FirstClosed(ctx)
	}
	if err != nil {
		warn("fix status lookup failed", err)
		return
	}

	updated := target.WithStatusID(status.ID())
	if project.HasFixDoneRatio() {
		updated = updated.WithDoneRatio(project.FixDoneRatio())
	}
	if _, err := s.issueStore.Save(ctx, updated); err != nil {
		warn("issue status transition failed", err)
		return
	}

	s.logger.Info("issue fixed by changeset",
		slog.Int64("issue_id", target.ID()),
		slog.String("status", status.Name()),
		slog.String("revision", cs.Revision()),
	)
}
