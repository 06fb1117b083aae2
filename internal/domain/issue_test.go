package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewIssueDefaults(t *testing.T) {
	issue := NewIssue("Printer down", "desc", "", "", nil, nil)

	if issue.Status != IssueStatusOpen {
		t.Fatalf("expected status OPEN, got %s", issue.Status)
	}
	if issue.Priority != IssuePriorityNormal {
		t.Fatalf("expected priority NORMAL, got %s", issue.Priority)
	}
	if issue.Requester != "Unknown" {
		t.Fatalf("expected requester Unknown, got %q", issue.Requester)
	}
	if issue.UpdatedAt != nil {
		t.Fatalf("expected nil UpdatedAt on a fresh issue")
	}
	if issue.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}
	if issue.Tags == nil || len(issue.Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", issue.Tags)
	}
}

func TestNewIssueWithAssigneeStartsInProgress(t *testing.T) {
	user := &User{ID: 42, Username: "alice"}
	issue := NewIssue("Printer down", "", "bob", IssuePriorityHigh, nil, user)

	if issue.Status != IssueStatusInProgress {
		t.Fatalf("expected status IN_PROGRESS, got %s", issue.Status)
	}
	if issue.AssignedUser == nil || issue.AssignedUser.ID != 42 {
		t.Fatalf("expected assigned user 42")
	}
}

func TestAssignNilUser(t *testing.T) {
	issue := NewIssue("t", "", "", "", nil, nil)
	if err := issue.Assign(nil); !errors.Is(err, ErrNilUser) {
		t.Fatalf("expected ErrNilUser, got %v", err)
	}
}

func TestAssignThenUnassignRestoresOpen(t *testing.T) {
	statuses := []IssueStatus{IssueStatusOpen, IssueStatusResolved, IssueStatusClosed, IssueStatusRejected}
	user := &User{ID: 7}

	for _, initial := range statuses {
		issue := NewIssue("t", "", "", "", nil, nil)
		issue.ForceStatus(initial)

		if err := issue.Assign(user); err != nil {
			t.Fatalf("assign from %s: %v", initial, err)
		}
		if issue.Status != IssueStatusInProgress {
			t.Fatalf("expected IN_PROGRESS after assign from %s, got %s", initial, issue.Status)
		}

		issue.Unassign()
		if issue.Status != IssueStatusOpen {
			t.Fatalf("expected OPEN after unassign, got %s", issue.Status)
		}
		if issue.AssignedUser != nil {
			t.Fatalf("expected cleared assignee after unassign")
		}
	}
}

func TestResolveOnlyFromInProgress(t *testing.T) {
	for _, status := range []IssueStatus{IssueStatusOpen, IssueStatusResolved, IssueStatusClosed, IssueStatusRejected} {
		issue := NewIssue("t", "", "", "", nil, nil)
		issue.ForceStatus(status)

		err := issue.Resolve()
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError from %s, got %v", status, err)
		}
		if invalid.From != status || invalid.To != IssueStatusResolved {
			t.Fatalf("unexpected transition error: %v", invalid)
		}
		if issue.Status != status {
			t.Fatalf("status must not change on failed resolve, got %s", issue.Status)
		}
	}

	issue := NewIssue("t", "", "", "", nil, nil)
	issue.ForceStatus(IssueStatusInProgress)
	if err := issue.Resolve(); err != nil {
		t.Fatalf("resolve from IN_PROGRESS: %v", err)
	}
	if issue.Status != IssueStatusResolved {
		t.Fatalf("expected RESOLVED, got %s", issue.Status)
	}
}

func TestCloseOnlyFromResolved(t *testing.T) {
	for _, status := range []IssueStatus{IssueStatusOpen, IssueStatusInProgress, IssueStatusClosed, IssueStatusRejected} {
		issue := NewIssue("t", "", "", "", nil, nil)
		issue.ForceStatus(status)

		var invalid *InvalidTransitionError
		if err := issue.Close(); !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError from %s, got %v", status, err)
		}
	}

	issue := NewIssue("t", "", "", "", nil, nil)
	issue.ForceStatus(IssueStatusResolved)
	if err := issue.Close(); err != nil {
		t.Fatalf("close from RESOLVED: %v", err)
	}
	if issue.Status != IssueStatusClosed {
		t.Fatalf("expected CLOSED, got %s", issue.Status)
	}
}

func TestRejectAppendsReasonOnce(t *testing.T) {
	issue := NewIssue("t", "broken", "", "", nil, nil)
	issue.Reject("duplicate")

	if issue.Status != IssueStatusRejected {
		t.Fatalf("expected REJECTED, got %s", issue.Status)
	}
	want := "broken\n\nRejection reason: duplicate"
	if issue.Description != want {
		t.Fatalf("description = %q, want %q", issue.Description, want)
	}
	if strings.Count(issue.Description, "Rejection reason:") != 1 {
		t.Fatalf("reason appended more than once: %q", issue.Description)
	}
}

func TestForceStatusBypassesGuards(t *testing.T) {
	issue := NewIssue("t", "", "", "", nil, nil)
	issue.ForceStatus(IssueStatusClosed)
	if issue.Status != IssueStatusClosed {
		t.Fatalf("expected CLOSED, got %s", issue.Status)
	}
	issue.ForceStatus(IssueStatusResolved)
	if issue.Status != IssueStatusResolved {
		t.Fatalf("expected RESOLVED, got %s", issue.Status)
	}
}

func TestCollaboratorSetSemantics(t *testing.T) {
	issue := NewIssue("t", "", "", "", nil, nil)
	alice := &User{ID: 1, Username: "alice"}
	bob := &User{ID: 2, Username: "bob"}

	if err := issue.AddCollaborator(nil); !errors.Is(err, ErrNilUser) {
		t.Fatalf("expected ErrNilUser, got %v", err)
	}

	_ = issue.AddCollaborator(alice)
	_ = issue.AddCollaborator(bob)
	_ = issue.AddCollaborator(&User{ID: 1, Username: "alice-copy"})

	if len(issue.Collaborators) != 2 {
		t.Fatalf("expected 2 collaborators, got %d", len(issue.Collaborators))
	}
	if !issue.HasCollaborator(1) || !issue.HasCollaborator(2) {
		t.Fatalf("expected collaborators 1 and 2")
	}

	_ = issue.RemoveCollaborator(alice)
	if issue.HasCollaborator(1) {
		t.Fatalf("expected collaborator 1 removed")
	}
	if !issue.HasCollaborator(2) {
		t.Fatalf("collaborator 2 must survive removal of 1")
	}
}

func TestMutationsTouchUpdatedAt(t *testing.T) {
	issue := NewIssue("t", "", "", "", nil, nil)
	if issue.UpdatedAt != nil {
		t.Fatalf("fresh issue must have nil UpdatedAt")
	}
	issue.UpdateDetails("t2", "d2")
	if issue.UpdatedAt == nil {
		t.Fatalf("expected UpdatedAt set after mutation")
	}
}

func TestParsePriority(t *testing.T) {
	cases := map[string]IssuePriority{
		"HIGH":    IssuePriorityHigh,
		"high":    IssuePriorityHigh,
		" urgent": IssuePriorityUrgent,
		"bogus":   IssuePriorityNormal,
		"":        IssuePriorityNormal,
	}
	for raw, want := range cases {
		if got := ParsePriority(raw); got != want {
			t.Errorf("ParsePriority(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("in_progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != IssueStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", status)
	}

	if _, err := ParseStatus("nonsense"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
