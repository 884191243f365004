package issues

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Issue records that a recipient was given a rendered document from a
// template. The template name is captured by value at issue time: later
// template edits never retroactively alter past issues. Issues are never
// mutated after creation except for revocation and the emailed marker.
type Issue struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TemplateID   uuid.UUID  `db:"template_id" json:"template_id"`
	TemplateName string     `db:"template_name" json:"template_name"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	CourseID     uuid.UUID  `db:"course_id" json:"course_id"`
	Code         string     `db:"code" json:"code"`
	IssuedAt     time.Time  `db:"issued_at" json:"issued_at"`
	EmailedAt    *time.Time `db:"emailed_at" json:"emailed_at,omitempty"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// Active reports whether the issue has not been revoked.
func (i *Issue) Active() bool {
	return i.RevokedAt == nil
}

// ErrDuplicateIssue matches any *DuplicateIssueError via errors.Is.
var ErrDuplicateIssue = errors.New("duplicate issue")

// DuplicateIssueError reports a reissue policy violation: the recipient
// already holds an active issue for the template and the template does not
// allow reissue.
type DuplicateIssueError struct {
	TemplateID uuid.UUID
	UserID     uuid.UUID
}

func (e *DuplicateIssueError) Error() string {
	return fmt.Sprintf("user %s already holds an active issue for template %s", e.UserID, e.TemplateID)
}

func (e *DuplicateIssueError) Is(target error) bool {
	return target == ErrDuplicateIssue
}

// IntegrityError reports a ledger invariant violation, such as a
// verification-code collision. Fatal for the operation: it is surfaced to
// the operator, never retried.
type IntegrityError struct {
	Op  string
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("issue ledger integrity violation during %s: %v", e.Op, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
