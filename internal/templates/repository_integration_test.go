package templates

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The repository's cascade rules live in SQL, so they are exercised against a
// real Postgres. Set CERTFORGE_TEST_DATABASE_URL to run these; the tables are
// temporary and vanish with the connection.
const integrationSchema = `
	CREATE TEMPORARY TABLE cert_templates (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		course_id UUID,
		allow_reissue BOOLEAN NOT NULL,
		auto_award BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TEMPORARY TABLE cert_pages (
		id UUID PRIMARY KEY,
		template_id UUID NOT NULL,
		sequence INT NOT NULL,
		width_mm DOUBLE PRECISION NOT NULL,
		height_mm DOUBLE PRECISION NOT NULL,
		margin_mm DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TEMPORARY TABLE cert_elements (
		id UUID PRIMARY KEY,
		page_id UUID NOT NULL,
		type_tag TEXT NOT NULL,
		sequence INT NOT NULL,
		pos_x DOUBLE PRECISION NOT NULL,
		pos_y DOUBLE PRECISION NOT NULL,
		width DOUBLE PRECISION NOT NULL,
		config JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TEMPORARY TABLE cert_issues (
		id UUID PRIMARY KEY,
		template_id UUID NOT NULL,
		template_name TEXT NOT NULL,
		user_id UUID NOT NULL,
		course_id UUID,
		code TEXT NOT NULL,
		issued_at TIMESTAMPTZ NOT NULL,
		emailed_at TIMESTAMPTZ,
		revoked_at TIMESTAMPTZ
	);`

func newIntegrationRepo(t *testing.T) (Repository, *sqlx.DB) {
	t.Helper()
	dsn := os.Getenv("CERTFORGE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CERTFORGE_TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	// Temporary tables are per-connection; a single-conn pool keeps every
	// statement, including transactions, on the connection that owns them.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(integrationSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), db
}

func seedPageWithElements(t *testing.T, ctx context.Context, repo Repository, templateID uuid.UUID, seq int) (Page, []Element) {
	t.Helper()
	now := time.Now().UTC()
	page := Page{
		ID: uuid.New(), TemplateID: templateID, Sequence: seq,
		WidthMM: 210, HeightMM: 297, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreatePage(ctx, &page))

	var els []Element
	for i := 1; i <= 2; i++ {
		el := Element{
			ID: uuid.New(), PageID: page.ID, TypeTag: "text", Sequence: i,
			Config: ConfigJSON{"content": "x"}, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, repo.CreateElement(ctx, &el))
		els = append(els, el)
	}
	return page, els
}

func seedTemplate(t *testing.T, ctx context.Context, repo Repository) Template {
	t.Helper()
	now := time.Now().UTC()
	tmpl := Template{ID: uuid.New(), Name: "cert", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateTemplate(ctx, &tmpl))
	return tmpl
}

func TestDeletePageRemovesExactlyItsOwnElements(t *testing.T) {
	repo, _ := newIntegrationRepo(t)
	ctx := context.Background()

	tmpl := seedTemplate(t, ctx, repo)
	doomed, _ := seedPageWithElements(t, ctx, repo, tmpl.ID, 1)
	kept, keptEls := seedPageWithElements(t, ctx, repo, tmpl.ID, 2)

	require.NoError(t, repo.DeletePage(ctx, doomed.ID))

	_, err := repo.GetPage(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	gone, err := repo.ListElements(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	survivors, err := repo.ListElements(ctx, kept.ID)
	require.NoError(t, err)
	require.Len(t, survivors, len(keptEls))
	assert.Equal(t, keptEls[0].ID, survivors[0].ID)

	assert.ErrorIs(t, repo.DeletePage(ctx, doomed.ID), ErrNotFound)
}

func TestCreateElementAssignsSequenceAtInsert(t *testing.T) {
	repo, _ := newIntegrationRepo(t)
	ctx := context.Background()

	tmpl := seedTemplate(t, ctx, repo)
	page, _ := seedPageWithElements(t, ctx, repo, tmpl.ID, 1)

	now := time.Now().UTC()
	newElement := func(seq int) *Element {
		return &Element{
			ID: uuid.New(), PageID: page.ID, TypeTag: "text", Sequence: seq,
			Config: ConfigJSON{}, CreatedAt: now, UpdatedAt: now,
		}
	}

	// Zero-sequence inserts take the next paint-order slot after the two
	// seeded elements; preset sequences are stored verbatim.
	third := newElement(0)
	require.NoError(t, repo.CreateElement(ctx, third))
	assert.Equal(t, 3, third.Sequence)

	fourth := newElement(0)
	require.NoError(t, repo.CreateElement(ctx, fourth))
	assert.Equal(t, 4, fourth.Sequence)

	preset := newElement(9)
	require.NoError(t, repo.CreateElement(ctx, preset))
	assert.Equal(t, 9, preset.Sequence)
}

func TestDeleteTemplateCascadesPagesElementsAndIssues(t *testing.T) {
	repo, db := newIntegrationRepo(t)
	ctx := context.Background()

	insertIssue := func(templateID uuid.UUID, code string) {
		_, err := db.Exec(`
			INSERT INTO cert_issues (id, template_id, template_name, user_id, code, issued_at)
			VALUES ($1, $2, 'cert', $3, $4, NOW())`,
			uuid.New(), templateID, uuid.New(), code)
		require.NoError(t, err)
	}

	doomed := seedTemplate(t, ctx, repo)
	doomedPage, _ := seedPageWithElements(t, ctx, repo, doomed.ID, 1)
	insertIssue(doomed.ID, "DOOMEDCODE01")

	kept := seedTemplate(t, ctx, repo)
	keptPage, _ := seedPageWithElements(t, ctx, repo, kept.ID, 1)
	insertIssue(kept.ID, "KEPTCODE0001")

	require.NoError(t, repo.DeleteTemplate(ctx, doomed.ID))

	_, err := repo.GetTemplate(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	pages, err := repo.ListPages(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, pages)

	els, err := repo.ListElements(ctx, doomedPage.ID)
	require.NoError(t, err)
	assert.Empty(t, els)

	var issues int
	require.NoError(t, db.Get(&issues, "SELECT COUNT(*) FROM cert_issues WHERE template_id = $1", doomed.ID))
	assert.Zero(t, issues)

	// The sibling template's tree and ledger are untouched.
	survivors, err := repo.ListElements(ctx, keptPage.ID)
	require.NoError(t, err)
	assert.Len(t, survivors, 2)
	require.NoError(t, db.Get(&issues, "SELECT COUNT(*) FROM cert_issues WHERE template_id = $1", kept.ID))
	assert.Equal(t, 1, issues)

	assert.ErrorIs(t, repo.DeleteTemplate(ctx, doomed.ID), ErrNotFound)
}
