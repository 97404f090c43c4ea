package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Skryldev/jobboard/apperr"
	"github.com/Skryldev/jobboard/db"
	"github.com/Skryldev/jobboard/models"
	"github.com/Skryldev/jobboard/query"
)

// ─────────────────────────────────────────────────────────────────────────────
// JobRepository interface
// ─────────────────────────────────────────────────────────────────────────────

// JobRepository defines the persistence operations on jobs.
type JobRepository interface {
	Create(ctx context.Context, j models.NewJob) (*models.Job, error)
	CreateMany(ctx context.Context, jobs []models.NewJob) ([]*models.Job, error)
	FindAll(ctx context.Context, f models.JobFilter) ([]*models.Job, error)
	Get(ctx context.Context, id int64) (*models.JobDetail, error)
	Update(ctx context.Context, id int64, u models.JobUpdate) (*models.Job, error)
	Remove(ctx context.Context, id int64) error
}

type jobRepo struct {
	q db.Querier
}

// NewJobRepo returns a JobRepository backed by q, which may be a *db.DB or a
// *db.Tx.
func NewJobRepo(q db.Querier) JobRepository {
	return &jobRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL
// ─────────────────────────────────────────────────────────────────────────────

// Statements take their placeholders through %s so each dialect renders its
// own markers.
const (
	jobColumns = `id, title, salary, equity, company_handle`

	sqlInsertJob = `
		INSERT INTO jobs (title, salary, equity, company_handle)
		VALUES (%s, %s, %s, %s)`

	sqlGetJob = `
		SELECT ` + jobColumns + `
		FROM   jobs
		WHERE  id = %s`

	sqlListJobs = `
		SELECT j.id, j.title, j.salary, j.equity, j.company_handle,
		       c.name AS company_name
		FROM   jobs j
		LEFT   JOIN companies c ON c.handle = j.company_handle`

	sqlUpdateJob = `
		UPDATE jobs
		SET    %s
		WHERE  id = %s`

	sqlDeleteJob = `
		DELETE FROM jobs WHERE id = %s`
)

func insertJobSQL(d query.Dialect) string {
	return fmt.Sprintf(sqlInsertJob, d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
}

func newJobArgs(j models.NewJob) []any {
	return []any{j.Title, j.Salary, j.Equity, j.CompanyHandle}
}

// ─────────────────────────────────────────────────────────────────────────────
// Filter compiler
// ─────────────────────────────────────────────────────────────────────────────

// CompileJobFilter renders f as an AND-joined predicate list and its values,
// in the fixed order title, salary, equity. No criteria yields ("", nil):
// the caller appends no WHERE clause at all.
//
//	CompileJobFilter(query.Postgres, models.JobFilter{
//	    Title:     mo.Some("eng"),
//	    MinSalary: mo.Some[int64](50000),
//	})
//	// "title ILIKE $1 AND salary >= $2", ["%eng%" 50000]
func CompileJobFilter(d query.Dialect, f models.JobFilter) (string, []any) {
	args := query.NewArgs(d)
	w := args.Where()
	if title, ok := f.Title.Get(); ok {
		w.Contains("title", title)
	}
	if minSalary, ok := f.MinSalary.Get(); ok {
		w.Cmp("salary", ">=", minSalary)
	}
	if f.HasEquity.OrElse(false) {
		w.Raw("equity > 0")
	}
	if w.Empty() {
		return "", nil
	}
	return w.String(), args.Values()
}

// ─────────────────────────────────────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts a job. Identical jobs may coexist; each gets its own id.
func (r *jobRepo) Create(ctx context.Context, j models.NewJob) (*models.Job, error) {
	d := r.q.Dialect()
	stmt := insertJobSQL(d)
	if d.Returning() {
		job, err := scanJob(r.q.QueryRow(ctx, stmt+" RETURNING "+jobColumns, newJobArgs(j)...))
		if err != nil {
			return nil, jobInsertErr(err, j)
		}
		return job, nil
	}

	res, err := r.q.Exec(ctx, stmt, newJobArgs(j)...)
	if err != nil {
		return nil, jobInsertErr(err, j)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("repo/job: last insert id: %w", err)
	}
	return r.job(ctx, id)
}

// CreateMany inserts jobs through one prepared statement. Run it inside
// ExecTx when all-or-nothing is required.
func (r *jobRepo) CreateMany(ctx context.Context, jobs []models.NewJob) ([]*models.Job, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	d := r.q.Dialect()
	stmtSQL := insertJobSQL(d)
	if d.Returning() {
		stmtSQL += " RETURNING " + jobColumns
	}

	stmt, err := r.q.Prepare(ctx, stmtSQL)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	out := make([]*models.Job, 0, len(jobs))
	for _, j := range jobs {
		var job *models.Job
		if d.Returning() {
			job, err = scanJob(stmt.QueryRow(ctx, newJobArgs(j)...))
		} else {
			job, err = r.execInsert(ctx, stmt, j)
		}
		if err != nil {
			return nil, jobInsertErr(err, j)
		}
		out = append(out, job)
	}
	return out, nil
}

func (r *jobRepo) execInsert(ctx context.Context, stmt *db.Stmt, j models.NewJob) (*models.Job, error) {
	res, err := stmt.Exec(ctx, newJobArgs(j)...)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("repo/job: last insert id: %w", err)
	}
	return r.job(ctx, id)
}

func jobInsertErr(err error, j models.NewJob) error {
	if db.IsForeignKeyViolation(err) {
		return apperr.Wrap(apperr.KindBadRequest, "Unknown company: "+j.CompanyHandle, err)
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// FindAll
// ─────────────────────────────────────────────────────────────────────────────

// FindAll lists jobs with their company name, ordered by id, narrowed by f.
func (r *jobRepo) FindAll(ctx context.Context, f models.JobFilter) ([]*models.Job, error) {
	stmt := sqlListJobs
	where, vals := CompileJobFilter(r.q.Dialect(), f)
	if where != "" {
		stmt += "\n\t\tWHERE  " + where
	}
	stmt += "\n\t\tORDER  BY j.id"

	rows, err := r.q.Query(ctx, stmt, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*models.Job{}
	if err := sqlx.StructScan(rows, &jobs); err != nil {
		return nil, fmt.Errorf("repo/job: scan: %w", err)
	}
	return jobs, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Get
// ─────────────────────────────────────────────────────────────────────────────

// Get returns the job and, from a second read, its company. The reads are
// not transactional: a company removed in between leaves Company nil.
func (r *jobRepo) Get(ctx context.Context, id int64) (*models.JobDetail, error) {
	j, err := r.job(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.JobDetail{
		ID:            j.ID,
		Title:         j.Title,
		Salary:        j.Salary,
		Equity:        j.Equity,
		CompanyHandle: j.CompanyHandle,
	}
	c, err := companyByHandle(ctx, r.q, j.CompanyHandle)
	switch {
	case err == nil:
		detail.Company = c
	case !db.IsNotFound(err):
		return nil, err
	}
	return detail, nil
}

func (r *jobRepo) job(ctx context.Context, id int64) (*models.Job, error) {
	args := query.NewArgs(r.q.Dialect())
	j, err := scanJob(r.q.QueryRow(ctx, fmt.Sprintf(sqlGetJob, args.Add(id)), args.Values()...))
	if db.IsNotFound(err) {
		return nil, noJob(id)
	}
	return j, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Update
// ─────────────────────────────────────────────────────────────────────────────

// Update applies the supplied fields of u. An update naming no field fails
// with query.ErrNoData before any statement runs.
func (r *jobRepo) Update(ctx context.Context, id int64, u models.JobUpdate) (*models.Job, error) {
	d := r.q.Dialect()
	args := query.NewArgs(d)
	set, err := args.Set(u.Assignments(), nil)
	if err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(sqlUpdateJob, set, args.Add(id))

	if d.Returning() {
		j, err := scanJob(r.q.QueryRow(ctx, stmt+" RETURNING "+jobColumns, args.Values()...))
		if db.IsNotFound(err) {
			return nil, noJob(id)
		}
		return j, err
	}

	if err := execAffecting(ctx, r.q, stmt, args.Values(), noJob(id)); err != nil {
		return nil, err
	}
	return r.job(ctx, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Remove
// ─────────────────────────────────────────────────────────────────────────────

// Remove deletes a job by id.
func (r *jobRepo) Remove(ctx context.Context, id int64) error {
	args := query.NewArgs(r.q.Dialect())
	return execAffecting(ctx, r.q, fmt.Sprintf(sqlDeleteJob, args.Add(id)), args.Values(), noJob(id))
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func noJob(id int64) error { return apperr.NotFound("No job: %d", id) }

func scanJob(row *db.Row) (*models.Job, error) {
	j := &models.Job{}
	if err := row.Scan(&j.ID, &j.Title, &j.Salary, &j.Equity, &j.CompanyHandle); err != nil {
		return nil, fmt.Errorf("repo/job: %w", err)
	}
	return j, nil
}

// execAffecting runs stmt and returns notFound when it touched no row.
func execAffecting(ctx context.Context, q db.Querier, stmt string, vals []any, notFound error) error {
	res, err := q.Exec(ctx, stmt, vals...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ JobRepository = (*jobRepo)(nil)
