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

// CompanyRepository defines the persistence operations on companies.
type CompanyRepository interface {
	Create(ctx context.Context, c models.NewCompany) (*models.Company, error)
	FindAll(ctx context.Context, f models.CompanyFilter) ([]*models.Company, error)
	Get(ctx context.Context, handle string) (*models.CompanyDetail, error)
	Update(ctx context.Context, handle string, u models.CompanyUpdate) (*models.Company, error)
	Remove(ctx context.Context, handle string) error
}

type companyRepo struct {
	q db.Querier
}

// NewCompanyRepo returns a CompanyRepository backed by q.
func NewCompanyRepo(q db.Querier) CompanyRepository {
	return &companyRepo{q: q}
}

const (
	companyColumns = `handle, name, description, num_employees, logo_url`

	sqlInsertCompany = `
		INSERT INTO companies (` + companyColumns + `)
		VALUES (%s, %s, %s, %s, %s)`

	sqlGetCompany = `
		SELECT ` + companyColumns + `
		FROM   companies
		WHERE  handle = %s`

	sqlListCompanies = `
		SELECT ` + companyColumns + `
		FROM   companies`

	sqlCompanyJobs = `
		SELECT id, title, salary, equity
		FROM   jobs
		WHERE  company_handle = %s
		ORDER  BY id`

	sqlUpdateCompany = `
		UPDATE companies
		SET    %s
		WHERE  handle = %s`

	sqlDeleteCompany = `
		DELETE FROM companies WHERE handle = %s`
)

// CompileCompanyFilter renders f like CompileJobFilter does for jobs: name
// substring, then employee lower and upper bounds.
func CompileCompanyFilter(d query.Dialect, f models.CompanyFilter) (string, []any, error) {
	lo, hasLo := f.MinEmployees.Get()
	hi, hasHi := f.MaxEmployees.Get()
	if hasLo && hasHi && lo > hi {
		return "", nil, apperr.BadRequest("minEmployees cannot be greater than maxEmployees")
	}

	args := query.NewArgs(d)
	w := args.Where()
	if name, ok := f.NameLike.Get(); ok {
		w.Contains("name", name)
	}
	if hasLo {
		w.Cmp("num_employees", ">=", lo)
	}
	if hasHi {
		w.Cmp("num_employees", "<=", hi)
	}
	if w.Empty() {
		return "", nil, nil
	}
	return w.String(), args.Values(), nil
}

// Create inserts a company. A taken handle or name is a client error.
func (r *companyRepo) Create(ctx context.Context, c models.NewCompany) (*models.Company, error) {
	d := r.q.Dialect()
	args := query.NewArgs(d)
	stmt := fmt.Sprintf(sqlInsertCompany,
		args.Add(c.Handle), args.Add(c.Name), args.Add(c.Description), args.Add(c.NumEmployees), args.Add(c.LogoURL))

	if d.Returning() {
		company, err := scanCompany(r.q.QueryRow(ctx, stmt+" RETURNING "+companyColumns, args.Values()...))
		if err != nil {
			return nil, companyWriteErr(err, c.Handle)
		}
		return company, nil
	}
	if _, err := r.q.Exec(ctx, stmt, args.Values()...); err != nil {
		return nil, companyWriteErr(err, c.Handle)
	}
	return companyByHandle(ctx, r.q, c.Handle)
}

// FindAll lists companies ordered by name, narrowed by f.
func (r *companyRepo) FindAll(ctx context.Context, f models.CompanyFilter) ([]*models.Company, error) {
	where, vals, err := CompileCompanyFilter(r.q.Dialect(), f)
	if err != nil {
		return nil, err
	}
	stmt := sqlListCompanies
	if where != "" {
		stmt += "\n\t\tWHERE  " + where
	}
	stmt += "\n\t\tORDER  BY name"

	rows, err := r.q.Query(ctx, stmt, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []*models.Company{}
	if err := sqlx.StructScan(rows, &companies); err != nil {
		return nil, fmt.Errorf("repo/company: scan: %w", err)
	}
	return companies, nil
}

// Get returns the company and its jobs ordered by id.
func (r *companyRepo) Get(ctx context.Context, handle string) (*models.CompanyDetail, error) {
	c, err := companyByHandle(ctx, r.q, handle)
	if db.IsNotFound(err) {
		return nil, noCompany(handle)
	}
	if err != nil {
		return nil, err
	}

	args := query.NewArgs(r.q.Dialect())
	rows, err := r.q.Query(ctx, fmt.Sprintf(sqlCompanyJobs, args.Add(handle)), args.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detail := &models.CompanyDetail{Company: *c, Jobs: []models.JobSummary{}}
	if err := sqlx.StructScan(rows, &detail.Jobs); err != nil {
		return nil, fmt.Errorf("repo/company: scan jobs: %w", err)
	}
	return detail, nil
}

// Update applies the supplied fields of u, translating request names through
// models.CompanyAliases.
func (r *companyRepo) Update(ctx context.Context, handle string, u models.CompanyUpdate) (*models.Company, error) {
	d := r.q.Dialect()
	args := query.NewArgs(d)
	set, err := args.Set(u.Assignments(), models.CompanyAliases)
	if err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(sqlUpdateCompany, set, args.Add(handle))

	if d.Returning() {
		c, err := scanCompany(r.q.QueryRow(ctx, stmt+" RETURNING "+companyColumns, args.Values()...))
		switch {
		case db.IsNotFound(err):
			return nil, noCompany(handle)
		case err != nil:
			return nil, companyWriteErr(err, handle)
		}
		return c, nil
	}

	if err := execAffecting(ctx, r.q, stmt, args.Values(), noCompany(handle)); err != nil {
		return nil, companyWriteErr(err, handle)
	}
	return companyByHandle(ctx, r.q, handle)
}

// Remove deletes a company; its jobs go with it.
func (r *companyRepo) Remove(ctx context.Context, handle string) error {
	args := query.NewArgs(r.q.Dialect())
	return execAffecting(ctx, r.q, fmt.Sprintf(sqlDeleteCompany, args.Add(handle)), args.Values(), noCompany(handle))
}

// companyByHandle is shared with the job repository. It returns the raw
// db.ErrNotFound so callers decide what a missing company means.
func companyByHandle(ctx context.Context, q db.Querier, handle string) (*models.Company, error) {
	args := query.NewArgs(q.Dialect())
	return scanCompany(q.QueryRow(ctx, fmt.Sprintf(sqlGetCompany, args.Add(handle)), args.Values()...))
}

func noCompany(handle string) error { return apperr.NotFound("No company: %s", handle) }

func companyWriteErr(err error, handle string) error {
	if db.IsDuplicateKey(err) {
		return apperr.Wrap(apperr.KindBadRequest, "Duplicate company: "+handle, err)
	}
	return err
}

func scanCompany(row *db.Row) (*models.Company, error) {
	c := &models.Company{}
	if err := row.Scan(&c.Handle, &c.Name, &c.Description, &c.NumEmployees, &c.LogoURL); err != nil {
		return nil, fmt.Errorf("repo/company: %w", err)
	}
	return c, nil
}

var _ CompanyRepository = (*companyRepo)(nil)
