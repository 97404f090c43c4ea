// Package models holds the row shapes and request inputs shared by the
// repositories and the HTTP layer. Fields map 1-to-1 with columns; relations
// are loaded explicitly by the repositories.
package models

import (
	"github.com/samber/mo"

	"github.com/Skryldev/jobboard/query"
)

// Job is a row of "jobs", optionally carrying the owning company's name when
// listed.
type Job struct {
	ID            int64    `json:"id" db:"id"`
	Title         string   `json:"title" db:"title"`
	Salary        *int64   `json:"salary" db:"salary"`
	Equity        *float64 `json:"equity" db:"equity"`
	CompanyHandle string   `json:"companyHandle" db:"company_handle"`
	CompanyName   *string  `json:"companyName,omitempty" db:"company_name"`
}

// JobDetail is a job with its owning company. Company is nil when the
// company row vanished between the two reads.
type JobDetail struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Salary        *int64   `json:"salary"`
	Equity        *float64 `json:"equity"`
	CompanyHandle string   `json:"companyHandle"`
	Company       *Company `json:"company"`
}

// JobSummary is the job shape nested under a company.
type JobSummary struct {
	ID     int64    `json:"id" db:"id"`
	Title  string   `json:"title" db:"title"`
	Salary *int64   `json:"salary" db:"salary"`
	Equity *float64 `json:"equity" db:"equity"`
}

// NewJob holds the fields required to create a job.
type NewJob struct {
	Title         string   `json:"title"`
	Salary        *int64   `json:"salary"`
	Equity        *float64 `json:"equity"`
	CompanyHandle string   `json:"companyHandle"`
}

// JobUpdate is a partial update. The id and company handle are not
// updatable and have no field here.
type JobUpdate struct {
	Title  Patch[string]  `json:"title"`
	Salary Patch[int64]   `json:"salary"`
	Equity Patch[float64] `json:"equity"`
}

// Assignments lists the supplied fields in declaration order. Field names
// equal column names.
func (u JobUpdate) Assignments() query.Assignments {
	var a query.Assignments
	a = u.Title.add(a, "title")
	a = u.Salary.add(a, "salary")
	a = u.Equity.add(a, "equity")
	return a
}

// JobFilter narrows a job listing. Each criterion applies when present,
// whatever its value; HasEquity = Some(false) places no restriction.
type JobFilter struct {
	Title     mo.Option[string]
	MinSalary mo.Option[int64]
	HasEquity mo.Option[bool]
}

// JobSearch is the query-string form of JobFilter.
type JobSearch struct {
	Title     *string `schema:"title" json:"title,omitempty"`
	MinSalary *int64  `schema:"minSalary" json:"minSalary,omitempty"`
	HasEquity *bool   `schema:"hasEquity" json:"hasEquity,omitempty"`
}

// Filter converts the decoded query string; absent parameters become None.
func (s JobSearch) Filter() JobFilter {
	return JobFilter{
		Title:     mo.PointerToOption(s.Title),
		MinSalary: mo.PointerToOption(s.MinSalary),
		HasEquity: mo.PointerToOption(s.HasEquity),
	}
}
