package models

import (
	"github.com/samber/mo"

	"github.com/Skryldev/jobboard/query"
)

// Company is a row of "companies".
type Company struct {
	Handle       string  `json:"handle" db:"handle"`
	Name         string  `json:"name" db:"name"`
	Description  string  `json:"description" db:"description"`
	NumEmployees *int64  `json:"numEmployees" db:"num_employees"`
	LogoURL      *string `json:"logoUrl" db:"logo_url"`
}

// CompanyDetail is a company with its open jobs.
type CompanyDetail struct {
	Company
	Jobs []JobSummary `json:"jobs"`
}

// NewCompany is the input to CompanyRepository.Create.
type NewCompany struct {
	Handle       string  `json:"handle"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	NumEmployees *int64  `json:"numEmployees"`
	LogoURL      *string `json:"logoUrl"`
}

// CompanyAliases maps request field names to their columns.
var CompanyAliases = query.Aliases{
	"numEmployees": "num_employees",
	"logoUrl":      "logo_url",
}

// CompanyUpdate is a partial update; the handle is immutable.
type CompanyUpdate struct {
	Name         Patch[string] `json:"name"`
	Description  Patch[string] `json:"description"`
	NumEmployees Patch[int64]  `json:"numEmployees"`
	LogoURL      Patch[string] `json:"logoUrl"`
}

// Assignments lists the supplied fields by request name; resolve columns
// with CompanyAliases.
func (u CompanyUpdate) Assignments() query.Assignments {
	var a query.Assignments
	a = u.Name.add(a, "name")
	a = u.Description.add(a, "description")
	a = u.NumEmployees.add(a, "numEmployees")
	a = u.LogoURL.add(a, "logoUrl")
	return a
}

// CompanyFilter narrows CompanyRepository.FindAll. NameLike is a
// case-insensitive substring; the employee bounds are inclusive.
type CompanyFilter struct {
	NameLike     mo.Option[string]
	MinEmployees mo.Option[int64]
	MaxEmployees mo.Option[int64]
}

// CompanySearch is the query-string form of CompanyFilter.
type CompanySearch struct {
	Name         *string `schema:"name" json:"name,omitempty"`
	MinEmployees *int64  `schema:"minEmployees" json:"minEmployees,omitempty"`
	MaxEmployees *int64  `schema:"maxEmployees" json:"maxEmployees,omitempty"`
}

// Filter converts the decoded query string; absent parameters become None.
func (s CompanySearch) Filter() CompanyFilter {
	return CompanyFilter{
		NameLike:     mo.PointerToOption(s.Name),
		MinEmployees: mo.PointerToOption(s.MinEmployees),
		MaxEmployees: mo.PointerToOption(s.MaxEmployees),
	}
}
