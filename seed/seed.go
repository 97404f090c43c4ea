// Package seed loads a fixture of companies and jobs in one transaction.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Skryldev/jobboard/db"
	"github.com/Skryldev/jobboard/models"
	"github.com/Skryldev/jobboard/repo"
	"github.com/Skryldev/jobboard/validation"
)

// Sample is the bundled fixture used when no file is given.
//
//go:embed data/sample.json
var Sample []byte

// Fixture is the on-disk shape: companies first, then jobs that reference
// them by handle.
type Fixture struct {
	Companies []models.NewCompany `json:"companies"`
	Jobs      []models.NewJob     `json:"jobs"`
}

// Result counts what was written.
type Result struct {
	Companies int
	Jobs      int
}

type rawFixture struct {
	Companies []json.RawMessage `json:"companies"`
	Jobs      []json.RawMessage `json:"jobs"`
}

// Parse decodes a fixture, checking every record against the same schemas
// the HTTP create endpoints use.
func Parse(data []byte) (*Fixture, error) {
	var raw rawFixture
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("seed: decode fixture: %w", err)
	}

	f := &Fixture{
		Companies: make([]models.NewCompany, len(raw.Companies)),
		Jobs:      make([]models.NewJob, len(raw.Jobs)),
	}
	for i, doc := range raw.Companies {
		if err := decode(validation.CompanyNew, doc, &f.Companies[i]); err != nil {
			return nil, fmt.Errorf("seed: company %d: %w", i, err)
		}
	}
	for i, doc := range raw.Jobs {
		if err := decode(validation.JobNew, doc, &f.Jobs[i]); err != nil {
			return nil, fmt.Errorf("seed: job %d: %w", i, err)
		}
	}
	return f, nil
}

func decode(s validation.Schema, doc json.RawMessage, dst any) error {
	if err := validation.Validate(s, doc); err != nil {
		return err
	}
	return json.Unmarshal(doc, dst)
}

// Load writes the fixture inside a single transaction. Nothing is kept if
// any record fails.
func Load(ctx context.Context, d *db.DB, f *Fixture) (Result, error) {
	var res Result
	err := d.ExecTx(ctx, func(ctx context.Context, tx *db.Tx) error {
		companies := repo.NewCompanyRepo(tx)
		for _, c := range f.Companies {
			if _, err := companies.Create(ctx, c); err != nil {
				return err
			}
		}
		jobs, err := repo.NewJobRepo(tx).CreateMany(ctx, f.Jobs)
		if err != nil {
			return err
		}
		res = Result{Companies: len(f.Companies), Jobs: len(jobs)}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// LoadFile parses path, or Sample when path is empty, and loads it.
func LoadFile(ctx context.Context, d *db.DB, path string) (Result, error) {
	data := Sample
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("seed: %w", err)
		}
		data = b
	}
	f, err := Parse(data)
	if err != nil {
		return Result{}, err
	}
	return Load(ctx, d, f)
}
