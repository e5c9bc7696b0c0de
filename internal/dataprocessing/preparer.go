package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"iplcli/internal/config"
	"iplcli/internal/dataset"
	"iplcli/internal/errors"
	"iplcli/internal/exporter"
	"iplcli/pkg/contracts/domain"
)

// advertiserRenames maps the recognized source spellings to canonical column
// names. Ordered so the preferred spelling wins when a source carries both;
// RenameColumn skips renames whose target already exists.
var advertiserRenames = []struct{ from, to string }{
	{"advertiser_brand", domain.ColumnBrandName},
	{"brand", domain.ColumnBrandName},
	{"product_category", domain.ColumnProductType},
	{"category", domain.ColumnProductType},
	{"celebrity_influence", domain.ColumnCelebrityName},
	{"celebrity_endorser", domain.ColumnCelebrityName},
	{"risk_description", domain.ColumnRiskDescription},
}

// Preparer runs the data preparation stage: raw workbooks in, normalized CSV
// tables out.
type Preparer struct {
	logger *slog.Logger
	paths  *config.Paths
	writer *exporter.CSVWriter
}

// Result reports what a preparation run produced.
type Result struct {
	Tables    []string       // normalized table names in write order
	RowCounts map[string]int // rows per normalized table
	Duration  time.Duration
}

// TotalRows returns the row count summed over all normalized tables.
func (r *Result) TotalRows() int {
	total := 0
	for _, count := range r.RowCounts {
		total += count
	}
	return total
}

// NewPreparer creates a preparation stage bound to the given paths.
func NewPreparer(logger *slog.Logger, paths *config.Paths) *Preparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preparer{
		logger: logger,
		paths:  paths,
		writer: exporter.NewCSVWriter(paths),
	}
}

// Load reads all four source workbooks into raw tables keyed by table name.
// The workbooks are independent, so they load concurrently. Any absent or
// unparsable workbook fails the whole load; nothing has been written at that
// point, so a failed load leaves the processed directory untouched.
func (p *Preparer) Load(ctx context.Context) (map[string]*domain.Table, error) {
	sources := config.SourceWorkbooks()
	loaded := make([]*domain.Table, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, source := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := p.paths.SourceWorkbookPath(source.File)
			table, err := dataset.ReadWorkbook(path, source.Table)
			if err != nil {
				return errors.NewDataLoadError(
					fmt.Sprintf("failed to load workbook %s", source.File), err).
					WithContext("table", source.Table).
					WithContext("path", path)
			}

			p.logger.InfoContext(ctx, "workbook loaded",
				slog.String("table", source.Table),
				slog.String("file", source.File),
				slog.Int("rows", table.RowCount()),
				slog.Int("columns", len(table.Columns)))
			loaded[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[string]*domain.Table, len(sources))
	for i, source := range sources {
		tables[source.Table] = loaded[i]
	}
	return tables, nil
}

// CleanAdvertisers renames source-specific advertiser columns to their
// canonical names. Unrecognized columns pass through unchanged and renaming
// is a no-op when the canonical name is already present.
func (p *Preparer) CleanAdvertisers(raw *domain.Table) *domain.Table {
	clean := raw.Clone()
	clean.Name = config.TableAdvertisersClean

	renamed := 0
	for _, r := range advertiserRenames {
		if clean.RenameColumn(r.from, r.to) {
			renamed++
		}
	}

	p.logger.Debug("advertiser columns normalized",
		slog.Int("renamed", renamed),
		slog.Int("columns", len(clean.Columns)))
	return clean
}

// ComputeRisk derives the health risk index for every advertiser row from
// its social risk descriptor and attaches it as a new column. A source that
// already carries the column gets it recomputed: the descriptor lookup is
// the single authority for the index.
func (p *Preparer) ComputeRisk(clean *domain.Table) (*domain.Table, error) {
	scored := clean.Clone()
	scored.Name = config.TableAdvertisersWithRisk

	values := make([]string, scored.RowCount())
	for i := range scored.Rows {
		descriptor, _ := scored.Value(i, domain.ColumnRiskDescription)
		values[i] = strconv.Itoa(RiskIndex(descriptor))
	}

	if idx, ok := scored.ColumnIndex(domain.ColumnHealthRiskIndex); ok {
		for i := range scored.Rows {
			scored.Rows[i][idx] = values[i]
		}
		return scored, nil
	}

	if err := scored.AddColumn(domain.ColumnHealthRiskIndex, values); err != nil {
		return nil, errors.NewAppValidationError(
			fmt.Sprintf("failed to attach risk index: %v", err))
	}
	return scored, nil
}

// ProcessRevenue passes the revenue table through under its normalized name.
// No transformation applies today; downstream aggregation needs the source
// and revenue columns, so their absence is worth a warning here even though
// the metrics stage owns the hard failure.
func (p *Preparer) ProcessRevenue(raw *domain.Table) *domain.Table {
	return p.passThrough(raw, config.TableRevenueProcessed)
}

// ProcessContracts passes the contracts table through under its normalized
// name.
func (p *Preparer) ProcessContracts(raw *domain.Table) *domain.Table {
	return p.passThrough(raw, config.TableContractsProcessed)
}

func (p *Preparer) passThrough(raw *domain.Table, name string) *domain.Table {
	out := raw.Clone()
	out.Name = name

	for _, column := range []string{domain.ColumnSource, domain.ColumnRevenue} {
		if !out.HasColumn(column) {
			p.logger.Warn("pass-through table is missing an aggregation column",
				slog.String("table", name),
				slog.String("column", column))
		}
	}
	return out
}

// Persist writes every normalized table to the processed directory in a
// fixed order. Each file is an idempotent overwrite.
func (p *Preparer) Persist(ctx context.Context, tables []*domain.Table) error {
	if err := p.paths.EnsureDirectories(); err != nil {
		return errors.NewStorageError("failed to prepare output directories", err)
	}

	for _, table := range tables {
		path := p.paths.ProcessedCSVPath(table.Name)
		if err := p.writer.WriteTable(table, path); err != nil {
			return errors.NewStorageError(
				fmt.Sprintf("failed to persist table %s", table.Name), err).
				WithContext("path", path)
		}

		p.logger.InfoContext(ctx, "table persisted",
			slog.String("table", table.Name),
			slog.String("path", path),
			slog.Int("rows", table.RowCount()))
	}

	return nil
}

// Run executes the full preparation stage. All computation happens before
// the first write, so load and transform failures leave the processed
// directory exactly as the previous run left it.
func (p *Preparer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	p.logger.InfoContext(ctx, "data preparation started",
		slog.String("dataset_dir", p.paths.DatasetDir),
		slog.String("processed_dir", p.paths.ProcessedDir))

	raw, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}

	clean := p.CleanAdvertisers(raw[config.TableAdvertisers])
	scored, err := p.ComputeRisk(clean)
	if err != nil {
		return nil, err
	}

	demography := raw[config.TableDemography].Clone()

	normalized := []*domain.Table{
		clean,
		scored,
		p.ProcessRevenue(raw[config.TableRevenue]),
		p.ProcessContracts(raw[config.TableContracts]),
		demography,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Persist(ctx, normalized); err != nil {
		return nil, err
	}

	result := &Result{
		Tables:    make([]string, 0, len(normalized)),
		RowCounts: make(map[string]int, len(normalized)),
		Duration:  time.Since(start),
	}
	for _, table := range normalized {
		result.Tables = append(result.Tables, table.Name)
		result.RowCounts[table.Name] = table.RowCount()
	}

	p.logger.InfoContext(ctx, "data preparation completed",
		slog.Int("tables", len(result.Tables)),
		slog.Int("total_rows", result.TotalRows()),
		slog.Duration("duration", result.Duration))
	return result, nil
}
