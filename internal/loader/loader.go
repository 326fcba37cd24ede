// Package loader reads validated tabular input and performs idempotent
// bulk upserts into the store, one transaction per table.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cricstats/go-cricket-metrics/internal/model"
	"github.com/cricstats/go-cricket-metrics/internal/schema"
	"github.com/cricstats/go-cricket-metrics/internal/storage"
)

// maxRecordedErrors caps the per-table error list in a LoadResult;
// skips beyond the cap are still counted.
const maxRecordedErrors = 10

// LoadResult summarizes one table load.
type LoadResult struct {
	Table        string
	RowsInserted int
	RowsSkipped  int
	Errors       []string
}

// Options configures a Loader.
type Options struct {
	// MaxSkipRate aborts a table load when the skipped fraction reaches
	// it. The default 1.0 aborts only when every row fails.
	MaxSkipRate float64
	Logger      *zap.Logger
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{MaxSkipRate: 1.0, Logger: zap.NewNop()}
}

// Loader performs validated, idempotent loads into a storage.DB.
type Loader struct {
	db   *storage.DB
	opts Options
	log  *zap.Logger
}

// New creates a Loader over the given store.
func New(db *storage.DB, opts Options) *Loader {
	if opts.MaxSkipRate <= 0 {
		opts.MaxSkipRate = 1.0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Loader{db: db, opts: opts, log: opts.Logger}
}

// Load validates and upserts records for one table. The whole table
// commits in one transaction or not at all; individual malformed rows
// are skipped and counted unless the skip rate reaches MaxSkipRate.
func (l *Loader) Load(table string, records []schema.Record) (*LoadResult, error) {
	res := &LoadResult{Table: table}
	if len(records) == 0 {
		return res, nil
	}

	header := make([]string, 0, len(records[0]))
	for c := range records[0] {
		header = append(header, c)
	}
	if err := schema.CheckHeader(table, header); err != nil {
		return nil, err
	}

	var (
		matches    []model.Match
		deliveries []model.Delivery
		players    []model.Player
		standings  []model.Standing
		venues     []model.Venue
	)

	for i, rec := range records {
		row := i + 1
		var err error
		switch table {
		case schema.TableMatches:
			var m model.Match
			if m, err = schema.ParseMatch(row, rec); err == nil {
				matches = append(matches, m)
			}
		case schema.TableDeliveries:
			var d model.Delivery
			if d, err = schema.ParseDelivery(row, rec); err == nil {
				deliveries = append(deliveries, d)
			}
		case schema.TablePlayers:
			var p model.Player
			if p, err = schema.ParsePlayer(row, rec); err == nil {
				players = append(players, p)
			}
		case schema.TableStandings:
			var s model.Standing
			if s, err = schema.ParseStanding(row, rec); err == nil {
				standings = append(standings, s)
			}
		case schema.TableVenues:
			var v model.Venue
			if v, err = schema.ParseVenue(row, rec); err == nil {
				venues = append(venues, v)
			}
		}
		if err != nil {
			res.RowsSkipped++
			if len(res.Errors) < maxRecordedErrors {
				res.Errors = append(res.Errors, err.Error())
			}
			l.log.Warn("row skipped", zap.String("table", table), zap.Int("row", row), zap.Error(err))
		}
	}

	skipRate := float64(res.RowsSkipped) / float64(len(records))
	if skipRate >= l.opts.MaxSkipRate {
		return nil, fmt.Errorf("load %s: %d of %d rows malformed (skip rate %.0f%% reached limit), nothing committed",
			table, res.RowsSkipped, len(records), skipRate*100)
	}

	var err error
	switch table {
	case schema.TableMatches:
		err = l.db.UpsertMatches(matches)
		res.RowsInserted = len(matches)
	case schema.TableDeliveries:
		err = l.db.UpsertDeliveries(deliveries)
		res.RowsInserted = len(deliveries)
	case schema.TablePlayers:
		err = l.db.UpsertPlayers(players)
		res.RowsInserted = len(players)
	case schema.TableStandings:
		err = l.db.UpsertStandings(standings)
		res.RowsInserted = len(standings)
	case schema.TableVenues:
		err = l.db.UpsertVenues(venues)
		res.RowsInserted = len(venues)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}

	l.log.Info("table loaded",
		zap.String("table", table),
		zap.Int("inserted", res.RowsInserted),
		zap.Int("skipped", res.RowsSkipped))
	return res, nil
}

// LoadCSV reads one CSV file and loads it into the named table.
func (l *Loader) LoadCSV(table, path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return l.Load(table, records)
}

// tableFiles maps each entity table to its CSV filename within a data
// directory. This is the stable input contract for all producers.
var tableFiles = []struct {
	table string
	file  string
}{
	{schema.TableMatches, "matches.csv"},
	{schema.TableDeliveries, "deliveries.csv"},
	{schema.TablePlayers, "players.csv"},
	{schema.TableStandings, "standings.csv"},
	{schema.TableVenues, "venues.csv"},
}

// LoadDir loads the five entity CSVs from a directory. venues.csv is
// optional; the other four are required.
func (l *Loader) LoadDir(dir string) ([]LoadResult, error) {
	var results []LoadResult
	for _, tf := range tableFiles {
		path := filepath.Join(dir, tf.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if tf.table == schema.TableVenues {
				l.log.Warn("optional file missing", zap.String("file", tf.file))
				continue
			}
			return results, fmt.Errorf("required input %s not found in %s", tf.file, dir)
		}
		res, err := l.LoadCSV(tf.table, path)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// readCSV parses a CSV stream into raw records keyed by header column.
func readCSV(r io.Reader) ([]schema.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []schema.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(schema.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
