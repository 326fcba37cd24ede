package storage

import (
	"database/sql"
	"fmt"

	"github.com/cricstats/go-cricket-metrics/internal/model"
)

// UpsertMatches bulk-upserts match rows in a transaction.
// Uses INSERT OR REPLACE keyed by match id for idempotent re-loads.
func (db *DB) UpsertMatches(matches []model.Match) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(
			id, season, city, date, team1, team2,
			toss_winner, toss_decision, result, winner,
			win_by_runs, win_by_wickets, player_of_match, venue
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err = stmt.Exec(
			m.ID, m.Season, m.City, m.Date, m.Team1, m.Team2,
			m.TossWinner, m.TossDecision, m.Result, nullStr(m.Winner),
			m.WinByRuns, m.WinByWickets, nullStr(m.PlayerOfMatch), m.Venue,
		)
		if err != nil {
			return fmt.Errorf("upsert match %d: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// UpsertDeliveries bulk-upserts delivery rows in a transaction, keyed by
// (match_id, inning, over, ball).
func (db *DB) UpsertDeliveries(deliveries []model.Delivery) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO deliveries(
			match_id, inning, over, ball,
			batting_team, bowling_team, batsman, non_striker, bowler, is_super_over,
			wide_runs, noball_runs, bye_runs, legbye_runs, penalty_runs,
			batsman_runs, extra_runs, total_runs,
			player_dismissed, dismissal_kind
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range deliveries {
		_, err = stmt.Exec(
			d.MatchID, d.Inning, d.Over, d.Ball,
			d.BattingTeam, d.BowlingTeam, d.Batsman, d.NonStriker, d.Bowler, boolInt(d.IsSuperOver),
			d.WideRuns, d.NoballRuns, d.ByeRuns, d.LegbyeRuns, d.PenaltyRuns,
			d.BatsmanRuns, d.ExtraRuns, d.TotalRuns,
			nullStr(d.PlayerDismissed), nullStr(d.DismissalKind),
		)
		if err != nil {
			return fmt.Errorf("upsert delivery match=%d inning=%d over=%d ball=%d: %w",
				d.MatchID, d.Inning, d.Over, d.Ball, err)
		}
	}
	return tx.Commit()
}

// UpsertPlayers bulk-upserts player rows in a transaction.
func (db *DB) UpsertPlayers(players []model.Player) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO players(
			id, player_name, team, role, batting_style, bowling_style,
			country, runs_scored, wickets_taken, catches, stumpings
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		_, err = stmt.Exec(
			p.ID, p.Name, p.Team, p.Role, p.BattingStyle, p.BowlingStyle,
			p.Country, p.RunsScored, p.WicketsTaken, p.Catches, p.Stumpings,
		)
		if err != nil {
			return fmt.Errorf("upsert player %q: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// UpsertStandings bulk-upserts standings rows, keyed by (season, team).
func (db *DB) UpsertStandings(standings []model.Standing) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO standings(
			season, team, matches_played, won, lost, tied,
			no_result, points, net_run_rate, position
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range standings {
		_, err = stmt.Exec(
			s.Season, s.Team, s.Played, s.Won, s.Lost, s.Tied,
			s.NoResult, s.Points, s.NetRunRate, s.Position,
		)
		if err != nil {
			return fmt.Errorf("upsert standing %d/%q: %w", s.Season, s.Team, err)
		}
	}
	return tx.Commit()
}

// UpsertVenues bulk-upserts venue rows, keyed by name.
func (db *DB) UpsertVenues(venues []model.Venue) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO venues(name, city, capacity, timezone)
		VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range venues {
		if _, err = stmt.Exec(v.Name, v.City, v.Capacity, v.Timezone); err != nil {
			return fmt.Errorf("upsert venue %q: %w", v.Name, err)
		}
	}
	return tx.Commit()
}

// ListMatches returns all stored matches ordered by date, then id.
func (db *DB) ListMatches() ([]model.Match, error) {
	rows, err := db.conn.Query(`
		SELECT id, season, city, date, team1, team2,
		       toss_winner, toss_decision, result, winner,
		       win_by_runs, win_by_wickets, player_of_match, venue
		FROM matches ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMatch returns one match by id, or nil when absent.
func (db *DB) GetMatch(id int) (*model.Match, error) {
	row := db.conn.QueryRow(`
		SELECT id, season, city, date, team1, team2,
		       toss_winner, toss_decision, result, winner,
		       win_by_runs, win_by_wickets, player_of_match, venue
		FROM matches WHERE id = ?`, id)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(r rowScanner) (model.Match, error) {
	var m model.Match
	var winner, playerOfMatch sql.NullString
	err := r.Scan(
		&m.ID, &m.Season, &m.City, &m.Date, &m.Team1, &m.Team2,
		&m.TossWinner, &m.TossDecision, &m.Result, &winner,
		&m.WinByRuns, &m.WinByWickets, &playerOfMatch, &m.Venue,
	)
	if err != nil {
		return model.Match{}, err
	}
	m.Winner = winner.String
	m.PlayerOfMatch = playerOfMatch.String
	return m, nil
}

// ListDeliveries returns all stored deliveries ordered by match, inning,
// over, ball.
func (db *DB) ListDeliveries() ([]model.Delivery, error) {
	rows, err := db.conn.Query(`
		SELECT match_id, inning, over, ball,
		       batting_team, bowling_team, batsman, non_striker, bowler, is_super_over,
		       wide_runs, noball_runs, bye_runs, legbye_runs, penalty_runs,
		       batsman_runs, extra_runs, total_runs,
		       player_dismissed, dismissal_kind
		FROM deliveries ORDER BY match_id, inning, over, ball`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Delivery
	for rows.Next() {
		var d model.Delivery
		var superOver int
		var dismissed, kind sql.NullString
		if err := rows.Scan(
			&d.MatchID, &d.Inning, &d.Over, &d.Ball,
			&d.BattingTeam, &d.BowlingTeam, &d.Batsman, &d.NonStriker, &d.Bowler, &superOver,
			&d.WideRuns, &d.NoballRuns, &d.ByeRuns, &d.LegbyeRuns, &d.PenaltyRuns,
			&d.BatsmanRuns, &d.ExtraRuns, &d.TotalRuns,
			&dismissed, &kind,
		); err != nil {
			return nil, err
		}
		d.IsSuperOver = superOver != 0
		d.PlayerDismissed = dismissed.String
		d.DismissalKind = kind.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListPlayers returns all stored players ordered by name.
func (db *DB) ListPlayers() ([]model.Player, error) {
	rows, err := db.conn.Query(`
		SELECT id, player_name, team, role, batting_style, bowling_style,
		       country, runs_scored, wickets_taken, catches, stumpings
		FROM players ORDER BY player_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Team, &p.Role, &p.BattingStyle, &p.BowlingStyle,
			&p.Country, &p.RunsScored, &p.WicketsTaken, &p.Catches, &p.Stumpings,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListStandings returns all stored standings ordered by season, position.
func (db *DB) ListStandings() ([]model.Standing, error) {
	rows, err := db.conn.Query(`
		SELECT season, team, matches_played, won, lost, tied,
		       no_result, points, net_run_rate, position
		FROM standings ORDER BY season, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Standing
	for rows.Next() {
		var s model.Standing
		if err := rows.Scan(
			&s.Season, &s.Team, &s.Played, &s.Won, &s.Lost, &s.Tied,
			&s.NoResult, &s.Points, &s.NetRunRate, &s.Position,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListVenues returns all stored venues ordered by name.
func (db *DB) ListVenues() ([]model.Venue, error) {
	rows, err := db.conn.Query(`
		SELECT name, city, capacity, timezone FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.Name, &v.City, &v.Capacity, &v.Timezone); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// entityTables guards CountRows against arbitrary table names.
var entityTables = map[string]bool{
	"matches": true, "deliveries": true, "players": true,
	"standings": true, "venues": true,
}

// CountRows returns the row count of one of the five entity tables.
func (db *DB) CountRows(table string) (int, error) {
	if !entityTables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM " + table).Scan(&n)
	return n, err
}

// Overview is a high-level snapshot of the stored dataset.
type Overview struct {
	Matches    int
	Deliveries int
	Players    int
	Standings  int
	Venues     int
	Teams      int
	FirstDate  string
	LastDate   string
	WithWinner int
}

// GetOverview returns aggregate counts across the whole store.
func (db *DB) GetOverview() (*Overview, error) {
	var ov Overview
	for table, dst := range map[string]*int{
		"matches": &ov.Matches, "deliveries": &ov.Deliveries,
		"players": &ov.Players, "standings": &ov.Standings, "venues": &ov.Venues,
	} {
		n, err := db.CountRows(table)
		if err != nil {
			return nil, err
		}
		*dst = n
	}
	err := db.conn.QueryRow(`
		SELECT COUNT(DISTINCT team) FROM
		(SELECT team1 AS team FROM matches UNION SELECT team2 FROM matches)`).Scan(&ov.Teams)
	if err != nil {
		return nil, err
	}
	if ov.Matches > 0 {
		var first, last sql.NullString
		if err := db.conn.QueryRow(`SELECT MIN(date), MAX(date) FROM matches`).Scan(&first, &last); err != nil {
			return nil, err
		}
		ov.FirstDate, ov.LastDate = first.String, last.String
		if err := db.conn.QueryRow(`SELECT COUNT(1) FROM matches WHERE winner IS NOT NULL AND winner != ''`).Scan(&ov.WithWinner); err != nil {
			return nil, err
		}
	}
	return &ov, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
