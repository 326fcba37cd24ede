// Package kpi computes team-level and player-level aggregate metrics
// from the relational store. All computations are pure functions of the
// current store contents; snapshots are recomputed on demand and never
// written back.
package kpi

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cricstats/go-cricket-metrics/internal/model"
	"github.com/cricstats/go-cricket-metrics/internal/storage"
)

// ReferentialError reports a row referencing an identifier absent from
// its parent table. The row is excluded from aggregation, not fatal.
type ReferentialError struct {
	Table  string
	Ref    string
	Target string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s row references %s %q not present in parent table", e.Table, e.Target, e.Ref)
}

// Dismissal kinds not credited to the bowler.
var nonBowlerDismissals = map[string]bool{
	"run out":               true,
	"retired hurt":          true,
	"obstructing the field": true,
}

// Engine computes KPI snapshots over one store handle.
type Engine struct {
	db  *storage.DB
	log *zap.Logger
}

// New creates an Engine. A nil logger disables logging.
func New(db *storage.DB, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{db: db, log: log}
}

// ComputeReport builds the full KPI report: team and player mappings,
// venue stats, and any referential problems found along the way.
func (e *Engine) ComputeReport() (*model.KPIReport, error) {
	matches, err := e.db.ListMatches()
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	deliveries, err := e.db.ListDeliveries()
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	venues, err := e.db.ListVenues()
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}

	deliveries, orphans := filterOrphans(matches, deliveries, venues)
	for _, o := range orphans {
		e.log.Warn("referential problem", zap.String("detail", o))
	}

	report := &model.KPIReport{
		Teams:   TeamKPIs(matches, deliveries),
		Players: PlayerKPIs(deliveries),
		Venues:  VenueStats(matches, deliveries),
		Orphans: orphans,
	}
	e.log.Info("kpi snapshot computed",
		zap.Int("teams", len(report.Teams)),
		zap.Int("players", len(report.Players)),
		zap.Int("venues", len(report.Venues)),
		zap.Int("orphans", len(orphans)))
	return report, nil
}

// ComputeTeamKPIs returns the team KPI mapping.
func (e *Engine) ComputeTeamKPIs() (map[string]*model.TeamKPI, error) {
	r, err := e.ComputeReport()
	if err != nil {
		return nil, err
	}
	return r.Teams, nil
}

// ComputePlayerKPIs returns the player KPI mapping.
func (e *Engine) ComputePlayerKPIs() (map[string]*model.PlayerKPI, error) {
	r, err := e.ComputeReport()
	if err != nil {
		return nil, err
	}
	return r.Players, nil
}

// HeadToHead returns the decided-match record between exactly two teams.
func (e *Engine) HeadToHead(team1, team2 string) (model.HeadToHead, error) {
	matches, err := e.db.ListMatches()
	if err != nil {
		return model.HeadToHead{}, fmt.Errorf("list matches: %w", err)
	}
	return HeadToHeadFrom(matches, team1, team2), nil
}

// filterOrphans drops deliveries whose match_id is absent from matches
// and reports matches referencing venues absent from a non-empty venues
// table. Returns the surviving deliveries and human-readable findings.
func filterOrphans(matches []model.Match, deliveries []model.Delivery, venues []model.Venue) ([]model.Delivery, []string) {
	matchIDs := make(map[int]bool, len(matches))
	for _, m := range matches {
		matchIDs[m.ID] = true
	}

	var orphans []string
	kept := deliveries[:0]
	for _, d := range deliveries {
		if !matchIDs[d.MatchID] {
			e := &ReferentialError{Table: "deliveries", Target: "match", Ref: fmt.Sprintf("%d", d.MatchID)}
			orphans = append(orphans, e.Error())
			continue
		}
		kept = append(kept, d)
	}

	if len(venues) > 0 {
		venueNames := make(map[string]bool, len(venues))
		for _, v := range venues {
			venueNames[v.Name] = true
		}
		seen := make(map[string]bool)
		for _, m := range matches {
			if m.Venue != "" && !venueNames[m.Venue] && !seen[m.Venue] {
				seen[m.Venue] = true
				e := &ReferentialError{Table: "matches", Target: "venue", Ref: m.Venue}
				orphans = append(orphans, e.Error())
			}
		}
	}
	sort.Strings(orphans)
	return kept, orphans
}

// TeamKPIs accumulates per-team counters from matches and deliveries.
// Teams with zero recorded matches get well-defined zero rates and the
// InsufficientData flag, never an error.
func TeamKPIs(matches []model.Match, deliveries []model.Delivery) map[string]*model.TeamKPI {
	out := make(map[string]*model.TeamKPI)
	get := func(team string) *model.TeamKPI {
		if team == "" {
			return nil
		}
		k, ok := out[team]
		if !ok {
			k = &model.TeamKPI{Team: team}
			out[team] = k
		}
		return k
	}

	for _, m := range matches {
		for _, team := range []string{m.Team1, m.Team2} {
			k := get(team)
			if k == nil {
				continue
			}
			k.Matches++
			if m.Winner == team {
				k.Wins++
			}
			if m.TossWinner == team {
				k.TossWins++
			}
		}
	}

	for _, d := range deliveries {
		if bat := get(d.BattingTeam); bat != nil {
			bat.RunsScored += d.TotalRuns
			if d.IsLegal() {
				bat.LegalBallsFaced++
			}
		}
		if bowl := get(d.BowlingTeam); bowl != nil {
			bowl.RunsConceded += d.TotalRuns
			if d.IsLegal() {
				bowl.LegalBallsBowled++
			}
		}
	}

	for _, k := range out {
		k.InsufficientData = k.Matches == 0
	}
	return out
}

// PlayerKPIs accumulates per-player batting and bowling counters.
// Wides do not count as balls faced; wides and no-balls do not count as
// balls bowled; run outs and similar are not credited to the bowler.
func PlayerKPIs(deliveries []model.Delivery) map[string]*model.PlayerKPI {
	out := make(map[string]*model.PlayerKPI)
	get := func(name string) *model.PlayerKPI {
		if name == "" {
			return nil
		}
		k, ok := out[name]
		if !ok {
			k = &model.PlayerKPI{Player: name}
			out[name] = k
		}
		return k
	}

	for _, d := range deliveries {
		if bat := get(d.Batsman); bat != nil {
			bat.RunsScored += d.BatsmanRuns
			if d.WideRuns == 0 {
				bat.BallsFaced++
			}
		}
		if d.PlayerDismissed != "" {
			if dis := get(d.PlayerDismissed); dis != nil {
				dis.Dismissals++
			}
		}
		if bowl := get(d.Bowler); bowl != nil {
			bowl.RunsConceded += d.TotalRuns
			if d.IsLegal() {
				bowl.BallsBowled++
			}
			if d.PlayerDismissed != "" && !nonBowlerDismissals[d.DismissalKind] {
				bowl.Wickets++
			}
		}
	}
	return out
}

// VenueStats aggregates per-venue match counts, innings score averages,
// and the bat-first win rate.
func VenueStats(matches []model.Match, deliveries []model.Delivery) map[string]*model.VenueStats {
	out := make(map[string]*model.VenueStats)
	venueOf := make(map[int]string, len(matches))

	type venueAccum struct {
		batFirst     int
		batFirstWins int
		firstRuns    int
		firstCount   int
		secondRuns   int
		secondCount  int
	}
	accums := make(map[string]*venueAccum)

	for _, m := range matches {
		if m.Venue == "" {
			continue
		}
		venueOf[m.ID] = m.Venue
		v, ok := out[m.Venue]
		if !ok {
			v = &model.VenueStats{Venue: m.Venue}
			out[m.Venue] = v
			accums[m.Venue] = &venueAccum{}
		}
		v.Matches++
		if m.TossDecision == model.TossBat {
			accums[m.Venue].batFirst++
			if m.HasWinner() && m.Winner == m.TossWinner {
				accums[m.Venue].batFirstWins++
			}
		}
	}

	// Innings totals per (match, inning); super overs excluded.
	type inningsKey struct {
		matchID int
		inning  int
	}
	inningsRuns := make(map[inningsKey]int)
	for _, d := range deliveries {
		if d.IsSuperOver || d.Inning > 2 {
			continue
		}
		inningsRuns[inningsKey{d.MatchID, d.Inning}] += d.TotalRuns
	}
	for k, runs := range inningsRuns {
		venue, ok := venueOf[k.matchID]
		if !ok {
			continue
		}
		acc := accums[venue]
		if k.inning == 1 {
			acc.firstRuns += runs
			acc.firstCount++
		} else {
			acc.secondRuns += runs
			acc.secondCount++
		}
	}

	for venue, v := range out {
		acc := accums[venue]
		if acc.firstCount > 0 {
			v.AvgFirstInningsScore = float64(acc.firstRuns) / float64(acc.firstCount)
		}
		if acc.secondCount > 0 {
			v.AvgSecondInningsScore = float64(acc.secondRuns) / float64(acc.secondCount)
		}
		if acc.batFirst > 0 {
			v.BatFirstWinRate = float64(acc.batFirstWins) / float64(acc.batFirst)
		}
	}
	return out
}

// HeadToHeadFrom counts decided matches between exactly team1 and team2.
func HeadToHeadFrom(matches []model.Match, team1, team2 string) model.HeadToHead {
	h := model.HeadToHead{Team1: team1, Team2: team2}
	for _, m := range matches {
		pair := (m.Team1 == team1 && m.Team2 == team2) || (m.Team1 == team2 && m.Team2 == team1)
		if !pair || !m.HasWinner() {
			continue
		}
		switch m.Winner {
		case team1:
			h.Team1Wins++
		case team2:
			h.Team2Wins++
		}
	}
	return h
}
