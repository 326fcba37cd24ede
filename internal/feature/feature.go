// Package feature derives the fixed-width numeric vector for one
// candidate matchup from KPI snapshots, head-to-head history, and venue
// statistics.
package feature

import (
	"fmt"
	"sort"

	"github.com/cricstats/go-cricket-metrics/internal/kpi"
	"github.com/cricstats/go-cricket-metrics/internal/model"
)

// Names lists the feature columns in vector order. Differential
// features are team1 minus team2 and negate under relabeling; the
// head-to-head rate mirrors; venue features are invariant.
var Names = []string{
	"win_rate_diff",
	"run_rate_diff",
	"concede_rate_diff",
	"toss_winner_is_team1",
	"toss_decision_bat",
	"venue_avg_first_innings_score",
	"venue_bat_first_win_rate",
	"head_to_head_rate",
}

// Dim is the fixed feature vector width.
var Dim = len(Names)

// Vector is one matchup's feature values, ordered as Names.
type Vector []float64

// UnknownEntityError marks a feature request for an entity absent from
// the store. A team with no matches is known but insufficient; a team
// that never appears in any match is unknown.
type UnknownEntityError struct {
	Kind string // "team" or "venue"
	Name string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// Builder builds feature vectors against one KPI snapshot.
type Builder struct {
	teams   map[string]*model.TeamKPI
	venues  map[string]*model.VenueStats
	matches []model.Match
}

// NewBuilder captures the snapshot a vector is derived from.
func NewBuilder(report *model.KPIReport, matches []model.Match) *Builder {
	return &Builder{teams: report.Teams, venues: report.Venues, matches: matches}
}

// Build derives the feature vector for (team1, team2, tossWinner,
// tossDecision, venue). It fails with UnknownEntityError when team1,
// team2, or the venue is absent from the snapshot; no silent zero-fill.
func (b *Builder) Build(team1, team2, tossWinner, tossDecision, venue string) (Vector, error) {
	if team1 == team2 {
		return nil, fmt.Errorf("team1 and team2 are identical: %q", team1)
	}
	t1, ok := b.teams[team1]
	if !ok {
		return nil, &UnknownEntityError{Kind: "team", Name: team1}
	}
	t2, ok := b.teams[team2]
	if !ok {
		return nil, &UnknownEntityError{Kind: "team", Name: team2}
	}
	v, ok := b.venues[venue]
	if !ok {
		return nil, &UnknownEntityError{Kind: "venue", Name: venue}
	}
	if tossWinner != team1 && tossWinner != team2 {
		return nil, fmt.Errorf("toss winner %q is neither %q nor %q", tossWinner, team1, team2)
	}
	if tossDecision != model.TossBat && tossDecision != model.TossField {
		return nil, fmt.Errorf("toss decision must be %q or %q, got %q", model.TossBat, model.TossField, tossDecision)
	}

	tossIsTeam1 := 0.0
	if tossWinner == team1 {
		tossIsTeam1 = 1.0
	}
	tossBat := 0.0
	if tossDecision == model.TossBat {
		tossBat = 1.0
	}

	h2h := kpi.HeadToHeadFrom(b.matches, team1, team2)

	return Vector{
		t1.WinRate() - t2.WinRate(),
		t1.AvgRunsScoredPerOver() - t2.AvgRunsScoredPerOver(),
		t1.AvgRunsConcededPerOver() - t2.AvgRunsConcededPerOver(),
		tossIsTeam1,
		tossBat,
		v.AvgFirstInningsScore,
		v.BatFirstWinRate,
		h2h.Team1WinRate(),
	}, nil
}

// Teams returns the sorted team names present in the snapshot.
func (b *Builder) Teams() []string {
	out := make([]string, 0, len(b.teams))
	for t := range b.teams {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Venues returns the sorted venue names present in the snapshot.
func (b *Builder) Venues() []string {
	out := make([]string, 0, len(b.venues))
	for v := range b.venues {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Mirror returns the vector for the same real-world matchup with the
// team labels swapped: differentials negate, the toss-winner indicator
// flips, the head-to-head rate mirrors, venue features are unchanged.
func (v Vector) Mirror() Vector {
	m := make(Vector, len(v))
	copy(m, v)
	m[0], m[1], m[2] = -v[0], -v[1], -v[2]
	m[3] = 1 - v[3]
	m[7] = 1 - v[7]
	return m
}
