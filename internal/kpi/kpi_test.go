package kpi

import (
	"math"
	"strings"
	"testing"

	"github.com/cricstats/go-cricket-metrics/internal/model"
)

const tol = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tol
}

func decidedMatch(id int, team1, team2, winner string) model.Match {
	return model.Match{
		ID: id, Season: 2025, Date: "2025-04-01",
		Team1: team1, Team2: team2,
		TossWinner: team1, TossDecision: model.TossBat,
		Winner: winner, Venue: "Venue V",
	}
}

func legalBall(matchID, inning int, batting, bowling string, runs int) model.Delivery {
	return model.Delivery{
		MatchID: matchID, Inning: inning,
		BattingTeam: batting, BowlingTeam: bowling,
		Batsman: batting + " bat", Bowler: bowling + " bowl",
		BatsmanRuns: runs, TotalRuns: runs,
	}
}

func TestTeamKPIsZeroMatches(t *testing.T) {
	// A team appearing only on deliveries has counters but no matches.
	ds := []model.Delivery{legalBall(1, 1, "Team X", "Team Y", 4)}
	teams := TeamKPIs(nil, ds)

	k := teams["Team X"]
	if k == nil {
		t.Fatal("expected Team X entry")
	}
	if !k.InsufficientData {
		t.Error("expected InsufficientData for zero-match team")
	}
	if k.WinRate() != 0 || k.TossWinRate() != 0 {
		t.Errorf("zero-match rates: win=%f toss=%f, want 0", k.WinRate(), k.TossWinRate())
	}
}

func TestTeamKPIsWinAndTossRates(t *testing.T) {
	ms := []model.Match{
		decidedMatch(1, "Team A", "Team B", "Team A"),
		decidedMatch(2, "Team A", "Team B", "Team B"),
		decidedMatch(3, "Team A", "Team B", "Team A"),
		{ID: 4, Team1: "Team A", Team2: "Team B", TossWinner: "Team B",
			TossDecision: model.TossField, Venue: "Venue V"}, // no result
	}
	teams := TeamKPIs(ms, nil)

	a := teams["Team A"]
	if a.Matches != 4 || a.Wins != 2 {
		t.Fatalf("Team A counters: %+v", a)
	}
	if !almostEqual(a.WinRate(), 0.5) {
		t.Errorf("win rate = %f, want 0.5", a.WinRate())
	}
	if !almostEqual(a.TossWinRate(), 0.75) {
		t.Errorf("toss win rate = %f, want 0.75", a.TossWinRate())
	}
	if a.InsufficientData {
		t.Error("InsufficientData set for a team with matches")
	}
}

func TestNetRunRateExcludesIllegalBalls(t *testing.T) {
	// Team A bats: 10 legal balls for 20 runs, plus one wide worth 5
	// (runs count, ball does not). Scored 25 off 10 legal balls.
	var ds []model.Delivery
	for i := 0; i < 10; i++ {
		ds = append(ds, legalBall(1, 1, "Team A", "Team B", 2))
	}
	wide := model.Delivery{
		MatchID: 1, Inning: 1, BattingTeam: "Team A", BowlingTeam: "Team B",
		WideRuns: 5, ExtraRuns: 5, TotalRuns: 5,
	}
	ds = append(ds, wide)
	// Team A bowls: 12 legal balls for 24 runs, plus a no-ball hit for 4
	// (total 5 with the penalty run).
	for i := 0; i < 12; i++ {
		ds = append(ds, legalBall(1, 2, "Team B", "Team A", 2))
	}
	noball := model.Delivery{
		MatchID: 1, Inning: 2, BattingTeam: "Team B", BowlingTeam: "Team A",
		NoballRuns: 1, BatsmanRuns: 4, ExtraRuns: 1, TotalRuns: 5,
	}
	ds = append(ds, noball)

	ms := []model.Match{decidedMatch(1, "Team A", "Team B", "Team A")}
	a := TeamKPIs(ms, ds)["Team A"]

	if a.LegalBallsFaced != 10 || a.LegalBallsBowled != 12 {
		t.Fatalf("legal balls: faced=%d bowled=%d, want 10/12", a.LegalBallsFaced, a.LegalBallsBowled)
	}
	wantFor := 25.0 / 10.0 * 6     // 15.0
	wantAgainst := 29.0 / 12.0 * 6 // 14.5
	if !almostEqual(a.AvgRunsScoredPerOver(), wantFor) {
		t.Errorf("runs per over = %f, want %f", a.AvgRunsScoredPerOver(), wantFor)
	}
	if !almostEqual(a.AvgRunsConcededPerOver(), wantAgainst) {
		t.Errorf("conceded per over = %f, want %f", a.AvgRunsConcededPerOver(), wantAgainst)
	}
	if !almostEqual(a.NetRunRate(), wantFor-wantAgainst) {
		t.Errorf("net run rate = %f, want %f", a.NetRunRate(), wantFor-wantAgainst)
	}
}

func TestPlayerKPIs(t *testing.T) {
	ds := []model.Delivery{
		// Alice faces three legal balls for 10, never dismissed.
		{MatchID: 1, Inning: 1, Batsman: "Alice", Bowler: "Frank", BatsmanRuns: 4, TotalRuns: 4},
		{MatchID: 1, Inning: 1, Batsman: "Alice", Bowler: "Frank", BatsmanRuns: 6, TotalRuns: 6},
		{MatchID: 1, Inning: 1, Batsman: "Alice", Bowler: "Frank", BatsmanRuns: 0, TotalRuns: 0},
		// A wide to Alice: not a ball faced, but conceded by Frank.
		{MatchID: 1, Inning: 1, Batsman: "Alice", Bowler: "Frank", WideRuns: 1, ExtraRuns: 1, TotalRuns: 1},
		// Bob bowled by Frank.
		{MatchID: 1, Inning: 1, Batsman: "Bob", Bowler: "Frank", TotalRuns: 0,
			PlayerDismissed: "Bob", DismissalKind: "bowled"},
		// Carol run out off Frank: dismissal counted, no wicket credit.
		{MatchID: 1, Inning: 1, Batsman: "Carol", Bowler: "Frank", BatsmanRuns: 1, TotalRuns: 1,
			PlayerDismissed: "Carol", DismissalKind: "run out"},
	}
	players := PlayerKPIs(ds)

	alice := players["Alice"]
	if alice.BallsFaced != 3 {
		t.Errorf("Alice balls faced = %d, want 3 (wide excluded)", alice.BallsFaced)
	}
	if !almostEqual(alice.BattingAverage(), 10) {
		t.Errorf("never-dismissed average = %f, want run total 10", alice.BattingAverage())
	}
	if !almostEqual(alice.StrikeRate(), 10.0/3.0*100) {
		t.Errorf("strike rate = %f", alice.StrikeRate())
	}

	frank := players["Frank"]
	if frank.Wickets != 1 {
		t.Errorf("Frank wickets = %d, want 1 (run out not credited)", frank.Wickets)
	}
	if frank.BallsBowled != 5 {
		t.Errorf("Frank balls bowled = %d, want 5 legal", frank.BallsBowled)
	}
	if frank.RunsConceded != 12 {
		t.Errorf("Frank runs conceded = %d, want 12", frank.RunsConceded)
	}
	if !almostEqual(frank.EconomyRate(), 12.0/5.0*6) {
		t.Errorf("economy = %f", frank.EconomyRate())
	}

	carol := players["Carol"]
	if carol.Dismissals != 1 {
		t.Errorf("Carol dismissals = %d, want 1", carol.Dismissals)
	}
	if !almostEqual(carol.BattingAverage(), 1) {
		t.Errorf("Carol average = %f, want 1", carol.BattingAverage())
	}
}

func TestFilterOrphans(t *testing.T) {
	ms := []model.Match{decidedMatch(1, "Team A", "Team B", "Team A")}
	ds := []model.Delivery{
		legalBall(1, 1, "Team A", "Team B", 4),
		legalBall(99, 1, "Team A", "Team B", 6), // no such match
	}
	venues := []model.Venue{{Name: "Somewhere Else"}}

	kept, orphans := filterOrphans(ms, ds, venues)
	if len(kept) != 1 || kept[0].MatchID != 1 {
		t.Fatalf("kept = %+v", kept)
	}
	if len(orphans) != 2 {
		t.Fatalf("orphans = %v, want delivery and venue findings", orphans)
	}
	var sawMatch, sawVenue bool
	for _, o := range orphans {
		if strings.Contains(o, `match "99"`) {
			sawMatch = true
		}
		if strings.Contains(o, `venue "Venue V"`) {
			sawVenue = true
		}
	}
	if !sawMatch || !sawVenue {
		t.Errorf("orphans = %v", orphans)
	}

	// Orphaned delivery must not leak into team totals.
	teams := TeamKPIs(ms, kept)
	if teams["Team A"].RunsScored != 4 {
		t.Errorf("Team A runs = %d, want 4", teams["Team A"].RunsScored)
	}
}

func TestFilterOrphansEmptyVenuesTableIsSilent(t *testing.T) {
	ms := []model.Match{decidedMatch(1, "Team A", "Team B", "Team A")}
	_, orphans := filterOrphans(ms, nil, nil)
	if len(orphans) != 0 {
		t.Errorf("expected no venue findings when venues table is empty, got %v", orphans)
	}
}

func TestVenueStats(t *testing.T) {
	ms := []model.Match{
		decidedMatch(1, "Team A", "Team B", "Team A"), // toss A, bat, A won
		decidedMatch(2, "Team A", "Team B", "Team B"), // toss A, bat, A lost
	}
	ds := []model.Delivery{
		legalBall(1, 1, "Team A", "Team B", 160),
		legalBall(1, 2, "Team B", "Team A", 150),
		legalBall(2, 1, "Team A", "Team B", 140),
		legalBall(2, 2, "Team B", "Team A", 141),
		// Super over runs stay out of innings averages.
		{MatchID: 1, Inning: 1, BattingTeam: "Team A", BowlingTeam: "Team B",
			IsSuperOver: true, BatsmanRuns: 12, TotalRuns: 12},
	}
	vs := VenueStats(ms, ds)["Venue V"]
	if vs == nil {
		t.Fatal("expected Venue V stats")
	}
	if vs.Matches != 2 {
		t.Errorf("matches = %d, want 2", vs.Matches)
	}
	if !almostEqual(vs.AvgFirstInningsScore, 150) {
		t.Errorf("first innings avg = %f, want 150", vs.AvgFirstInningsScore)
	}
	if !almostEqual(vs.AvgSecondInningsScore, 145.5) {
		t.Errorf("second innings avg = %f, want 145.5", vs.AvgSecondInningsScore)
	}
	if !almostEqual(vs.BatFirstWinRate, 0.5) {
		t.Errorf("bat-first win rate = %f, want 0.5", vs.BatFirstWinRate)
	}
}

func TestHeadToHeadFrom(t *testing.T) {
	ms := []model.Match{
		decidedMatch(1, "Team A", "Team B", "Team A"),
		decidedMatch(2, "Team B", "Team A", "Team A"), // reversed orientation
		decidedMatch(3, "Team A", "Team B", "Team B"),
		decidedMatch(4, "Team A", "Team C", "Team A"), // different pairing
		{ID: 5, Team1: "Team A", Team2: "Team B", TossWinner: "Team A",
			TossDecision: model.TossBat}, // no result
	}
	h := HeadToHeadFrom(ms, "Team A", "Team B")
	if h.Team1Wins != 2 || h.Team2Wins != 1 {
		t.Fatalf("head to head = %+v", h)
	}
	if !almostEqual(h.Team1WinRate(), 2.0/3.0) {
		t.Errorf("win rate = %f", h.Team1WinRate())
	}

	m := h.Mirror()
	if !almostEqual(m.Team1WinRate(), 1.0/3.0) {
		t.Errorf("mirrored win rate = %f", m.Team1WinRate())
	}

	never := HeadToHeadFrom(ms, "Team B", "Team C")
	if never.Team1WinRate() != 0.5 {
		t.Errorf("no-history win rate = %f, want 0.5", never.Team1WinRate())
	}
}
