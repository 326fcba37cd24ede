package model

// Toss decisions as they appear in the matches table.
const (
	TossBat   = "bat"
	TossField = "field"
)

// Player roles.
const (
	RoleBatsman      = "batsman"
	RoleBowler       = "bowler"
	RoleAllRounder   = "all-rounder"
	RoleWicketKeeper = "wicket-keeper"
)

// ---- Persisted entities ----

// Match is one row of the matches table. Winner is empty when the match
// had no result.
type Match struct {
	ID            int
	Season        int
	City          string
	Date          string
	Team1         string
	Team2         string
	TossWinner    string
	TossDecision  string
	Result        string
	Winner        string
	WinByRuns     int
	WinByWickets  int
	PlayerOfMatch string
	Venue         string
}

// HasWinner reports whether the match produced a result.
func (m *Match) HasWinner() bool {
	return m.Winner != ""
}

// Delivery is one ball bowled, the atomic unit of ball-by-ball data.
type Delivery struct {
	MatchID     int
	Inning      int
	BattingTeam string
	BowlingTeam string
	Over        int
	Ball        int
	Batsman     string
	NonStriker  string
	Bowler      string
	IsSuperOver bool

	WideRuns    int
	NoballRuns  int
	ByeRuns     int
	LegbyeRuns  int
	PenaltyRuns int
	BatsmanRuns int
	ExtraRuns   int
	TotalRuns   int

	PlayerDismissed string
	DismissalKind   string
}

// IsLegal reports whether the delivery counts toward the over.
// Wides and no-balls are re-bowled and excluded from over counts.
func (d *Delivery) IsLegal() bool {
	return d.WideRuns == 0 && d.NoballRuns == 0
}

// Player is one row of the players table with career aggregates.
type Player struct {
	ID           int
	Name         string
	Team         string
	Role         string
	BattingStyle string
	BowlingStyle string
	Country      string
	RunsScored   int
	WicketsTaken int
	Catches      int
	Stumpings    int
}

// Standing is one row of the standings (points) table for a season.
type Standing struct {
	Season     int
	Team       string
	Played     int
	Won        int
	Lost       int
	Tied       int
	NoResult   int
	Points     int
	NetRunRate float64
	Position   int
}

// Consistent reports whether the per-outcome counts add up to matches played.
func (s *Standing) Consistent() bool {
	return s.Won+s.Lost+s.Tied+s.NoResult == s.Played
}

// Venue is one row of the venues table.
type Venue struct {
	Name     string
	City     string
	Capacity int
	Timezone string
}

// ---- Derived KPI snapshots (recomputed on demand, never persisted) ----

// TeamKPI holds per-team counters accumulated from the store. Rates are
// derived via methods so zero-match teams yield well-defined defaults.
type TeamKPI struct {
	Team     string
	Matches  int
	Wins     int
	TossWins int

	RunsScored   int
	RunsConceded int
	// Legal balls only: wides and no-balls do not count toward overs,
	// though their runs still count toward the totals.
	LegalBallsFaced  int
	LegalBallsBowled int

	// InsufficientData is set when the team has no recorded matches and
	// every rate below defaults to 0.
	InsufficientData bool
}

func (k *TeamKPI) WinRate() float64 {
	if k.Matches == 0 {
		return 0
	}
	return float64(k.Wins) / float64(k.Matches)
}

func (k *TeamKPI) TossWinRate() float64 {
	if k.Matches == 0 {
		return 0
	}
	return float64(k.TossWins) / float64(k.Matches)
}

// AvgRunsScoredPerOver is runs scored per six legal balls faced.
func (k *TeamKPI) AvgRunsScoredPerOver() float64 {
	if k.LegalBallsFaced == 0 {
		return 0
	}
	return float64(k.RunsScored) / float64(k.LegalBallsFaced) * 6
}

// AvgRunsConcededPerOver is runs conceded per six legal balls bowled.
func (k *TeamKPI) AvgRunsConcededPerOver() float64 {
	if k.LegalBallsBowled == 0 {
		return 0
	}
	return float64(k.RunsConceded) / float64(k.LegalBallsBowled) * 6
}

// NetRunRate is (runs scored / overs faced) minus (runs conceded / overs bowled),
// with overs measured in legal balls.
func (k *TeamKPI) NetRunRate() float64 {
	return k.AvgRunsScoredPerOver() - k.AvgRunsConcededPerOver()
}

// PlayerKPI holds per-player counters accumulated from deliveries.
type PlayerKPI struct {
	Player string

	RunsScored int
	BallsFaced int
	Dismissals int

	RunsConceded int
	BallsBowled  int
	Wickets      int
}

// BattingAverage is runs per dismissal. A never-dismissed batsman's
// average equals their run total (conventional not-out treatment).
func (k *PlayerKPI) BattingAverage() float64 {
	if k.Dismissals == 0 {
		return float64(k.RunsScored)
	}
	return float64(k.RunsScored) / float64(k.Dismissals)
}

func (k *PlayerKPI) StrikeRate() float64 {
	if k.BallsFaced == 0 {
		return 0
	}
	return float64(k.RunsScored) / float64(k.BallsFaced) * 100
}

func (k *PlayerKPI) BowlingAverage() float64 {
	if k.Wickets == 0 {
		return 0
	}
	return float64(k.RunsConceded) / float64(k.Wickets)
}

// EconomyRate is runs conceded per six-ball over.
func (k *PlayerKPI) EconomyRate() float64 {
	if k.BallsBowled == 0 {
		return 0
	}
	return float64(k.RunsConceded) / float64(k.BallsBowled) * 6
}

// VenueStats holds per-venue aggregates consumed by the feature builder.
type VenueStats struct {
	Venue                 string
	Matches               int
	AvgFirstInningsScore  float64
	AvgSecondInningsScore float64
	// BatFirstWinRate is how often the toss winner who chose to bat went
	// on to win at this venue.
	BatFirstWinRate float64
}

// HeadToHead counts decided matches between exactly two teams.
type HeadToHead struct {
	Team1     string
	Team2     string
	Team1Wins int
	Team2Wins int
}

func (h *HeadToHead) Decided() int {
	return h.Team1Wins + h.Team2Wins
}

// Team1WinRate is Team1's share of decided head-to-head matches,
// 0.5 when the teams have never produced a result against each other.
func (h *HeadToHead) Team1WinRate() float64 {
	if h.Decided() == 0 {
		return 0.5
	}
	return float64(h.Team1Wins) / float64(h.Decided())
}

// Mirror returns the same record from the other team's perspective.
func (h *HeadToHead) Mirror() HeadToHead {
	return HeadToHead{Team1: h.Team2, Team2: h.Team1, Team1Wins: h.Team2Wins, Team2Wins: h.Team1Wins}
}

// ---- Report outputs ----

// KPIReport is the structured output consumed by downstream presentation.
type KPIReport struct {
	Teams   map[string]*TeamKPI
	Players map[string]*PlayerKPI
	Venues  map[string]*VenueStats
	// Orphans lists referential problems found while aggregating; the
	// offending rows were excluded, not fatal.
	Orphans []string
}

// Prediction names the predicted winner with the class probability of
// the predicted label (always in [0.5, 1.0] for a binary decision).
type Prediction struct {
	Winner     string
	Confidence float64
}

// TrainingReport summarizes one training run.
type TrainingReport struct {
	ModelVersion       string
	Accuracy           float64
	TrainRows          int
	EvalRows           int
	FeatureImportances map[string]float64
}
