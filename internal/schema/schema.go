// Package schema validates raw tabular records against the fixed
// per-table column sets and coerces them into typed entities. Nothing
// past this boundary operates on untyped key-value rows.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cricstats/go-cricket-metrics/internal/model"
)

// Table names of the five entity tables.
const (
	TableMatches    = "matches"
	TableDeliveries = "deliveries"
	TablePlayers    = "players"
	TableStandings  = "standings"
	TableVenues     = "venues"
)

// Record is one raw row as read from a CSV file: column name → raw value.
type Record map[string]string

// SchemaError reports a malformed table shape or the first record with a
// value that cannot be coerced to its expected type.
type SchemaError struct {
	Table   string
	Missing []string
	Extra   []string
	Row     int // 1-based data-row index, 0 for header-level problems
	Column  string
	Reason  string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s:", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " missing columns %v", e.Missing)
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, " unexpected columns %v", e.Extra)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
		if e.Column != "" {
			fmt.Fprintf(&b, " column %q", e.Column)
		}
		if e.Reason != "" {
			fmt.Fprintf(&b, ": %s", e.Reason)
		}
	}
	return b.String()
}

// columns holds the required column set per table.
var columns = map[string][]string{
	TableMatches: {
		"id", "season", "city", "date", "team1", "team2",
		"toss_winner", "toss_decision", "result", "winner",
		"win_by_runs", "win_by_wickets", "player_of_match", "venue",
	},
	TableDeliveries: {
		"match_id", "inning", "batting_team", "bowling_team",
		"over", "ball", "batsman", "non_striker", "bowler", "is_super_over",
		"wide_runs", "noball_runs", "bye_runs", "legbye_runs", "penalty_runs",
		"batsman_runs", "extra_runs", "total_runs",
		"player_dismissed", "dismissal_kind",
	},
	TablePlayers: {
		"id", "player_name", "team", "role", "batting_style", "bowling_style",
		"country", "runs_scored", "wickets_taken", "catches", "stumpings",
	},
	TableStandings: {
		"season", "team", "matches_played", "won", "lost", "tied",
		"no_result", "points", "net_run_rate", "position",
	},
	TableVenues: {
		"name", "city", "capacity", "timezone",
	},
}

// Columns returns the required column set for a table, or nil for an
// unknown table name.
func Columns(table string) []string {
	return columns[table]
}

// CheckHeader verifies that the given column names match the table's
// required set exactly.
func CheckHeader(table string, header []string) error {
	want, ok := columns[table]
	if !ok {
		return &SchemaError{Table: table, Reason: "unknown table"}
	}
	have := make(map[string]bool, len(header))
	for _, c := range header {
		have[c] = true
	}
	wantSet := make(map[string]bool, len(want))
	for _, c := range want {
		wantSet[c] = true
	}

	var missing, extra []string
	for _, c := range want {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	for _, c := range header {
		if !wantSet[c] {
			extra = append(extra, c)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		return &SchemaError{Table: table, Missing: missing, Extra: extra}
	}
	return nil
}

// Validate is the pure check of the validator contract: it verifies the
// column set (using the first record's keys) and type-checks every
// record, failing on the first mismatch. The records are not modified.
func Validate(table string, records []Record) error {
	if len(records) == 0 {
		if _, ok := columns[table]; !ok {
			return &SchemaError{Table: table, Reason: "unknown table"}
		}
		return nil
	}
	header := make([]string, 0, len(records[0]))
	for c := range records[0] {
		header = append(header, c)
	}
	if err := CheckHeader(table, header); err != nil {
		return err
	}
	for i, rec := range records {
		if err := checkTypes(table, i+1, rec); err != nil {
			return err
		}
	}
	return nil
}

func checkTypes(table string, row int, rec Record) error {
	var err error
	switch table {
	case TableMatches:
		_, err = ParseMatch(row, rec)
	case TableDeliveries:
		_, err = ParseDelivery(row, rec)
	case TablePlayers:
		_, err = ParsePlayer(row, rec)
	case TableStandings:
		_, err = ParseStanding(row, rec)
	case TableVenues:
		_, err = ParseVenue(row, rec)
	}
	return err
}

// ---- Typed parsers ----
//
// Coercion rules: integer and float strings are accepted for numeric
// columns; empty string means "missing" and maps to 0 for counts and ""
// for identifiers/text. Entity invariants are checked here so the loader
// can skip individual bad rows.

// ParseMatch coerces one raw record into a Match.
func ParseMatch(row int, rec Record) (model.Match, error) {
	p := &rowParser{table: TableMatches, row: row, rec: rec}
	m := model.Match{
		ID:            p.intField("id"),
		Season:        p.intField("season"),
		City:          rec["city"],
		Date:          rec["date"],
		Team1:         rec["team1"],
		Team2:         rec["team2"],
		TossWinner:    rec["toss_winner"],
		TossDecision:  rec["toss_decision"],
		Result:        rec["result"],
		Winner:        rec["winner"],
		WinByRuns:     p.intField("win_by_runs"),
		WinByWickets:  p.intField("win_by_wickets"),
		PlayerOfMatch: rec["player_of_match"],
		Venue:         rec["venue"],
	}
	if p.err != nil {
		return model.Match{}, p.err
	}
	if m.ID == 0 {
		return model.Match{}, p.fail("id", "missing match identifier")
	}
	if m.Team1 == "" || m.Team2 == "" {
		return model.Match{}, p.fail("team1", "missing team name")
	}
	if m.Team1 == m.Team2 {
		return model.Match{}, p.fail("team2", "team1 and team2 are identical")
	}
	if m.TossDecision != model.TossBat && m.TossDecision != model.TossField {
		return model.Match{}, p.fail("toss_decision", fmt.Sprintf("want %q or %q, got %q", model.TossBat, model.TossField, m.TossDecision))
	}
	if m.Winner != "" && m.Winner != m.Team1 && m.Winner != m.Team2 {
		return model.Match{}, p.fail("winner", fmt.Sprintf("winner %q is neither team", m.Winner))
	}
	return m, nil
}

// ParseDelivery coerces one raw record into a Delivery.
func ParseDelivery(row int, rec Record) (model.Delivery, error) {
	p := &rowParser{table: TableDeliveries, row: row, rec: rec}
	d := model.Delivery{
		MatchID:         p.intField("match_id"),
		Inning:          p.intField("inning"),
		BattingTeam:     rec["batting_team"],
		BowlingTeam:     rec["bowling_team"],
		Over:            p.intField("over"),
		Ball:            p.intField("ball"),
		Batsman:         rec["batsman"],
		NonStriker:      rec["non_striker"],
		Bowler:          rec["bowler"],
		IsSuperOver:     p.boolField("is_super_over"),
		WideRuns:        p.intField("wide_runs"),
		NoballRuns:      p.intField("noball_runs"),
		ByeRuns:         p.intField("bye_runs"),
		LegbyeRuns:      p.intField("legbye_runs"),
		PenaltyRuns:     p.intField("penalty_runs"),
		BatsmanRuns:     p.intField("batsman_runs"),
		ExtraRuns:       p.intField("extra_runs"),
		TotalRuns:       p.intField("total_runs"),
		PlayerDismissed: rec["player_dismissed"],
		DismissalKind:   rec["dismissal_kind"],
	}
	if p.err != nil {
		return model.Delivery{}, p.err
	}
	if d.MatchID == 0 {
		return model.Delivery{}, p.fail("match_id", "missing match reference")
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"wide_runs", d.WideRuns}, {"noball_runs", d.NoballRuns},
		{"bye_runs", d.ByeRuns}, {"legbye_runs", d.LegbyeRuns},
		{"penalty_runs", d.PenaltyRuns}, {"batsman_runs", d.BatsmanRuns},
		{"extra_runs", d.ExtraRuns}, {"total_runs", d.TotalRuns},
	} {
		if f.v < 0 {
			return model.Delivery{}, p.fail(f.name, "negative run count")
		}
	}
	if d.BatsmanRuns+d.ExtraRuns != d.TotalRuns {
		return model.Delivery{}, p.fail("total_runs",
			fmt.Sprintf("total %d != batsman %d + extras %d", d.TotalRuns, d.BatsmanRuns, d.ExtraRuns))
	}
	return d, nil
}

// ParsePlayer coerces one raw record into a Player.
func ParsePlayer(row int, rec Record) (model.Player, error) {
	p := &rowParser{table: TablePlayers, row: row, rec: rec}
	pl := model.Player{
		ID:           p.intField("id"),
		Name:         rec["player_name"],
		Team:         rec["team"],
		Role:         rec["role"],
		BattingStyle: rec["batting_style"],
		BowlingStyle: rec["bowling_style"],
		Country:      rec["country"],
		RunsScored:   p.intField("runs_scored"),
		WicketsTaken: p.intField("wickets_taken"),
		Catches:      p.intField("catches"),
		Stumpings:    p.intField("stumpings"),
	}
	if p.err != nil {
		return model.Player{}, p.err
	}
	if pl.Name == "" {
		return model.Player{}, p.fail("player_name", "missing player name")
	}
	switch pl.Role {
	case model.RoleBatsman, model.RoleBowler, model.RoleAllRounder, model.RoleWicketKeeper, "":
	default:
		return model.Player{}, p.fail("role", fmt.Sprintf("unknown role %q", pl.Role))
	}
	return pl, nil
}

// ParseStanding coerces one raw record into a Standing.
func ParseStanding(row int, rec Record) (model.Standing, error) {
	p := &rowParser{table: TableStandings, row: row, rec: rec}
	s := model.Standing{
		Season:     p.intField("season"),
		Team:       rec["team"],
		Played:     p.intField("matches_played"),
		Won:        p.intField("won"),
		Lost:       p.intField("lost"),
		Tied:       p.intField("tied"),
		NoResult:   p.intField("no_result"),
		Points:     p.intField("points"),
		NetRunRate: p.floatField("net_run_rate"),
		Position:   p.intField("position"),
	}
	if p.err != nil {
		return model.Standing{}, p.err
	}
	if s.Team == "" {
		return model.Standing{}, p.fail("team", "missing team name")
	}
	if !s.Consistent() {
		return model.Standing{}, p.fail("matches_played",
			fmt.Sprintf("won+lost+tied+no_result = %d, matches_played = %d",
				s.Won+s.Lost+s.Tied+s.NoResult, s.Played))
	}
	return s, nil
}

// ParseVenue coerces one raw record into a Venue.
func ParseVenue(row int, rec Record) (model.Venue, error) {
	p := &rowParser{table: TableVenues, row: row, rec: rec}
	v := model.Venue{
		Name:     rec["name"],
		City:     rec["city"],
		Capacity: p.intField("capacity"),
		Timezone: rec["timezone"],
	}
	if p.err != nil {
		return model.Venue{}, p.err
	}
	if v.Name == "" {
		return model.Venue{}, p.fail("name", "missing venue name")
	}
	return v, nil
}

// rowParser accumulates the first coercion failure for a record.
type rowParser struct {
	table string
	row   int
	rec   Record
	err   error
}

func (p *rowParser) fail(column, reason string) error {
	return &SchemaError{Table: p.table, Row: p.row, Column: column, Reason: reason}
}

func (p *rowParser) intField(name string) int {
	if p.err != nil {
		return 0
	}
	raw := strings.TrimSpace(p.rec[name])
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Accept float-formatted integers ("4.0") as pandas emits them.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			p.err = p.fail(name, fmt.Sprintf("not an integer: %q", raw))
			return 0
		}
		return int(f)
	}
	return v
}

func (p *rowParser) floatField(name string) float64 {
	if p.err != nil {
		return 0
	}
	raw := strings.TrimSpace(p.rec[name])
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = p.fail(name, fmt.Sprintf("not a number: %q", raw))
		return 0
	}
	return v
}

func (p *rowParser) boolField(name string) bool {
	if p.err != nil {
		return false
	}
	switch strings.TrimSpace(strings.ToLower(p.rec[name])) {
	case "", "0", "false":
		return false
	case "1", "true":
		return true
	default:
		p.err = p.fail(name, fmt.Sprintf("not a boolean: %q", p.rec[name]))
		return false
	}
}
