package schema

import (
	"errors"
	"testing"
)

func validMatchRecord() Record {
	return Record{
		"id": "1", "season": "2025", "city": "Mumbai", "date": "2025-04-01",
		"team1": "Team A", "team2": "Team B",
		"toss_winner": "Team A", "toss_decision": "bat",
		"result": "normal", "winner": "Team A",
		"win_by_runs": "20", "win_by_wickets": "0",
		"player_of_match": "Alice", "venue": "Venue V",
	}
}

func validDeliveryRecord() Record {
	return Record{
		"match_id": "1", "inning": "1",
		"batting_team": "Team A", "bowling_team": "Team B",
		"over": "0", "ball": "1",
		"batsman": "Alice", "non_striker": "Bob", "bowler": "Carol",
		"is_super_over": "0",
		"wide_runs": "0", "noball_runs": "0", "bye_runs": "0",
		"legbye_runs": "0", "penalty_runs": "0",
		"batsman_runs": "4", "extra_runs": "0", "total_runs": "4",
		"player_dismissed": "", "dismissal_kind": "",
	}
}

func TestCheckHeaderMissingAndExtra(t *testing.T) {
	header := []string{"id", "season", "city", "date", "team1", "team2",
		"toss_winner", "toss_decision", "result", "winner",
		"win_by_runs", "win_by_wickets", "venue", "umpire1"}

	err := CheckHeader(TableMatches, header)
	if err == nil {
		t.Fatal("expected SchemaError for wrong header")
	}
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if len(se.Missing) != 1 || se.Missing[0] != "player_of_match" {
		t.Errorf("missing = %v, want [player_of_match]", se.Missing)
	}
	if len(se.Extra) != 1 || se.Extra[0] != "umpire1" {
		t.Errorf("extra = %v, want [umpire1]", se.Extra)
	}
}

func TestCheckHeaderUnknownTable(t *testing.T) {
	if err := CheckHeader("umpires", []string{"id"}); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestParseMatchValid(t *testing.T) {
	m, err := ParseMatch(1, validMatchRecord())
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	if m.ID != 1 || m.Team1 != "Team A" || m.Winner != "Team A" || m.WinByRuns != 20 {
		t.Errorf("unexpected match: %+v", m)
	}
}

func TestParseMatchInvariants(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(Record)
	}{
		{"identical teams", func(r Record) { r["team2"] = "Team A" }},
		{"bad toss decision", func(r Record) { r["toss_decision"] = "bowl" }},
		{"winner is neither team", func(r Record) { r["winner"] = "Team C" }},
		{"missing id", func(r Record) { r["id"] = "" }},
		{"non-numeric season", func(r Record) { r["season"] = "twenty" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validMatchRecord()
			tc.mutate(rec)
			if _, err := ParseMatch(1, rec); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestParseMatchNoResult(t *testing.T) {
	rec := validMatchRecord()
	rec["winner"] = ""
	m, err := ParseMatch(1, rec)
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	if m.HasWinner() {
		t.Error("expected no winner for empty winner column")
	}
}

func TestParseDeliveryTotalInvariant(t *testing.T) {
	rec := validDeliveryRecord()
	rec["total_runs"] = "5" // batsman 4 + extras 0 != 5
	_, err := ParseDelivery(3, rec)
	if err == nil {
		t.Fatal("expected error for inconsistent total")
	}
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if se.Row != 3 || se.Column != "total_runs" {
		t.Errorf("error context = row %d column %q", se.Row, se.Column)
	}
}

func TestParseDeliveryNegativeRuns(t *testing.T) {
	rec := validDeliveryRecord()
	rec["wide_runs"] = "-1"
	if _, err := ParseDelivery(1, rec); err == nil {
		t.Error("expected error for negative run count")
	}
}

func TestParseDeliveryFloatFormattedInts(t *testing.T) {
	// pandas emits integer columns as "4.0" after NaN coercion.
	rec := validDeliveryRecord()
	rec["batsman_runs"] = "4.0"
	rec["total_runs"] = "4.0"
	d, err := ParseDelivery(1, rec)
	if err != nil {
		t.Fatalf("ParseDelivery: %v", err)
	}
	if d.BatsmanRuns != 4 {
		t.Errorf("batsman_runs = %d, want 4", d.BatsmanRuns)
	}
}

func TestParseDeliveryEmptyCountsDefaultToZero(t *testing.T) {
	rec := validDeliveryRecord()
	rec["penalty_runs"] = ""
	d, err := ParseDelivery(1, rec)
	if err != nil {
		t.Fatalf("ParseDelivery: %v", err)
	}
	if d.PenaltyRuns != 0 {
		t.Errorf("penalty_runs = %d, want 0", d.PenaltyRuns)
	}
}

func TestParseStandingConsistency(t *testing.T) {
	rec := Record{
		"season": "2025", "team": "Team A", "matches_played": "10",
		"won": "6", "lost": "3", "tied": "0", "no_result": "0",
		"points": "12", "net_run_rate": "0.45", "position": "2",
	}
	if _, err := ParseStanding(1, rec); err == nil {
		t.Error("expected error: 6+3+0+0 != 10")
	}
	rec["no_result"] = "1"
	s, err := ParseStanding(1, rec)
	if err != nil {
		t.Fatalf("ParseStanding: %v", err)
	}
	if s.NetRunRate != 0.45 {
		t.Errorf("net_run_rate = %f, want 0.45", s.NetRunRate)
	}
}

func TestValidatePure(t *testing.T) {
	records := []Record{validMatchRecord()}
	if err := Validate(TableMatches, records); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// The records must be unchanged.
	if records[0]["team1"] != "Team A" {
		t.Error("Validate mutated its input")
	}

	records[0]["season"] = "not-a-year"
	if err := Validate(TableMatches, records); err == nil {
		t.Error("expected type-mismatch error")
	}
}
