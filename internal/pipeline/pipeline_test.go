package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cricstats/go-cricket-metrics/internal/feature"
	"github.com/cricstats/go-cricket-metrics/internal/model"
)

// Three decided matches at one venue: Team A beats Team B twice, Team B
// wins once. Match 2 is stored with the teams in the opposite order so
// the training labels are not all one class.
const matchesCSV = `id,season,city,date,team1,team2,toss_winner,toss_decision,result,winner,win_by_runs,win_by_wickets,player_of_match,venue
1,2025,Mumbai,2025-04-01,Team A,Team B,Team A,bat,normal,Team A,15,0,Alice,Venue V
2,2025,Mumbai,2025-04-04,Team B,Team A,Team B,bat,normal,Team A,0,6,Alice,Venue V
3,2025,Mumbai,2025-04-07,Team A,Team B,Team B,field,normal,Team B,0,4,Dave,Venue V
`

const deliveriesCSV = `match_id,inning,batting_team,bowling_team,over,ball,batsman,non_striker,bowler,is_super_over,wide_runs,noball_runs,bye_runs,legbye_runs,penalty_runs,batsman_runs,extra_runs,total_runs,player_dismissed,dismissal_kind
1,1,Team A,Team B,0,1,Alice,Bob,Dave,0,0,0,0,0,0,4,0,4,,
1,1,Team A,Team B,0,2,Alice,Bob,Dave,0,0,0,0,0,0,6,0,6,,
1,2,Team B,Team A,0,1,Dave,Erin,Carol,0,0,0,0,0,0,1,0,1,,
1,2,Team B,Team A,0,2,Dave,Erin,Carol,0,0,0,0,0,0,2,0,2,,
2,1,Team B,Team A,0,1,Dave,Erin,Carol,0,0,0,0,0,0,1,0,1,,
2,1,Team B,Team A,0,2,Dave,Erin,Carol,0,0,0,0,0,0,0,0,0,Dave,bowled
2,2,Team A,Team B,0,1,Alice,Bob,Dave,0,0,0,0,0,0,4,0,4,,
2,2,Team A,Team B,0,2,Alice,Bob,Dave,0,1,0,0,0,0,0,1,1,,
3,1,Team B,Team A,0,1,Dave,Erin,Carol,0,0,0,0,0,0,6,0,6,,
3,1,Team B,Team A,0,2,Dave,Erin,Carol,0,0,0,0,0,0,4,0,4,,
3,2,Team A,Team B,0,1,Alice,Bob,Dave,0,0,0,0,0,0,2,0,2,,
3,2,Team A,Team B,0,2,Alice,Bob,Dave,0,0,0,0,0,0,1,0,1,,
`

const playersCSV = `id,player_name,team,role,batting_style,bowling_style,country,runs_scored,wickets_taken,catches,stumpings
1,Alice,Team A,batsman,right-hand bat,,IN,540,0,8,0
2,Carol,Team A,bowler,right-hand bat,right-arm fast,IN,80,22,5,0
3,Dave,Team B,all-rounder,left-hand bat,left-arm orthodox,IN,310,14,6,0
`

const standingsCSV = `season,team,matches_played,won,lost,tied,no_result,points,net_run_rate,position
2025,Team A,3,2,1,0,0,4,0.8,1
2025,Team B,3,1,2,0,0,2,-0.8,2
`

const venuesCSV = `name,city,capacity,timezone
Venue V,Mumbai,33000,Asia/Kolkata
`

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"matches.csv":    matchesCSV,
		"deliveries.csv": deliveriesCSV,
		"players.csv":    playersCSV,
		"standings.csv":  standingsCSV,
		"venues.csv":     venuesCSV,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func openTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	work := t.TempDir()
	p, err := Open(Config{
		DBPath:          filepath.Join(work, "cricket.db"),
		ArtifactPath:    filepath.Join(work, "model.json"),
		MinTrainMatches: 3,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestRunEndToEnd(t *testing.T) {
	p := openTestPipeline(t)
	dir := writeDataDir(t)

	summary, err := p.Run(dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Loads) != 5 {
		t.Fatalf("loads = %d tables, want 5", len(summary.Loads))
	}
	for _, l := range summary.Loads {
		if l.RowsSkipped != 0 {
			t.Errorf("table %s skipped %d rows: %v", l.Table, l.RowsSkipped, l.Errors)
		}
	}
	if len(summary.Report.Orphans) != 0 {
		t.Errorf("unexpected referential findings: %v", summary.Report.Orphans)
	}
	if summary.Training == nil || summary.Training.ModelVersion == "" {
		t.Fatal("expected a trained model version")
	}
	if summary.Training.TrainRows != 3 {
		t.Errorf("train rows = %d, want 3", summary.Training.TrainRows)
	}
	if p.ModelVersion() != summary.Training.ModelVersion {
		t.Error("pipeline does not report the freshly trained version")
	}

	// Team A won two of three meetings; given it also won the toss and
	// chose to bat, the model must pick Team A.
	pred, err := p.Predict("Team A", "Team B", "Team A", model.TossBat, "Venue V")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Winner != "Team A" {
		t.Errorf("winner = %q, want Team A", pred.Winner)
	}
	if pred.Confidence < 0.5 || pred.Confidence > 1 {
		t.Errorf("confidence = %f, want within [0.5, 1]", pred.Confidence)
	}

	// Relabeling the same real-world matchup must not change the call.
	swapped, err := p.Predict("Team B", "Team A", "Team A", model.TossBat, "Venue V")
	if err != nil {
		t.Fatalf("Predict (swapped): %v", err)
	}
	if swapped.Winner != pred.Winner {
		t.Errorf("swapped winner = %q, want %q", swapped.Winner, pred.Winner)
	}
	if diff := swapped.Confidence - pred.Confidence; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("swapped confidence = %f, want %f", swapped.Confidence, pred.Confidence)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	p := openTestPipeline(t)
	dir := writeDataDir(t)

	if _, err := p.Run(dir); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	summary, err := p.Run(dir)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	for _, l := range summary.Loads {
		if l.RowsSkipped != 0 {
			t.Errorf("table %s skipped rows on re-run", l.Table)
		}
	}

	n, err := p.DB().CountRows("matches")
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if n != 3 {
		t.Errorf("matches = %d after double run, want 3", n)
	}
}

func TestPredictUnknownTeam(t *testing.T) {
	p := openTestPipeline(t)
	if _, err := p.Run(writeDataDir(t)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, err := p.Predict("Team A", "Team Z", "Team A", model.TossBat, "Venue V")
	var ue *feature.UnknownEntityError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownEntityError, got %v", err)
	}
	if ue.Kind != "team" || ue.Name != "Team Z" {
		t.Errorf("error = %+v", ue)
	}
}

func TestModelSurvivesReopen(t *testing.T) {
	work := t.TempDir()
	cfg := Config{
		DBPath:          filepath.Join(work, "cricket.db"),
		ArtifactPath:    filepath.Join(work, "model.json"),
		MinTrainMatches: 3,
	}

	p, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	summary, err := p.Run(writeDataDir(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	version := summary.Training.ModelVersion
	p.Close()

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.ModelVersion() != version {
		t.Errorf("version after reopen = %q, want %q", reopened.ModelVersion(), version)
	}

	pred, err := reopened.Predict("Team A", "Team B", "Team A", model.TossBat, "Venue V")
	if err != nil {
		t.Fatalf("Predict after reopen: %v", err)
	}
	if pred.Winner == "" {
		t.Error("expected a prediction from the persisted model")
	}
}
