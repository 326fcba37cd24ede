package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/cricstats/go-cricket-metrics/internal/loader"
	"github.com/cricstats/go-cricket-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintLoadSummary prints per-table load results.
func PrintLoadSummary(w io.Writer, results []loader.LoadResult) {
	table := newTable(w)
	table.Header("TABLE", "INSERTED", "SKIPPED")
	for _, r := range results {
		table.Append(r.Table, strconv.Itoa(r.RowsInserted), strconv.Itoa(r.RowsSkipped))
	}
	table.Render()

	for _, r := range results {
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  ! %s\n", e)
		}
	}
}

// PrintTeamKPIs prints the team KPI table, ordered by win rate desc.
func PrintTeamKPIs(w io.Writer, teams map[string]*model.TeamKPI) {
	rows := make([]*model.TeamKPI, 0, len(teams))
	for _, k := range teams {
		rows = append(rows, k)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WinRate() != rows[j].WinRate() {
			return rows[i].WinRate() > rows[j].WinRate()
		}
		return rows[i].Team < rows[j].Team
	})

	table := newTable(w)
	table.Header("TEAM", "M", "W", "WIN%", "TOSS%", "RR_FOR", "RR_AGAINST", "NRR")
	for _, k := range rows {
		nrr := "—"
		if !k.InsufficientData {
			nrr = fmt.Sprintf("%+.3f", k.NetRunRate())
		}
		table.Append(
			k.Team,
			strconv.Itoa(k.Matches),
			strconv.Itoa(k.Wins),
			fmt.Sprintf("%.0f%%", k.WinRate()*100),
			fmt.Sprintf("%.0f%%", k.TossWinRate()*100),
			fmt.Sprintf("%.2f", k.AvgRunsScoredPerOver()),
			fmt.Sprintf("%.2f", k.AvgRunsConcededPerOver()),
			nrr,
		)
	}
	table.Render()
}

// PrintPlayerKPIs prints the top batting and bowling tables.
func PrintPlayerKPIs(w io.Writer, players map[string]*model.PlayerKPI, limit int) {
	rows := make([]*model.PlayerKPI, 0, len(players))
	for _, k := range players {
		rows = append(rows, k)
	}

	// Batting, by runs scored.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RunsScored != rows[j].RunsScored {
			return rows[i].RunsScored > rows[j].RunsScored
		}
		return rows[i].Player < rows[j].Player
	})
	fmt.Fprintf(w, "\n--- Batting ---\n\n")
	bat := newTable(w)
	bat.Header("PLAYER", "RUNS", "BALLS", "OUT", "AVG", "SR")
	for i, k := range rows {
		if limit > 0 && i >= limit {
			break
		}
		if k.BallsFaced == 0 {
			continue
		}
		bat.Append(
			k.Player,
			strconv.Itoa(k.RunsScored),
			strconv.Itoa(k.BallsFaced),
			strconv.Itoa(k.Dismissals),
			fmt.Sprintf("%.1f", k.BattingAverage()),
			fmt.Sprintf("%.1f", k.StrikeRate()),
		)
	}
	bat.Render()

	// Bowling, by wickets.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Wickets != rows[j].Wickets {
			return rows[i].Wickets > rows[j].Wickets
		}
		return rows[i].Player < rows[j].Player
	})
	fmt.Fprintf(w, "\n--- Bowling ---\n\n")
	bowl := newTable(w)
	bowl.Header("PLAYER", "WKTS", "BALLS", "RUNS", "ECON")
	for i, k := range rows {
		if limit > 0 && i >= limit {
			break
		}
		if k.BallsBowled == 0 {
			continue
		}
		bowl.Append(
			k.Player,
			strconv.Itoa(k.Wickets),
			strconv.Itoa(k.BallsBowled),
			strconv.Itoa(k.RunsConceded),
			fmt.Sprintf("%.2f", k.EconomyRate()),
		)
	}
	bowl.Render()
}

// PrintStandings prints the standings table.
func PrintStandings(w io.Writer, standings []model.Standing) {
	table := newTable(w)
	table.Header("POS", "TEAM", "SEASON", "P", "W", "L", "T", "NR", "PTS", "NRR")
	for _, s := range standings {
		table.Append(
			strconv.Itoa(s.Position),
			s.Team,
			strconv.Itoa(s.Season),
			strconv.Itoa(s.Played),
			strconv.Itoa(s.Won),
			strconv.Itoa(s.Lost),
			strconv.Itoa(s.Tied),
			strconv.Itoa(s.NoResult),
			strconv.Itoa(s.Points),
			fmt.Sprintf("%+.3f", s.NetRunRate),
		)
	}
	table.Render()
}

// PrintTrainingReport prints the training summary and feature
// importances, most important first.
func PrintTrainingReport(w io.Writer, r *model.TrainingReport) {
	fmt.Fprintf(w, "\nModel %s\n", r.ModelVersion)
	fmt.Fprintf(w, "  Accuracy   : %.1f%% (%d eval rows, %d train rows)\n",
		r.Accuracy*100, r.EvalRows, r.TrainRows)

	type imp struct {
		name string
		v    float64
	}
	imps := make([]imp, 0, len(r.FeatureImportances))
	for name, v := range r.FeatureImportances {
		imps = append(imps, imp{name, v})
	}
	sort.Slice(imps, func(i, j int) bool {
		if imps[i].v != imps[j].v {
			return imps[i].v > imps[j].v
		}
		return imps[i].name < imps[j].name
	})

	table := newTable(w)
	table.Header("FEATURE", "IMPORTANCE")
	for _, im := range imps {
		table.Append(im.name, fmt.Sprintf("%.3f", im.v))
	}
	table.Render()
}

// PrintPrediction prints one prediction.
func PrintPrediction(w io.Writer, team1, team2 string, p *model.Prediction) {
	fmt.Fprintf(w, "\n%s vs %s\n", team1, team2)
	fmt.Fprintf(w, "  Predicted winner : %s\n", p.Winner)
	fmt.Fprintf(w, "  Confidence       : %.1f%%\n", p.Confidence*100)
}
