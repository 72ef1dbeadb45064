package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fragcore/arena/internal/leaderboard"
	"github.com/fragcore/arena/internal/match"
)

// ScoreRow is one actor's tally in a finished match.
type ScoreRow struct {
	Name   string
	Kills  int
	Deaths int
}

// MatchResult is what is kept of a finished match.
type MatchResult struct {
	ID        uuid.UUID
	Mode      string
	TimeLimit float64
	Duration  float64
	RedScore  int
	BlueScore int
	Scores    []ScoreRow
}

// ResultFromLeaderBoard snapshots the standings of a match that ran for
// duration seconds.
func ResultFromLeaderBoard(id uuid.UUID, o match.Options, lb *leaderboard.LeaderBoard, duration float64) MatchResult {
	res := MatchResult{
		ID:        id,
		Mode:      o.Mode().String(),
		TimeLimit: o.TimeLimit(),
		Duration:  duration,
	}
	if o.Mode() == match.ModeTeamDeathMatch {
		res.RedScore = lb.TeamScore(match.TeamRed)
		res.BlueScore = lb.TeamScore(match.TeamBlue)
	}
	for _, e := range lb.Standings() {
		res.Scores = append(res.Scores, ScoreRow{Name: e.Name, Kills: e.Kills, Deaths: e.Deaths})
	}
	return res
}

// PlayerTotal aggregates a name over all stored matches.
type PlayerTotal struct {
	Name    string
	Matches int
	Kills   int
	Deaths  int
}

type MatchRepo struct {
	db *DB
}

func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// SaveResult writes the match row and all score rows in one transaction.
func (r *MatchRepo) SaveResult(ctx context.Context, res MatchResult) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save result begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO matches (match_id, mode, time_limit, duration, red_score, blue_score)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		res.ID, res.Mode, res.TimeLimit, res.Duration, res.RedScore, res.BlueScore,
	); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for _, s := range res.Scores {
		if _, err := tx.Exec(ctx,
			`INSERT INTO match_scores (match_id, name, kills, deaths)
			 VALUES ($1, $2, $3, $4)`,
			res.ID, s.Name, s.Kills, s.Deaths,
		); err != nil {
			return fmt.Errorf("insert score %s: %w", s.Name, err)
		}
	}

	return tx.Commit(ctx)
}

// TopPlayers returns up to limit names ordered by total kills.
func (r *MatchRepo) TopPlayers(ctx context.Context, limit int) ([]PlayerTotal, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, COUNT(*), SUM(kills), SUM(deaths)
		 FROM match_scores
		 GROUP BY name
		 ORDER BY SUM(kills) DESC, SUM(deaths) ASC, name
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	defer rows.Close()

	var out []PlayerTotal
	for rows.Next() {
		var p PlayerTotal
		if err := rows.Scan(&p.Name, &p.Matches, &p.Kills, &p.Deaths); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
