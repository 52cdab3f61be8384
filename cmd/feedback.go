package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/urfave/cli/v3"
)

// FeedbackStats prints rating totals, a per-platform breakdown and recent comments.
func (r *Runner) FeedbackStats(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	stats, err := repositories.NewFeedbackRepository(db).Stats(ctx, user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlainHeader("Feedback")
	r.writePlain("Total: %d  👍 %d  👎 %d\n\n", stats.Total, stats.ThumbsUp, stats.ThumbsDown)
	if stats.Total == 0 {
		return nil
	}

	rows := [][]string{}
	for _, platform := range models.Platforms {
		counts, ok := stats.ByPlatform[platform]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			platform.Label(),
			fmt.Sprintf("%d", counts.ThumbsUp),
			fmt.Sprintf("%d", counts.ThumbsDown),
		})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"Platform", "Up", "Down"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))

	if len(stats.RecentComments) > 0 {
		r.writePlainln("Recent comments:")
		for _, c := range stats.RecentComments {
			r.writePlain("  [%s] %s %s: %s\n",
				c.CreatedAt.Local().Format("2006-01-02"), c.Platform.Label(), ratingIcon(c.Rating), c.Comment)
		}
	}
	return nil
}

func ratingIcon(r models.Rating) string {
	if r == models.ThumbsUp {
		return "👍"
	}
	return "👎"
}
