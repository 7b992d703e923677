package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/models"
)

type titleReport struct {
	Production *models.Production `json:"production" yaml:"production"`
	Series     *models.Series     `json:"series,omitempty" yaml:"series,omitempty"` // parent of an episode
}

var titleCmd = &cobra.Command{
	Use:   "title <title_id>",
	Short: "Show a movie, series or episode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		p, ok, err := client.GetProduction(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no production with title_id %s", args[0])
		}
		report := titleReport{Production: p}
		if p.Episode != nil {
			series, found, err := client.SeriesOfEpisode(ctx, p.Episode.TitleID)
			if err != nil {
				return err
			}
			if found {
				report.Series = series
			}
		}
		return render(report, func(w io.Writer) error {
			return writeTitle(w, report)
		})
	},
}

func writeTitle(w io.Writer, r titleReport) error {
	p := r.Production
	var err error
	switch {
	case p.Movie != nil:
		_, err = fmt.Fprintf(w, "Movie %s (%s, %s)\n", p.Movie.Title, p.Movie.TitleID, optYear(p.Movie.Year))
	case p.Series != nil:
		_, err = fmt.Fprintf(w, "Series %s (%s, %s-%s)\n", p.Series.Title, p.Series.TitleID,
			optYear(p.Series.StartYear), optYear(p.Series.EndYear))
	case p.Episode != nil:
		e := p.Episode
		_, err = fmt.Fprintf(w, "Episode %s (%s, %s) S%sE%s\n", e.Title, e.TitleID, optYear(e.Year),
			optYear(e.SeasonNum), optYear(e.EpisodeNum))
		if err == nil && r.Series != nil {
			_, err = fmt.Fprintf(w, "  of %s (%s)\n", r.Series.Title, r.Series.TitleID)
		}
	}
	return err
}
