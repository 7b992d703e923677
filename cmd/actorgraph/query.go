package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/aggregate"
	"github.com/rohankatakam/actorgraph/internal/connection"
)

var actorCmd = &cobra.Command{
	Use:   "actor",
	Short: "Look up actors",
}

var actorInfoCmd = &cobra.Command{
	Use:   "info <name_id>",
	Short: "Show an actor and their appearance totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		info, ok, err := aggregate.NewService(client).ActorInfo(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no credited actor with id %s", args[0])
		}
		return render(info, func(w io.Writer) error {
			fmt.Fprintf(w, "%s (%s) %s\n", info.Name, info.NameID, lifespan(info.BirthYear, info.DeathYear))
			fmt.Fprintf(w, "  movies:   %d\n", info.MovieCount)
			fmt.Fprintf(w, "  episodes: %d\n", info.EpisodeCount)
			fmt.Fprintf(w, "  series:   %d\n", info.SeriesCount)
			return nil
		})
	},
}

var actorResolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Find the id of the most credited actor with an exact name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := strings.Join(args, " ")
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		id, ok, err := aggregate.NewService(client).ResolveActorID(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no credited actor named %q", name)
		}
		ref := aggregate.ActorRef{NameID: id, Name: name}
		return render(ref, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, id)
			return err
		})
	},
}

var (
	existsID   string
	existsName string
)

var actorExistsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Check whether a credited actor exists by id or name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (existsID == "") == (existsName == "") {
			return fmt.Errorf("pass exactly one of --id and --name")
		}
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		svc := aggregate.NewService(client)
		var exists bool
		if existsID != "" {
			exists, err = svc.ActorIDExists(ctx, existsID)
		} else {
			exists, err = svc.ActorNameExists(ctx, existsName)
		}
		if err != nil {
			return err
		}
		return render(map[string]bool{"exists": exists}, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, exists)
			return err
		})
	},
}

var connectHops string

var connectCmd = &cobra.Command{
	Use:   "connect <name_id> <name_id>",
	Short: "Find the shortest chain of shared credits between two actors",
	Long: `Finds a shortest path of ACTED_IN credits between two actors and prints
it as alternating actor, role and production steps. --hops bounds the number
of credits traversed; values outside [1,50] fall back to 20. When several
shortest chains exist, which one is shown may change between runs.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		hops := connection.ClampHops(cfg.Query.DefaultHops)
		if cmd.Flags().Changed("hops") {
			hops = connection.ParseHops(connectHops)
		}

		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		finder := connection.NewFinder(client, aggregate.NewService(client))
		res, err := finder.Find(ctx, args[0], args[1], hops)
		if err != nil {
			return err
		}
		return render(res, func(w io.Writer) error {
			return writeConnection(w, res, hops)
		})
	},
}

func writeConnection(w io.Writer, res connection.Result, hops int) error {
	if !res.Valid {
		_, err := fmt.Fprintln(w, "Both actor ids are required")
		return err
	}
	if !res.Found() {
		_, err := fmt.Fprintf(w, "No connection within %d credits\n", hops)
		return err
	}
	fmt.Fprintf(w, "%d steps\n", connection.Steps(res.Segments))
	for _, seg := range res.Segments {
		switch seg.Kind {
		case connection.SegmentActor:
			a := seg.Actor
			fmt.Fprintf(w, "%s (%s) %s [%d movies, %d episodes, %d series]\n",
				a.Name, a.NameID, lifespan(a.BirthYear, a.DeathYear), a.MovieCount, a.EpisodeCount, a.SeriesCount)
		case connection.SegmentRole:
			fmt.Fprintf(w, "  as %s\n", optText(seg.Role.Roles))
		case connection.SegmentMovie:
			m := seg.Movie
			fmt.Fprintf(w, "  in %s (%s, %s)\n", m.Title, m.TitleID, optYear(m.Year))
		case connection.SegmentEpisode:
			e := seg.Episode
			series := e.ParentSeries
			if series == "" {
				series = "unknown series"
			}
			fmt.Fprintf(w, "  in %s S%sE%s %q (%s, %s)\n",
				series, optYear(e.SeasonNum), optYear(e.EpisodeNum), e.EpisodeTitle, e.EpisodeID, optYear(e.Year))
		}
	}
	return nil
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Count actors, productions and credits in the graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		totals, err := aggregate.NewService(client).GraphTotals(ctx)
		if err != nil {
			return err
		}
		return render(totals, func(w io.Writer) error {
			fmt.Fprintf(w, "actors:   %d\n", totals.Actors)
			fmt.Fprintf(w, "movies:   %d\n", totals.Movies)
			fmt.Fprintf(w, "episodes: %d\n", totals.Episodes)
			fmt.Fprintf(w, "series:   %d\n", totals.Series)
			fmt.Fprintf(w, "credits:  %d\n", totals.Credits)
			return nil
		})
	},
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Pick a random credited actor",
	Long:  `Picks a credit uniformly at random and prints its actor, so actors with more credits are picked more often.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		ref, ok, err := aggregate.NewService(client).RandomActor(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("the graph has no credits")
		}
		return render(ref, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s (%s)\n", ref.Name, ref.NameID)
			return err
		})
	},
}

func init() {
	actorExistsCmd.Flags().StringVar(&existsID, "id", "", "actor name_id")
	actorExistsCmd.Flags().StringVar(&existsName, "name", "", "exact actor name")
	actorCmd.AddCommand(actorInfoCmd, actorResolveCmd, actorExistsCmd)

	connectCmd.Flags().StringVar(&connectHops, "hops", "", "maximum credits to traverse, 1-50 (default query.default_hops)")
}
