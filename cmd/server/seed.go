package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zoskagram/internal/seed"
	"zoskagram/internal/service"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Import users, profiles, posts and follows from a JSON file",
	Example: `  zoskagram seed --file seeds/dev.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()

		doc, err := seed.Parse(f)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		r := a.repos()
		t := a.togglers(r)
		followService := service.NewFollowService(t.follows)
		// The feed cache is rebuilt from the database when the server starts
		feedService := service.NewFeedService(nil, r.posts, r.users, t.likes, t.saves, a.log)
		seeder := seed.NewSeeder(
			r.users,
			service.NewProfileService(a.db, r.users, r.profiles, r.posts, followService, a.log),
			service.NewPostService(r.posts, r.users, feedService, nil, nil, a.log),
			followService,
			a.log,
		)

		res, err := seeder.Apply(ctx, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d posts, %d follows\n", res.Users, res.Posts, res.Follows)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to the seed JSON file")
	_ = seedCmd.MarkFlagRequired("file")
}
