package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"chorus/internal/store"
)

func newPodcastCommand(ctx *commandContext) *cobra.Command {
	podcastCmd := &cobra.Command{
		Use:   "podcast",
		Short: "Podcast catalog utilities",
	}

	podcastCmd.AddCommand(newPodcastListCommand(ctx))
	podcastCmd.AddCommand(newPodcastAddCommand(ctx))

	return podcastCmd
}

func newPodcastListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List podcasts in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			podcasts, err := st.PodcastsAlphabetical(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list podcasts: %w", err)
			}
			if len(podcasts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No podcasts in the catalog.")
				return nil
			}

			rows := make([][]string, 0, len(podcasts))
			for _, podcast := range podcasts {
				language := ""
				if podcast.Language != nil {
					language = *podcast.Language
				}
				rows = append(rows, []string{
					strconv.FormatInt(podcast.ID, 10),
					podcast.Title,
					language,
					podcast.FeedURL,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Language", "Feed"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of podcasts to list")
	return cmd
}

func newPodcastAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var language string

	cmd := &cobra.Command{
		Use:   "add <feed-url>",
		Short: "Add a podcast to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			ins := store.NewPodcast{Title: title, FeedURL: args[0]}
			if language != "" {
				ins.Language = &language
			}
			podcast, err := st.CreatePodcast(cmd.Context(), ins)
			if err != nil {
				return fmt.Errorf("add podcast: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added podcast %d: %s\n", podcast.ID, podcast.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Podcast title")
	cmd.Flags().StringVar(&language, "language", "", "Feed language tag")
	return cmd
}
