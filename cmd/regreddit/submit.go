package main

import (
	"github.com/spf13/cobra"

	"regreddit/internal/app"
)

func newSubmitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit new content to Reddit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newSubmitLinkCommand())
	cmd.AddCommand(newSubmitSelfPostCommand())

	return cmd
}

func newSubmitLinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <subreddit> <title> <url>",
		Short: "Submit a link",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := initDeps()
			if err != nil {
				return err
			}
			defer func() { _ = d.log.Sync() }()

			return d.app.SubmitLink(cmd.Context(), args[0], args[1], args[2])
		},
	}
}

func newSubmitSelfPostCommand() *cobra.Command {
	var (
		text             string
		textFile         string
		richtextJSON     string
		richtextJSONFile string
	)

	cmd := &cobra.Command{
		Use:   "self-post <subreddit> <title>",
		Short: "Submit a self post",
		Long:  "Submits a self post. The body comes from exactly one of --text, --text-file, --richtext-json or --richtext-json-file.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := initDeps()
			if err != nil {
				return err
			}
			defer func() { _ = d.log.Sync() }()

			return d.app.SubmitSelfPost(cmd.Context(), app.SelfPostParams{
				Subreddit:        args[0],
				Title:            args[1],
				Text:             text,
				TextFile:         textFile,
				RichtextJSON:     richtextJSON,
				RichtextJSONFile: richtextJSONFile,
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "the body text to submit")
	cmd.Flags().StringVar(&textFile, "text-file", "", "a file containing the body text to submit")
	cmd.Flags().StringVar(&richtextJSON, "richtext-json", "", "the body richtext JSON to submit")
	cmd.Flags().StringVar(&richtextJSONFile, "richtext-json-file", "", "a file containing richtext JSON to submit")

	return cmd
}
