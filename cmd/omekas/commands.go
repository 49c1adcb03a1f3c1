package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	omekas "github.com/st-keller/omekas-client"
	"github.com/st-keller/omekas-client/config"
)

func itemsCmd(g *globals) *cobra.Command {
	var (
		perPage int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List one page of items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			items, err := s.repo.GetItems(cmd.Context(), perPage, !noCache)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for item, err := range items {
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\t%s\n", item.ID(), item.Title())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&perPage, "per-page", omekas.DefaultPerPage, "Items per page")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the response cache")
	return cmd
}

func itemCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "item <id>",
		Short: "Show one item with its property values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			item, err := s.repo.GetItem(cmd.Context(), id, true)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), item)
			}
			printItem(cmd.OutOrStdout(), item)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw payload as JSON")
	return cmd
}

func addValueCmd(g *globals) *cobra.Command {
	var (
		private   bool
		valueType string
	)

	cmd := &cobra.Command{
		Use:   "add-value <id> <term> <value>",
		Short: "Append a value to an item property and push the item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			item, err := s.repo.GetItem(ctx, id, false)
			if err != nil {
				return err
			}

			opts := []omekas.ValueOption{omekas.WithType(valueType)}
			if private {
				opts = append(opts, omekas.Private())
			}
			if err := item.AddProperty(ctx, omekas.Term(args[1]), args[2], opts...); err != nil {
				return err
			}
			return push(cmd, item)
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "Mark the value as not public")
	cmd.Flags().StringVar(&valueType, "type", omekas.DefaultValueType, "Value type")
	return cmd
}

func removeValueCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-value <id> <term> <value>",
		Short: "Remove every matching literal from an item property and push the item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			item, err := s.repo.GetItem(ctx, id, false)
			if err != nil {
				return err
			}
			if err := item.RemoveValue(ctx, omekas.Term(args[1]), args[2]); err != nil {
				return err
			}
			return push(cmd, item)
		},
	}
}

func vocabulariesCmd(g *globals) *cobra.Command {
	var perPage int

	cmd := &cobra.Command{
		Use:   "vocabularies",
		Short: "List one page of vocabularies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			vocabularies, err := s.repo.GetVocabularies(cmd.Context(), perPage)
			if err != nil {
				return err
			}
			for _, v := range vocabularies {
				printVocabulary(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&perPage, "per-page", omekas.DefaultPerPage, "Vocabularies per page")
	return cmd
}

func vocabularyCmd(g *globals) *cobra.Command {
	var (
		sel        omekas.VocabularySelector
		properties bool
	)

	cmd := &cobra.Command{
		Use:   "vocabulary",
		Short: "Look a vocabulary up by prefix or namespace URI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			match, err := s.repo.GetVocabulary(ctx, sel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if match.Len() == 0 {
				return &omekas.NotFoundError{Kind: "vocabulary", Key: sel.Prefix + sel.URI}
			}
			for _, v := range match.All() {
				printVocabulary(out, v)
				if !properties {
					continue
				}
				list, err := v.Properties(ctx, 0)
				if err != nil {
					return err
				}
				for _, p := range list {
					fmt.Fprintf(out, "  %d\t%s\t%s\n", p.ID(), p.Term(), p.Label())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sel.Prefix, "prefix", "", "Vocabulary prefix, e.g. dcterms")
	cmd.Flags().StringVar(&sel.URI, "uri", "", "Vocabulary namespace URI")
	cmd.Flags().BoolVar(&properties, "properties", false, "Also list the vocabulary's properties")
	cmd.MarkFlagsMutuallyExclusive("prefix", "uri")
	cmd.MarkFlagsOneRequired("prefix", "uri")
	return cmd
}

func propertyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "property <term>",
		Short: "Resolve a property term such as dcterms:title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			p, err := s.repo.GetProperty(ctx, args[0])
			if err != nil {
				return err
			}
			v, err := p.Vocabulary(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:         %d\n", p.ID())
			fmt.Fprintf(out, "term:       %s\n", p.Term())
			fmt.Fprintf(out, "label:      %s\n", p.Label())
			if p.Comment() != "" {
				fmt.Fprintf(out, "comment:    %s\n", p.Comment())
			}
			fmt.Fprintf(out, "vocabulary: %s (%s)\n", v.Prefix(), v.URI())
			return nil
		},
	}
}

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var (
		endpoint string
		force    bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath == "" {
				return errors.New("no config path: pass --config")
			}
			if _, err := os.Stat(g.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", g.configPath)
			}

			cfg := config.Default()
			cfg.Repository.APIEndpoint = endpoint
			if err := config.WriteStarter(g.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", g.configPath)
			return nil
		},
	}
	initCmd.Flags().StringVar(&endpoint, "endpoint", "https://example.org/api", "Repository API endpoint")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "List the supported environment variables",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.EnvUsage())
		},
	}

	cmd.AddCommand(initCmd, envCmd)
	return cmd
}

// push sends the item and reports whether the server accepted it.
func push(cmd *cobra.Command, item *omekas.Item) error {
	ok, err := item.Update(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("item %d: update rejected by the server", item.ID())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated item %d (version %d)\n", item.ID(), len(item.Versions())-1)
	return nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func printItem(w io.Writer, item *omekas.Item) {
	fmt.Fprintf(w, "%d\t%s\n", item.ID(), item.Title())

	properties := item.GetProperties()
	terms := make([]string, 0, len(properties))
	for term := range properties {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	for _, term := range terms {
		for _, v := range properties[term] {
			visibility := ""
			if !v.IsPublic() {
				visibility = " (private)"
			}
			fmt.Fprintf(w, "  %s: %s%s\n", term, v, visibility)
		}
	}
}

func printVocabulary(w io.Writer, v *omekas.Vocabulary) {
	fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.ID(), v.Prefix(), v.URI(), v.Label())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
