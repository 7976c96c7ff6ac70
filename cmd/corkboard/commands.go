package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/pders01/corkboard/internal/config"
	"github.com/pders01/corkboard/internal/debuglog"
	"github.com/pders01/corkboard/internal/feed"
	"github.com/pders01/corkboard/internal/listing"
)

var (
	listJSON bool
	unlike   bool
)

var listCmd = &cobra.Command{
	Use:       "list <kind>",
	Short:     "Fetch one board and print its posts",
	Args:      cobra.ExactArgs(1),
	ValidArgs: lo.Map(listing.Kinds, func(k listing.Kind, _ int) string { return string(k) }),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := listing.ParseKind(args[0])
		if err != nil {
			return err
		}
		return withBoard(cmd, func(b *board) error {
			f, err := b.hub.Get(kind)
			if err != nil {
				return err
			}
			if err := f.Fetch(cmd.Context()); err != nil {
				return err
			}
			cards := f.Cards().Cards
			if listJSON {
				return writeJSON(cmd.OutOrStdout(), cards)
			}
			printCards(cmd.OutOrStdout(), kind, cards)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <kind> <id>",
	Short: "Print a single post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := listing.ParseKind(args[0])
		if err != nil {
			return err
		}
		id := args[1]
		return withBoard(cmd, func(b *board) error {
			f, err := b.hub.Get(kind)
			if err != nil {
				return err
			}
			card, err := f.FetchCard(cmd.Context(), id)
			if errors.Is(err, feed.ErrNotFound) {
				return fmt.Errorf("no %s post with id %q (it may have been removed)", kind, id)
			}
			if err != nil {
				return err
			}
			return printCard(cmd.OutOrStdout(), card)
		})
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <kind> <id>",
	Short: "Like a post, or remove your like with --unlike",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := listing.ParseKind(args[0])
		if err != nil {
			return err
		}
		id := args[1]
		return withBoard(cmd, func(b *board) error {
			if err := b.requireUser(); err != nil {
				return err
			}
			f, err := b.hub.Get(kind)
			if err != nil {
				return err
			}
			card, err := f.FetchCard(cmd.Context(), id)
			if errors.Is(err, feed.ErrNotFound) {
				return fmt.Errorf("no %s post with id %q", kind, id)
			}
			if err != nil {
				return err
			}

			want := !unlike
			if card.IsLiked == want {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already %s (%s)\n", id, likedWord(want), likeCount(card.LikeCount))
				return nil
			}

			liked, err := f.ToggleLike(cmd.Context(), id, card.IsLiked)
			if err != nil {
				return err
			}
			st, _ := b.hub.Cache().Get(id)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", id, likedWord(liked), likeCount(st.LikeCount))
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load a JSON seed file into the bolt backend",
	Long: `Loads rows and likes into the local bolt database. The file looks like

  {"collections": {"rent_posts_feed": [{"id": "r1", ...}]},
   "likes": [{"post_id": "r1", "user_id": "u1"}]}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		return withBoard(cmd, func(b *board) error {
			if b.store == nil {
				return fmt.Errorf("seed needs the %s driver (use --db or backend.driver)", config.DriverBolt)
			}
			stats, err := b.store.Import(file)
			if err != nil {
				return err
			}

			names := lo.Keys(stats.Rows)
			sort.Strings(names)
			total := 0
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-28s %s rows\n", name, humanize.Comma(int64(stats.Rows[name])))
				total += stats.Rows[name]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s rows into %d collections and %s likes\n",
				humanize.Comma(int64(total)), len(names), humanize.Comma(int64(stats.Likes)))
			return nil
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories <kind>",
	Short: "List the categories a board knows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := listing.ParseKind(args[0])
		if err != nil {
			return err
		}
		catalog, err := listing.NewCatalog()
		if err != nil {
			return err
		}
		printCategories(cmd.OutOrStdout(), kind, catalog)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print cards as JSON")
	likeCmd.Flags().BoolVar(&unlike, "unlike", false, "Remove your like instead")
}

// withBoard opens the board for a one-shot command. An explicit --log-level
// sends the log to stderr instead of the log file.
func withBoard(cmd *cobra.Command, fn func(*board) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		debuglog.SetupWriter(debuglog.ParseLogLevel(logLevel), cmd.ErrOrStderr())
	}
	b, err := openBoard(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func printCards(w io.Writer, kind listing.Kind, cards []listing.Card) {
	if len(cards) == 0 {
		fmt.Fprintf(w, "Nothing on the %s board yet\n", kind.Title())
		return
	}
	for _, c := range cards {
		heart := "♡"
		if c.IsLiked {
			heart = "♥"
		}
		title := c.Title
		if len(c.Flags) > 0 {
			title += " [" + strings.Join(c.Flags, ", ") + "]"
		}
		fmt.Fprintf(w, "%s %-5s %s\n", heart, humanize.Comma(int64(c.LikeCount)), title)
		meta := lo.Compact([]string{c.ID, c.Subtitle, c.Price, c.Category, c.Age})
		fmt.Fprintf(w, "        %s\n", strings.Join(meta, " • "))
	}
}

func printCategories(w io.Writer, kind listing.Kind, catalog *listing.Catalog) {
	for _, slug := range catalog.Known(kind) {
		fmt.Fprintf(w, "%-16s %s\n", slug, catalog.Resolve(kind, slug).Label)
	}
	fmt.Fprintf(w, "%-16s %s\n", listing.OtherCategory.Slug, listing.OtherCategory.Label)
}

func printCard(w io.Writer, c listing.Card) error {
	fmt.Fprintf(w, "%s\n", c.Title)
	meta := lo.Compact([]string{c.Subtitle, c.Price, c.Category, c.Age, likeCount(c.LikeCount)})
	fmt.Fprintf(w, "%s\n", strings.Join(meta, " • "))
	if len(c.Flags) > 0 {
		fmt.Fprintf(w, "%s\n", strings.Join(c.Flags, " "))
	}

	body := c.Body
	if c.Markdown && body != "" {
		rendered, err := glamour.Render(body, "auto")
		if err == nil {
			body = rendered
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", body)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func likedWord(liked bool) string {
	if liked {
		return "liked"
	}
	return "not liked"
}

func likeCount(n int) string {
	if n == 1 {
		return "1 like"
	}
	return humanize.Comma(int64(n)) + " likes"
}
