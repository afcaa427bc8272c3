package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/catalog"
	"github.com/xaenox/rateai/internal/comments"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/store"
	"github.com/xaenox/rateai/internal/validation"
	"go.uber.org/zap"
)

func NewRootCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rateai",
		Short:         "browse and rate AI tools from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&e.configPath, "config", "c", "config.yaml", "config file")
	cmd.PersistentFlags().BoolVar(&e.debug, "debug", false, "development logging")
	cmd.AddCommand(sessionCmds(e)...)
	cmd.AddCommand(newShellCmd(e))
	return cmd
}

// sessionCmds are the commands that work on the store. The shell runs them
// against one long-lived session so the login cookie is kept.
func sessionCmds(e *env) []*cobra.Command {
	return []*cobra.Command{
		newListCmd(e),
		newShowCmd(e),
		newCommentsCmd(e),
		newRankCmd(e),
		newRateCmd(e),
		newFavCmd(e),
		newReactCmd(e),
		newTagCmd(e),
		newSuggestCmd(e),
		newCommentCmd(e),
		newReplyCmd(e),
		newRegisterCmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newMeCmd(e),
		newMyCommentsCmd(e),
	}
}

// run resolves the session and turns command errors into user messages.
func run(e *env, origin func(args []string) string, fn func(ctx context.Context, s *store.Store, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := e.session(ctx)
		if err != nil {
			return err
		}
		if origin != nil {
			ctx = api.WithOrigin(ctx, origin(args))
		}
		if err := fn(ctx, s, cmd.OutOrStdout(), args); err != nil {
			var uerr usageError
			if errors.As(err, &uerr) {
				return err
			}
			return errors.New(store.UserMessage(err))
		}
		return nil
	}
}

// usageError is shown to the user as is.
type usageError string

func (e usageError) Error() string { return string(e) }

func itemOrigin(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return "/ai/" + args[0]
}

func profileOrigin([]string) string { return "/profile" }

func findItem(s *store.Store, ref string) (*models.Item, error) {
	it, ok := s.FindItem(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrItemNotFound, ref)
	}
	return it, nil
}

func printItems(out io.Writer, items []*models.Item) {
	for _, it := range items {
		fmt.Fprintf(out, "%4d  %-24s  %5.2f  %4d ratings  %s\n", it.ID, it.Name, it.AverageScore, it.RatingCount, it.Price)
	}
}

func newListCmd(e *env) *cobra.Command {
	var f catalog.Filter
	var sortBy string
	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "list AI tools",
		RunE: run(e, nil, func(_ context.Context, s *store.Store, out io.Writer, args []string) error {
			f.Query = strings.Join(args, " ")
			f.SortBy = catalog.SortBy(sortBy)
			printItems(out, s.Items(f))
			return nil
		}),
	}
	cmd.Flags().StringSliceVar(&f.Tags, "tag", nil, "only tools with one of these tags")
	cmd.Flags().Float64Var(&f.MinScore, "min-score", 0, "minimum average score")
	cmd.Flags().StringVar(&sortBy, "sort", string(catalog.SortAlpha), "alpha, ratingCount or score")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ai>",
		Short: "show an AI tool",
		Args:  cobra.ExactArgs(1),
		RunE: run(e, itemOrigin, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			if s.LoggedIn() {
				if _, err := s.LoadMyRating(ctx, it.ID); err != nil {
					e.logger.Warn("Failed to load own rating", zap.Error(err), zap.Int("ai_id", it.ID))
				}
				if _, err := s.LoadMyReaction(ctx, it.ID); err != nil {
					e.logger.Warn("Failed to load own reaction", zap.Error(err), zap.Int("ai_id", it.ID))
				}
			}
			fmt.Fprintf(out, "%s (#%d) by %s\n%s\n\n", it.Name, it.ID, it.Developer, it.Description)
			fmt.Fprintf(out, "Score    %.2f over %d ratings, overall %.2f\n", it.AverageScore, it.RatingCount, it.Overall)
			mine, rated := s.MyRating(it.ID)
			for _, c := range models.Categories {
				fmt.Fprintf(out, "  %-18s %.2f", c, it.Ratings[c])
				if rated && mine.Scores[c] > 0 {
					fmt.Fprintf(out, "  (you: %g)", mine.Scores[c])
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Price    %s\nTags     %s\n", it.Price, strings.Join(it.TagNames(), ", "))
			mineReaction := s.MyReaction(it.ID)
			for _, t := range models.ReactionTypes {
				marker := " "
				if t == mineReaction {
					marker = "*"
				}
				fmt.Fprintf(out, "%s%s %d ", marker, t, it.Reactions[t])
			}
			fmt.Fprintf(out, "\nFavorites %d, comments %d", it.FavoriteCount, s.CommentCount(it.ID))
			if s.IsFavorite(it.ID) {
				fmt.Fprint(out, " (favorite)")
			}
			fmt.Fprintln(out)
			if len(it.Trend) > 0 {
				fmt.Fprint(out, "Trend   ")
				for _, p := range it.Trend {
					fmt.Fprintf(out, " %s:%.1f", p.Month, p.Score)
				}
				fmt.Fprintln(out)
			}
			if it.Link != "" {
				fmt.Fprintln(out, it.Link)
			}
			return nil
		}),
	}
}

func newCommentsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <ai>",
		Short: "show the comments of an AI tool",
		Args:  cobra.ExactArgs(1),
		RunE: run(e, itemOrigin, func(_ context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			comments.Walk(s.CommentTree(it.ID), func(n *comments.Node) {
				indent := strings.Repeat("  ", n.Depth)
				c := n.Comment
				fmt.Fprintf(out, "%s[%d] %s %s: %s\n", indent, c.ID, c.Author, c.Date(), c.Content)
				if n.Hidden > 0 {
					fmt.Fprintf(out, "%s  ... %d more replies\n", indent, n.Hidden)
				}
			})
			return nil
		}),
	}
}

func newRankCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "rank [overall|students|value|image]",
		Short:     "show a ranking",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"overall", "students", "value", "image"},
		RunE: run(e, nil, func(_ context.Context, s *store.Store, out io.Writer, args []string) error {
			kind := catalog.RankOverall
			if len(args) == 1 {
				k, err := catalog.ParseRanking(args[0])
				if err != nil {
					return usageError(err.Error())
				}
				kind = k
			}
			items := s.Rank(kind)
			if len(items) > 10 {
				items = items[:10]
			}
			printItems(out, items)
			return nil
		}),
	}
}

func newRateCmd(e *env) *cobra.Command {
	var form validation.RatingForm
	cmd := &cobra.Command{
		Use:   "rate <ai>",
		Short: "rate an AI tool; unset scores are left out",
		Args:  cobra.ExactArgs(1),
		RunE: run(e, itemOrigin, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			form.ItemID = it.ID
			res, err := s.SubmitRating(ctx, form)
			if err != nil {
				return err
			}
			score, count := res.Optimistic.AverageScore, res.Optimistic.RatingCount
			if res.Item != nil {
				score, count = res.Item.AverageScore, res.Item.RatingCount
			}
			fmt.Fprintf(out, "rating saved (update: %t): %.2f over %d ratings\n", res.IsUpdate, score, count)
			if !res.Refreshed {
				fmt.Fprintln(out, "server values unavailable, showing a local estimate")
			}
			return nil
		}),
	}
	cmd.Flags().Float64Var(&form.Overall, "overall", 0, "overall score 0-10")
	cmd.Flags().Float64Var(&form.Versatility, "versatility", 0, "versatility 0-10")
	cmd.Flags().Float64Var(&form.ImageGeneration, "image", 0, "image generation 0-10")
	cmd.Flags().Float64Var(&form.InformationQuery, "info", 0, "information query 0-10")
	cmd.Flags().Float64Var(&form.StudyAssistance, "study", 0, "study assistance 0-10")
	cmd.Flags().Float64Var(&form.ValueForMoney, "value", 0, "value for money 0-10")
	return cmd
}

func newFavCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "fav <ai>",
		Short: "add or remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: run(e, itemOrigin, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			fav, err := s.ToggleFavorite(ctx, it.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s favorite: %t\n", it.Name, fav)
			return nil
		}),
	}
}

func newReactCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "react <ai> <thumbUp|thumbDown|amazing|bad>",
		Short: "react to an AI tool; the same reaction again removes it",
		Args:  cobra.ExactArgs(2),
		RunE: run(e, itemOrigin, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			res, err := s.React(ctx, it.ID, models.ReactionType(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %v\n", res.Decision.Action, res.Counts)
			return nil
		}),
	}
}

func newTagCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <ai> <tag>",
		Short: "add a tag from the allowed vocabulary",
		Args:  cobra.ExactArgs(2),
		RunE: run(e, itemOrigin, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			current, err := s.AddTag(ctx, it.ID, args[1])
			if err != nil {
				if notice, ok := s.Notice(it.ID); ok {
					return usageError(notice)
				}
				return err
			}
			names := make([]string, len(current))
			for i, t := range current {
				names[i] = fmt.Sprintf("%s(%d)", t.Name, t.Count)
			}
			fmt.Fprintln(out, strings.Join(names, " "))
			return nil
		}),
	}
}

func newSuggestCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <ai>",
		Short: "suggest tags for an AI tool",
		Args:  cobra.ExactArgs(1),
		RunE: run(e, itemOrigin, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			names, err := s.SuggestTags(ctx, it.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.Join(names, " "))
			return nil
		}),
	}
}

func newCommentCmd(e *env) *cobra.Command {
	var images []string
	cmd := &cobra.Command{
		Use:   "comment <ai> <text...>",
		Short: "comment on an AI tool",
		Args:  cobra.MinimumNArgs(2),
		RunE: run(e, itemOrigin, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			it, err := findItem(s, args[0])
			if err != nil {
				return err
			}
			cm, err := s.AddComment(ctx, it.ID, strings.Join(args[1:], " "), images)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "comment #%d posted\n", cm.ID)
			return nil
		}),
	}
	cmd.Flags().StringSliceVar(&images, "image", nil, "image url to attach")
	return cmd
}

func newReplyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <comment id> <text...>",
		Short: "reply to a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: run(e, nil, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return validation.Invalid("comment id", "must be a number")
			}
			if parent, ok := s.Comment(id); ok {
				ctx = api.WithOrigin(ctx, "/ai/"+strconv.Itoa(parent.ItemID))
			}
			cm, err := s.AddReply(ctx, id, strings.Join(args[1:], " "), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "reply #%d to %s posted\n", cm.ID, cm.ReplyTo)
			return nil
		}),
	}
}

func newRegisterCmd(e *env) *cobra.Command {
	var form validation.RegisterForm
	cmd := &cobra.Command{
		Use:   "register <username> <email> <password>",
		Short: "create an account",
		Args:  cobra.ExactArgs(3),
		RunE: run(e, nil, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			form.Username, form.Email, form.Password = args[0], args[1], args[2]
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			res, err := s.Register(ctx, form)
			if err != nil {
				return err
			}
			if res.RequiresApproval {
				fmt.Fprintln(out, "registered, waiting for approval")
				return nil
			}
			fmt.Fprintf(out, "registered and logged in as %s\n", res.User.Username)
			return nil
		}),
	}
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation")
	return cmd
}

func newLoginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "log in",
		Args:  cobra.ExactArgs(2),
		RunE: run(e, nil, func(ctx context.Context, s *store.Store, out io.Writer, args []string) error {
			u, err := s.Login(ctx, validation.LoginForm{Username: args[0], Password: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "logged in as %s\n", u.Username)
			return nil
		}),
	}
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "log out",
		RunE: run(e, nil, func(ctx context.Context, s *store.Store, out io.Writer, _ []string) error {
			s.Logout(ctx)
			fmt.Fprintln(out, "logged out")
			return nil
		}),
	}
}

func newMeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "show the logged-in user and activity",
		RunE: run(e, profileOrigin, func(_ context.Context, s *store.Store, out io.Writer, _ []string) error {
			u, ok := s.User()
			if !ok {
				return usageError("not logged in")
			}
			a := s.Activity()
			fmt.Fprintf(out, "%s <%s>\nratings %d, comments %d, reactions %d, favorites %d\n",
				u.Username, u.Email, len(a.Ratings), len(a.Comments), len(a.Reactions), len(s.Favorites()))
			for _, r := range a.Ratings {
				fmt.Fprintf(out, "  rated #%d on %s\n", r.ItemID, r.SubmittedAt.Format("2006-01-02"))
			}
			return nil
		}),
	}
}

func newMyCommentsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mycomments",
		Short: "list your comments",
		RunE: run(e, profileOrigin, func(ctx context.Context, s *store.Store, out io.Writer, _ []string) error {
			list, err := s.MyComments(ctx)
			if err != nil {
				return err
			}
			for _, c := range list {
				fmt.Fprintf(out, "[%d] #%d %s: %s\n", c.ID, c.ItemID, c.Date(), c.Content)
			}
			return nil
		}),
	}
}

// newShellCmd reads commands line by line and runs them on one session.
func newShellCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "interactive session; keeps you logged in between commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if _, err := e.session(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(out, "rateai> ")
			for scanner.Scan() {
				if ctx.Err() != nil {
					return nil
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
				case "exit", "quit":
					return nil
				default:
					sub := &cobra.Command{Use: "rateai", SilenceUsage: true, SilenceErrors: true}
					sub.AddCommand(sessionCmds(e)...)
					sub.SetArgs(strings.Fields(line))
					sub.SetOut(out)
					sub.SetErr(cmd.ErrOrStderr())
					if err := sub.ExecuteContext(ctx); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
					}
				}
				fmt.Fprint(out, "rateai> ")
			}
			return scanner.Err()
		},
	}
}
