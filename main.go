// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Command instept is the headless Instept client: it imports cooking videos
// as structured recipes through the extraction backend, browses and saves
// recipes in the document store, and serves the push webhook.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/urfave/cli/v2"

	"github.com/curioswitch/instept/client"
	"github.com/curioswitch/instept/imagecache"
	"github.com/curioswitch/instept/insteptdb"
	"github.com/curioswitch/instept/internal/config"
	"github.com/curioswitch/instept/internal/hook"
	"github.com/curioswitch/instept/recipe"
	"github.com/curioswitch/instept/session"
)

//go:embed conf/base.yaml
var baseConfig []byte

const feedLimit = 10

func main() {
	if err := app().Run(os.Args); err != nil {
		slog.Error("instept: command failed", "error", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "instept",
		Usage: "import cooking videos as structured recipes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Usage:   "language tag for recipe content, overriding the configured one",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "submit a video URL for recipe extraction",
				ArgsUsage: "<video-url>",
				Action:    runImport,
			},
			{
				Name:      "translate",
				Usage:     "fetch a recipe translated to the requested language",
				ArgsUsage: "<video-url>",
				Action:    runTranslate,
			},
			{
				Name:      "show",
				Usage:     "fetch a recipe by ID from the backend",
				ArgsUsage: "<recipe-id>",
				Action:    runShow,
			},
			{
				Name:      "rate",
				Usage:     "submit a 1-5 rating for a recipe",
				ArgsUsage: "<recipe-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Required: true},
				},
				Action: runRate,
			},
			{
				Name:   "home",
				Usage:  "show saved, popular, and recent recipes",
				Action: runHome,
			},
			{
				Name:      "save",
				Usage:     "toggle a recipe in the saved set",
				ArgsUsage: "<recipe-id>",
				Action:    runSave,
			},
			{
				Name:   "listen",
				Usage:  "serve the push webhook",
				Action: runListen,
			},
		},
	}
}

func setup(c *cli.Context) (*config.Config, *client.Client, error) {
	conf, err := config.Load(baseConfig)
	if err != nil {
		return nil, nil, err
	}
	if lng := c.String("language"); lng != "" {
		conf.Language = lng
	}
	cl, err := client.New(conf.Backend.URL, nil)
	if err != nil {
		return nil, nil, err
	}
	return conf, cl, nil
}

// newStore wires Firestore the same way for every command that needs the
// document store. The returned close func releases the client.
func newStore(ctx context.Context, conf *config.Config) (*insteptdb.Store, func(), error) {
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Google.Project})
	if err != nil {
		return nil, nil, fmt.Errorf("main: create firebase app: %w", err)
	}
	firestore, err := fbApp.Firestore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("main: create firestore client: %w", err)
	}
	closeStore := func() {
		if err := firestore.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close firestore client", "error", err)
		}
	}
	return insteptdb.NewStore(firestore), closeStore, nil
}

func runImport(c *cli.Context) error {
	conf, cl, err := setup(c)
	if err != nil {
		return err
	}
	videoURL := c.Args().First()
	if videoURL == "" {
		return cli.Exit("usage: instept import <video-url>", 2)
	}

	token, err := config.DeviceToken(conf.Cache.Dir)
	if err != nil {
		return err
	}
	ack, err := cl.Analyze(c.Context, videoURL, conf.Language, token)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, ack.Message)
	fmt.Fprintln(c.App.Writer, "The backend will push the recipe ID when processing finishes; run 'instept listen' to receive it.")
	return nil
}

func runTranslate(c *cli.Context) error {
	conf, cl, err := setup(c)
	if err != nil {
		return err
	}
	videoURL := c.Args().First()
	if videoURL == "" {
		return cli.Exit("usage: instept translate <video-url>", 2)
	}
	rec, err := cl.Translate(c.Context, videoURL, conf.Language)
	if err != nil {
		return err
	}
	printRecipe(c, rec)
	return nil
}

func runShow(c *cli.Context) error {
	_, cl, err := setup(c)
	if err != nil {
		return err
	}
	id := c.Args().First()
	if id == "" {
		return cli.Exit("usage: instept show <recipe-id>", 2)
	}
	rec, err := cl.GetRecipe(c.Context, id)
	if err != nil {
		return err
	}
	printRecipe(c, rec)
	return nil
}

func runRate(c *cli.Context) error {
	_, cl, err := setup(c)
	if err != nil {
		return err
	}
	id := c.Args().First()
	if id == "" {
		return cli.Exit("usage: instept rate <recipe-id> --rating <1-5>", 2)
	}
	// Rating is best effort: the backend outcome is terminal either way, so a
	// failure is logged and deliberately not retried.
	if err := cl.Rate(c.Context, id, c.Int("rating")); err != nil {
		slog.WarnContext(c.Context, "main: rating submission failed", "recipe_id", id, "error", err)
	}
	fmt.Fprintln(c.App.Writer, "Thanks for rating!")
	return nil
}

func runHome(c *cli.Context) error {
	conf, _, err := setup(c)
	if err != nil {
		return err
	}
	store, closeStore, err := newStore(c.Context, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	feed, err := store.GetHomeFeed(c.Context, conf.User.ID, conf.Language, feedLimit)
	if err != nil {
		return err
	}
	printSection(c, "My Recipes", feed.Saved)
	printSection(c, "Popular", feed.Popular)
	printSection(c, "Recent", feed.Recent)
	return nil
}

func runSave(c *cli.Context) error {
	conf, _, err := setup(c)
	if err != nil {
		return err
	}
	id := c.Args().First()
	if id == "" {
		return cli.Exit("usage: instept save <recipe-id>", 2)
	}
	store, closeStore, err := newStore(c.Context, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr := session.NewManager(store, conf.User.ID)
	if err := mgr.Refresh(c.Context); err != nil {
		return err
	}
	saved, err := mgr.Toggle(c.Context, id)
	if err != nil {
		// Save is optimistic on the client; a failed write is logged, not
		// retried, and the remote set stays authoritative.
		slog.WarnContext(c.Context, "main: toggling saved recipe failed", "recipe_id", id, "error", err)
		return nil
	}
	if saved {
		fmt.Fprintln(c.App.Writer, "Saved.")
	} else {
		fmt.Fprintln(c.App.Writer, "Removed from saved recipes.")
	}
	return nil
}

func runListen(c *cli.Context) error {
	conf, cl, err := setup(c)
	if err != nil {
		return err
	}
	cache, err := imagecache.NewCache(conf.Cache.Dir)
	if err != nil {
		return err
	}
	defer cache.Sync()
	images := imagecache.NewLoader(cache, nil)

	handler := hook.NewHandler(cl, images)
	slog.Info("main: serving push webhook", "address", conf.Listen.Address)
	if err := http.ListenAndServe(conf.Listen.Address, handler.Routes()); err != nil {
		return fmt.Errorf("main: serving webhook: %w", err)
	}
	return nil
}

func printRecipe(c *cli.Context, rec recipe.Recipe) {
	w := c.App.Writer
	fmt.Fprintf(w, "%s (%s)\n", rec.Title, rec.Category)
	if rec.Description != "" {
		fmt.Fprintln(w, rec.Description)
	}
	fmt.Fprintf(w, "%s | %s | %s | %.1f (%d reviews) | by %s\n",
		rec.Time, rec.Difficulty, rec.Calories, rec.Rating, rec.ReviewsCount, rec.AuthorName)
	fmt.Fprintln(w, "\nIngredients:")
	for _, ing := range rec.Ingredients {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(strings.Join([]string{ing.Amount, ing.Unit, ing.Name}, " ")))
	}
	fmt.Fprintln(w, "\nSteps:")
	for i, step := range rec.Steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step.Description)
	}
}

func printSection(c *cli.Context, title string, recipes []recipe.Recipe) {
	w := c.App.Writer
	fmt.Fprintf(w, "%s\n", title)
	if len(recipes) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, rec := range recipes {
		fmt.Fprintf(w, "  %-24s %s\n", rec.ID, rec.Title)
	}
	fmt.Fprintln(w)
}
