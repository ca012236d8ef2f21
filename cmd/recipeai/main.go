// Command recipeai is the command-line front end of the RecipeAI core:
// it wires config, storage, remote clients and the sync engine together
// and exposes the favorite and recipe operations as subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/recipeai/core/internal/auth"
	"github.com/recipeai/core/internal/configs"
	"github.com/recipeai/core/internal/connectivity"
	"github.com/recipeai/core/internal/db"
	"github.com/recipeai/core/internal/favorites"
	"github.com/recipeai/core/internal/logging"
	"github.com/recipeai/core/internal/models"
	"github.com/recipeai/core/internal/recipes"
	"github.com/recipeai/core/internal/remote"
	"github.com/recipeai/core/internal/sync"
)

// app holds the wired object graph for one CLI invocation.
type app struct {
	cfg        *configs.AppConfig
	database   *db.DB
	store      *db.Store
	tokens     *auth.TokenManager
	probe      connectivity.Probe
	worker     *sync.Worker
	dispatcher *sync.Dispatcher
	favorites  *favorites.Repository
	recipes    *recipes.Service
}

func newApp(envPath string) (*app, error) {
	var cfg *configs.AppConfig
	var err error
	if envPath != "" {
		cfg, err = configs.Load(envPath)
	} else {
		cfg, err = configs.Load()
	}
	if err != nil {
		return nil, err
	}
	logging.Init(os.Stderr, cfg.Log.Level, logging.Format(cfg.Log.Format))

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	store := db.NewStore(database)

	tokens, err := auth.NewTokenManager(cfg.DataDir)
	if err != nil {
		database.Close()
		return nil, err
	}

	var probe connectivity.Probe
	if cfg.Sync.ForceOffline {
		probe = connectivity.StaticProbe{IsOnline: false}
	} else {
		probe = connectivity.NewDialProbe(cfg.Sync.ProbeAddress)
	}

	favService := remote.NewClient(cfg.API.FavoritesBaseURL)
	worker := sync.NewWorker(store, favService, tokens)

	dispatcherCfg := sync.DefaultDispatcherConfig()
	dispatcherCfg.OfflinePollInterval = cfg.Sync.OfflinePollInterval
	dispatcher := sync.NewDispatcher(worker, probe, dispatcherCfg)

	repo, err := favorites.NewRepository(store, favService, tokens, probe, dispatcher)
	if err != nil {
		dispatcher.Close()
		store.Close()
		database.Close()
		return nil, err
	}

	recipeService := recipes.NewService(store,
		recipes.NewCatalogClient(cfg.API.CatalogBaseURL),
		recipes.NewGeneratorClient(cfg.API.GeneratorBaseURL))

	return &app{
		cfg:        cfg,
		database:   database,
		store:      store,
		tokens:     tokens,
		probe:      probe,
		worker:     worker,
		dispatcher: dispatcher,
		favorites:  repo,
		recipes:    recipeService,
	}, nil
}

func (a *app) close() {
	a.dispatcher.Close()
	a.store.Close()
	a.database.Close()
}

// drainSync waits until the dirty set is empty or the timeout passes.
// Used by one-shot commands so a requested background pass gets a
// chance to land before the process exits.
func (a *app) drainSync(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		dirty, err := a.store.AllUnsynced()
		if err != nil || len(dirty) == 0 {
			return err == nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

func printRecord(rec models.RecipeRecord) {
	state := "synced"
	if !rec.IsSynced {
		state = "pending"
	}
	kind := "catalog"
	if rec.IsGenerated() {
		kind = "generated"
	}
	fmt.Printf("%8d  %-30s  %-9s  %s\n", rec.ID, rec.Name, kind, state)
}

func main() {
	var envPath string
	var application *app

	rootCmd := &cobra.Command{
		Use:           "recipeai",
		Short:         "Offline-first recipe and favorites manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			application, err = newApp(envPath)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if application != nil {
				application.close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "path to a .env file")

	loginCmd := &cobra.Command{
		Use:   "login <token>",
		Short: "Store the bearer token for the favorite service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := application.tokens.SaveToken(args[0]); err != nil {
				return err
			}
			fmt.Println("Signed in.")
			return nil
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := application.tokens.Clear(); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}

	favoritesCmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite recipes",
	}

	favoritesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites, reconciling with the remote list when online",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := application.favorites.LoadFavorites(cmd.Context())
			if err != nil {
				return err
			}
			if len(favs) == 0 {
				fmt.Println("No favorites yet.")
				return nil
			}
			for _, rec := range favs {
				printRecord(rec)
			}
			return nil
		},
	}

	favoritesToggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle the favorite state of a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recipe id %q", args[0])
			}
			rec, err := application.recipes.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fav, err := application.favorites.ToggleFavorite(rec.Recipe)
			if err != nil {
				return err
			}
			if fav {
				fmt.Printf("Favorited %q.\n", rec.Name)
			} else {
				fmt.Printf("Unfavorited %q.\n", rec.Name)
			}
			if !application.drainSync(5 * time.Second) {
				fmt.Println("Change saved locally; it will sync when possible.")
			}
			return nil
		},
	}
	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Push pending favorite changes now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := application.worker.RunPass(cmd.Context())
			if err != nil {
				return err
			}
			if result == sync.PassSuccess {
				fmt.Println("All changes synced.")
			} else {
				fmt.Println("Some changes could not be synced yet; they stay queued.")
			}
			return nil
		},
	}

	generateCmd := &cobra.Command{
		Use:   "generate <ingredient>...",
		Short: "Generate a recipe from ingredients and save it locally",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := application.recipes.Generate(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Printf("Generated %q (id %d)\n\n%s\n", rec.Name, rec.ID, rec.Instructions)
			return nil
		},
	}

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with the shared recipe catalog",
	}

	catalogRefreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Pull the catalog into the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := application.recipes.RefreshCatalog(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Cached %d recipes.\n", count)
			return nil
		},
	}

	catalogSearchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := application.recipes.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, recipe := range results {
				fmt.Printf("%8d  %s\n", recipe.ID, recipe.Name)
			}
			return nil
		},
	}
	catalogCmd.AddCommand(catalogRefreshCmd, catalogSearchCmd)

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recipe, fetching it from the catalog if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recipe id %q", args[0])
			}
			rec, err := application.recipes.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (id %d)\n", rec.Name, rec.ID)
			if rec.Description != "" {
				fmt.Printf("\n%s\n", rec.Description)
			}
			if len(rec.Ingredients) > 0 {
				fmt.Println("\nIngredients:")
				for _, ing := range rec.Ingredients {
					fmt.Printf("  - %s\n", ing)
				}
			}
			fmt.Printf("\n%s\n", rec.Instructions)
			return nil
		},
	}

	rootCmd.AddCommand(loginCmd, logoutCmd, favoritesCmd, syncCmd,
		generateCmd, catalogCmd, showCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
