package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"protocol-cli/cmd/utils"
	"protocol-cli/internal/devserver"
	"protocol-cli/internal/i18n"
	"protocol-cli/internal/mock"
)

var (
	serveAddr    string
	serveDB      string
	serveSeed    bool
	serveLatency time.Duration
)

// serveCmd runs the development backend.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local diagnosis backend for development",
	Long: `Serve the diagnosis and chat history API locally.

Diagnoses come from the built-in respiratory responder. Chats are kept in
memory, or in a SQLite file when --db is given.

Examples:
  protocol serve
  protocol serve --addr :9090 --db ./protocol.db
  protocol serve --seed=false --latency 0s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		str := cliCtx.Strings()
		opts := serveMockOptions(cmd, str)

		repo, err := openServeRepository(cmd, opts)
		if err != nil {
			return err
		}
		diagnosis := mock.New(append(opts, mock.WithoutSeed())...)

		h := devserver.New(repo, diagnosis, cliCtx.Settings.APIBase)
		utils.OutputSuccess("Serving diagnosis API on %s%s", serveAddr, cliCtx.Settings.APIBase)
		return devserver.ListenAndServe(cmd.Context(), serveAddr, h)
	},
}

func serveMockOptions(cmd *cobra.Command, str i18n.Strings) []mock.Option {
	opts := []mock.Option{mock.WithStrings(str)}
	if cmd.Flags().Changed("latency") {
		opts = append(opts, mock.WithLatency(serveLatency))
	}
	return opts
}

func openServeRepository(cmd *cobra.Command, opts []mock.Option) (devserver.Repository, error) {
	if serveDB == "" {
		if !serveSeed {
			opts = append(opts, mock.WithoutSeed())
		}
		return mock.New(opts...), nil
	}

	path := utils.ResolvePath(serveDB)
	utils.OutputProgress("Opening %s", path)
	db, err := devserver.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	repo := devserver.NewGormRepository(db)
	if serveSeed {
		seeded, err := repo.Seed(cmd.Context(), mock.Seed(time.Now()))
		if err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", path, err)
		}
		if seeded {
			utils.OutputInfo("Seeded %s with example chats", path)
		}
	}
	return repo, nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite file for chat history (default: in memory)")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", true, "start with the example chats")
	serveCmd.Flags().DurationVar(&serveLatency, "latency", 0, "fixed delay for every call (default: randomized)")

	rootCmd.AddCommand(serveCmd)
}
