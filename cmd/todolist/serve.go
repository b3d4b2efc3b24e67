package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daap14/todolist/internal/api"
	"github.com/daap14/todolist/internal/server"
	"github.com/daap14/todolist/internal/todo"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.InitSchema {
		if err := todo.EnsureSchema(ctx, st.exec, st.dialect); err != nil {
			return err
		}
	}

	router := api.NewRouter(api.RouterDeps{
		Todos:          todo.NewRepository(st.exec),
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
	})

	srv := server.New(server.Options{
		Port:        cfg.Port,
		TLSDomains:  cfg.TLSDomains,
		TLSCacheDir: cfg.TLSCacheDir,
	}, router)

	return server.Run(ctx, srv)
}

func newSchemaCmd() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the todolist table",
	}
	schemaCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the todolist table if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.close()

			return todo.EnsureSchema(ctx, st.exec, st.dialect)
		},
	})
	return schemaCmd
}
