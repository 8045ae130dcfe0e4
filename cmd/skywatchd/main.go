package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jthorne/skywatch/internal/store"
	"github.com/jthorne/skywatch/internal/uiapi"
)

func main() {
	var port int
	var dbPath string

	rootCmd := &cobra.Command{
		Use:   "skywatchd",
		Short: "SkyWatch HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				home, _ := os.UserHomeDir()
				dbPath = filepath.Join(home, ".skywatch", "skywatch.db")
			}

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			srv := uiapi.NewServer(st)

			addr := fmt.Sprintf(":%d", port)
			log.Printf("SkyWatch API server starting on port %d", port)
			log.Printf("Database: %s", dbPath)

			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Database path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
