package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/afero"

	"github.com/searchlens/searchlens/config"
	"github.com/searchlens/searchlens/core"
	"github.com/searchlens/searchlens/dashboard"
	"github.com/searchlens/searchlens/dataset"
	"github.com/searchlens/searchlens/querier"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	queryFlag := flag.String("query", "", "Execute a single query and exit")
	flag.Parse()

	if err := config.InitConfig(*configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := core.WithDefaultLogger(context.Background(), "main")
	dataDir := config.DataRoot()

	client := querier.NewQueryClient(dataDir)
	if err := client.Initialize(); err != nil {
		core.Errorf(ctx, "Failed to initialize query client: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	// One-shot mode: run the query, print JSON, exit.
	if *queryFlag != "" {
		results, err := client.Query(ctx, *queryFlag)
		if err != nil {
			core.Errorf(ctx, "Query error: %v", err)
			os.Exit(1)
		}
		jsonData, err := json.MarshalIndent(querier.ProcessResultsForJSON(results), "", "  ")
		if err != nil {
			core.Errorf(ctx, "Failed to marshal results: %v", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
		return
	}

	fs := afero.NewOsFs()
	loader := dataset.NewLoader(fs, dataDir)

	// Load up front: a broken dataset should fail the process at startup,
	// not on the first page view.
	if _, err := loader.Load(ctx); err != nil {
		core.Errorf(ctx, "Failed to load datasets: %v", err)
		os.Exit(1)
	}

	server := dashboard.NewServer(fs, dataDir, loader, client, config.Config.UIDir)

	core.Infof(ctx, "dashboard server running at http://localhost:%d", config.Config.Port)
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", config.Config.Port), server.Routes()); err != nil {
			core.Errorf(ctx, "Failed to start dashboard server: %v", err)
			os.Exit(1)
		}
	}()

	if config.Config.DisableFlightSQL {
		select {}
	}

	core.Infof(ctx, "FlightSQL server running on port %d", config.Config.FlightSQLPort)
	if err := querier.StartFlightSQLServer(config.Config.FlightSQLPort, client); err != nil {
		core.Errorf(ctx, "Failed to start FlightSQL server: %v", err)
		os.Exit(1)
	}
}
