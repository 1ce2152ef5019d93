package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/container"
	"github.com/garyjia/expense-admin/internal/domain/entity"
)

func main() {
	// Parse command line flags
	baseURL := flag.String("url", "", "API base URL (or set DASHBOARD_API_URL env var)")
	token := flag.String("token", "", "Bearer token (or set DASHBOARD_API_TOKEN env var)")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get settings from flags or environment
	if *baseURL == "" {
		*baseURL = os.Getenv("DASHBOARD_API_URL")
	}
	if *token == "" {
		*token = os.Getenv("DASHBOARD_API_TOKEN")
	}

	if *baseURL == "" {
		fmt.Fprintf(os.Stderr, "ERROR: DASHBOARD_API_URL not set and no --url flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: check-api --url https://api.example --token <jwt> [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== API Connection Check ===")
	fmt.Println("Configuration:")
	fmt.Printf("  Base URL: %s\n", *baseURL)
	fmt.Printf("  Token length: %d chars\n", len(*token))
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	client, err := apiclient.New(apiclient.Config{
		BaseURL:         *baseURL,
		Timeout:         *timeout,
		RequestIDHeader: "X-Request-ID",
	}, apiclient.StaticToken(*token), container.NewLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Fetching governorate dropdown...")
	startTime := time.Now()
	var governorates []entity.Governorate
	_, err = client.GetJSON(ctx, "/api/Governorate/dropdown", &governorates)
	duration := time.Since(startTime)

	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: API call failed\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Invalid or expired token\n")
		fmt.Fprintf(os.Stderr, "  2. Network connectivity issue\n")
		fmt.Fprintf(os.Stderr, "  3. Wrong base URL\n")
		os.Exit(1)
	}

	fmt.Printf("Response time: %v\n", duration)
	fmt.Printf("Governorates: %d\n", len(governorates))

	fmt.Println("\n=== Response (JSON) ===")
	jsonBytes, _ := json.MarshalIndent(governorates, "", "  ")
	fmt.Println(string(jsonBytes))

	fmt.Println("\nAPI connection check PASSED")
}
