package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/logger"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer logger.Close()

	err := rootCmd.ExecuteContext(ctx)
	if ingestor != nil {
		if cerr := ingestor.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestctl: %v\n", err)
		if domain.IsConfigurationError(err) {
			return 2
		}
		return 1
	}
	return 0
}
