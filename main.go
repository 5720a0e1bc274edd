package main

import (
	"github.com/joho/godotenv"

	"sjsage522/pricewatch/cmd"
	"sjsage522/pricewatch/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	cmd.Execute()
}
