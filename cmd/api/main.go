package main

import (
	"log"

	"github.com/Egham-7/embedding-advisor/internal/config"
	pkgconfig "github.com/Egham-7/embedding-advisor/pkg/config"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

func main() {
	config.LoadEnvFiles(config.DefaultEnvFiles)

	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		fiberlog.Fatalf("Failed to load config: %v", err)
	}

	server := pkgconfig.NewServer(cfg)

	log.Println("Starting embedding advisor server...")
	if err := server.Run(); err != nil {
		fiberlog.Fatalf("Server failed: %v", err)
	}
}
