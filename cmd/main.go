package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bistro/internal/client"
	"bistro/internal/monitoring"
	"bistro/internal/storefront"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"
)

var (
	port        = flag.Int("port", 8090, "Storefront server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api := client.NewApiClientWithURL(config.BackendURL)
	if token := os.Getenv("BISTRO_API_TOKEN"); token != "" {
		api.AuthToken = token
	}

	metrics := monitoring.NewMetrics()
	front := storefront.NewServer(api, metrics)
	defer front.Close()

	if config.Metrics.Enabled {
		go startMetricsServer(*metricsPort)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: front.Router(),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Storefront server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting storefront server on port %d", *port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Storefront server error: %v", err)
	}
}

func loadConfig(path string) (*Config, error) {
	config := &Config{
		BackendURL: "http://localhost:8080",
		LogLevel:   "info",
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if url := os.Getenv("BISTRO_API_URL"); url != "" {
		config.BackendURL = url
	}
	return config, nil
}

func startMetricsServer(port int) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

// Config represents the application configuration
type Config struct {
	BackendURL string `yaml:"backend_url"`
	LogLevel   string `yaml:"log_level"`
	Metrics    struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}
