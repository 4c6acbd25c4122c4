// Bistro stub backend: a development stand-in for the remote
// order-management service. It implements the mutator surface the client
// consumes, recomputes invoice totals server-side, and re-validates
// scheduled times, so the "backend is authoritative" contract is observable
// when running locally.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	port   = flag.Int("port", 8080, "Backend server port")
	dbPath = flag.String("db", "bistro-backend.db", "Path to the SQLite database")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	if err := InitDB(*dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer CloseDB()
	InitializeDatabase()

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "bistro backend is running"})
	})

	api := router.Group("/api/v1")
	if secret := os.Getenv("BISTRO_JWT_SECRET"); secret != "" {
		api.Use(AuthMiddleware(secret))
	}
	InitializeMenuRoutes(api)
	InitializeCheckoutRoutes(api)

	log.Printf("Starting backend server on port %d", *port)
	if err := router.Run(fmt.Sprintf(":%d", *port)); err != nil {
		log.Fatalf("Backend server error: %v", err)
	}
}

// AuthMiddleware handles JWT authentication
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
