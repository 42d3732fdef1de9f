package cmd

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"searchmark/internal/apihandlers"
)

var (
	serveAddr string
	servePort string
)

// serveCmd runs SearchMark as an HTTP API server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run SearchMark as an HTTP API server",
	Long: `Starts an HTTP server exposing page analysis and folder recommendation
via a RESTful API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		// Flags win over config.yaml when explicitly set.
		if !cmd.Flags().Changed("addr") {
			serveAddr = appInstance.Config.Server.Addr
		}
		if !cmd.Flags().Changed("port") {
			servePort = appInstance.Config.Server.Port
		}

		router := gin.Default()

		apiHandler := apihandlers.NewAPIHandler(appInstance)

		v1 := router.Group("/api/v1")
		{
			v1.POST("/analyze", apiHandler.AnalyzeHandler)
			v1.POST("/recommend", apiHandler.RecommendHandler)
		}

		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		listenAddr := fmt.Sprintf("%s:%s", serveAddr, servePort)
		log.Infof("Starting SearchMark API server on http://%s", listenAddr)

		if err := router.Run(listenAddr); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1", "Listen address")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Listen port")
	rootCmd.AddCommand(serveCmd)
}
