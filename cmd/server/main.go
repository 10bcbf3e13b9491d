// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/avisser/keyframe-search/internal/core/services"
	"github.com/avisser/keyframe-search/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Add OpenTelemetry middleware.
	r.Use(otelgin.Middleware("keyframe-search-server"))

	// Default CORS allows all origins, methods, and headers, which is fine
	// for local development against the frontend.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		SearchRouter(apiV1)
		VideoRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Wait for an interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give in-flight requests 5 seconds to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// searchRequest is the JSON body shared by the text search endpoints.
type searchRequest struct {
	VideoID string `json:"VideoID"`
	Query   string `json:"query"`
}

// writeSearchError maps the service error taxonomy to HTTP statuses: a miss
// is 404, a broken inference boundary is 502, and everything else is 500.
func writeSearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInference), errors.Is(err, services.ErrParse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// SearchRouter sets up the routes for the four search operations: direct ID
// lookup, semantic text search, keyword search, and image search.
func SearchRouter(r *gin.RouterGroup) {
	search := r.Group("/search")
	{
		search.POST("/id", func(c *gin.Context) {
			var req searchRequest
			if err := c.ShouldBindJSON(&req); err != nil || len(req.VideoID) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "VideoID is required"})
				return
			}
			out, err := state.searchService.SearchByID(c.Request.Context(), req.VideoID)
			if err != nil {
				writeSearchError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		search.POST("/clip", func(c *gin.Context) {
			var req searchRequest
			if err := c.ShouldBindJSON(&req); err != nil || len(req.Query) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
				return
			}
			out, err := state.searchService.SearchSemantic(c.Request.Context(), req.Query)
			if err != nil {
				writeSearchError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		search.POST("/keywords", func(c *gin.Context) {
			var req searchRequest
			if err := c.ShouldBindJSON(&req); err != nil || len(req.Query) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
				return
			}
			out, err := state.searchService.SearchByKeywords(c.Request.Context(), req.Query)
			if err != nil {
				writeSearchError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Image search: the uploaded image is captioned, then the caption
		// is run through semantic search. The caption is returned alongside
		// the results so the client can surface what was searched for.
		search.POST("/image", func(c *gin.Context) {
			file, err := c.FormFile("image")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
				return
			}

			// Save under a random name; client file names are untrusted.
			localPath := filepath.Join(os.TempDir(), fmt.Sprintf("query-%s%s", uuid.NewString(), filepath.Ext(file.Filename)))
			if err := c.SaveUploadedFile(file, localPath); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save uploaded image"})
				return
			}
			defer func() {
				if err := os.Remove(localPath); err != nil {
					log.Printf("failed to remove uploaded image: %v\n", err)
				}
			}()

			out, caption, err := state.searchService.SearchByImage(c.Request.Context(), localPath)
			if err != nil {
				writeSearchError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"caption": caption, "results": out})
		})
	}
}

// VideoRouter sets up the route for streaming source videos.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		// Generate a signed URL so the client streams the video straight
		// from the bucket. Valid for 15 minutes.
		videos.GET("/:id/stream", func(c *gin.Context) {
			id := c.Param("id")
			objectName := id + ".mp4"
			signedURL, err := state.blobStore.SignedVideoURL(c.Request.Context(), objectName, 15*time.Minute)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}
