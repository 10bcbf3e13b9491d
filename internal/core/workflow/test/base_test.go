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

// Package workflow_test contains integration tests for the core application
// workflows. This file, `base_test.go`, provides the setup and teardown
// logic for all tests within this package. It uses the special `TestMain`
// function to globally initialize configuration, service clients, and
// telemetry; the shared resources are then available to all other test
// files in this package.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/avisser/keyframe-search/internal/cloud"
	"github.com/avisser/keyframe-search/internal/telemetry"
	test "github.com/avisser/keyframe-search/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

// Shared resources for the test suite, initialized once in TestMain.
var (
	err          error
	cloudClients *cloud.ServiceClients // Holds all initialized Google Cloud service clients.
	ctx          context.Context       // The root context for all tests in the suite.
	config       *cloud.Config         // The application configuration loaded from test files.
)

// Constants and global tracers/loggers for telemetry.
const tName = "github.com/avisser/keyframe-search/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

// TestMain runs before any other tests in this package. It sets up shared
// state and performs teardown actions after all tests have run.
//
// Inputs:
//   - m: A pointer to testing.M, which runs the tests via m.Run().
func TestMain(m *testing.M) {
	// ---- Setup Phase ----

	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	// Load application configuration from test-specific files (`.env.test.toml`).
	config = test.GetConfig()

	// Initialize structured logging.
	telemetry.SetupLogging()

	// Initialize OpenTelemetry for distributed tracing and metrics. The
	// returned shutdown function flushes any buffered telemetry data.
	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		panic(err)
	}

	// Initialize all the Google Cloud service clients (Storage, BigQuery,
	// etc.) using the loaded configuration.
	cloudClients, err = cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	defer cloudClients.Close()

	logger.Info("completed test setup")

	// ---- Execution Phase ----
	exitCode := m.Run()

	// ---- Teardown Phase ----
	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}

	os.Exit(exitCode)
}
