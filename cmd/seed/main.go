// Command seed idempotently creates the single ModelVersion row the system
// needs to accept submissions. Migration and training pipeline tooling are
// explicitly out of scope; this is the minimal "get or create" step that
// lets a freshly provisioned database serve traffic.
package main

import (
	"os"

	"inference-scheduler/internal/config"
	"inference-scheduler/internal/model"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger("inference-seed", os.Stdout)

	db, err := config.NewDB(cfg)
	if err != nil {
		logger.Error(err).LogActivity("failed to connect to database", nil)
		os.Exit(1)
	}

	name := getEnv("MODEL_NAME", "default")
	weightsRef := getEnv("MODEL_WEIGHTS_REF", "s3://models/default/weights.bin")

	mv := model.ModelVersion{Name: name, WeightsRef: weightsRef}
	if err := db.Where(model.ModelVersion{Name: name}).FirstOrCreate(&mv).Error; err != nil {
		logger.Error(err).LogActivity("failed to seed model version", map[string]any{"name": name})
		os.Exit(1)
	}

	logger.Info().LogActivity("model version ready", map[string]any{"id": mv.ID, "name": mv.Name})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
