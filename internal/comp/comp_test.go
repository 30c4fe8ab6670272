package comp

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/pkg/config"
	"github.com/wonny/compsync/pkg/logger"
)

func testLogger() *logger.Logger {
	cfg := &config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}
	return logger.NewWithWriter(cfg, io.Discard)
}

func testStrategy() contracts.Strategy {
	return contracts.Strategy{
		CompID:     "381014",
		Name:       "Piltover T-Hex",
		MainCarry:  "THex",
		UnitPrefix: "TFT16_",
		ItemPrefix: "TFT_Item_",
	}
}

func decodeResponse(t *testing.T, raw string) *contracts.CompsResponse {
	t.Helper()

	var resp contracts.CompsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return &resp
}

func strPtr(s string) *string { return &s }
