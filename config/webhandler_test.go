package config

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func getValidRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Detector: DetectorConfig{
			StateCountThreshold: 3,
			VisibilityRadius:    200,
			ROIHalfWidth:        16,
			KDTreeMinWaypoints:  500,
		},
		Classifier: ClassifierConfig{
			Latitude:  37.4,
			Longitude: -122.1,
			Day:       ClassifierProfile{MinValue: 0.45, MinSaturation: 0.45, MinFraction: 0.15},
			Night:     ClassifierProfile{MinValue: 0.25, MinSaturation: 0.35, MinFraction: 0.1},
		},
	}
}

func TestConfigHandler_Get(t *testing.T) {
	configFile := createConfigFile(t, getBaseConfig())
	handler := ConfigHandler(configFile)

	req := httptest.NewRequest("GET", "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got RuntimeConfig
	err := json.Unmarshal(w.Body.Bytes(), &got)
	assert.NoError(t, err, "GET response should decode as a runtime config")
	assert.Equal(t, 3, got.Detector.StateCountThreshold)
	assert.Equal(t, 200, got.Detector.VisibilityRadius)
	assert.Equal(t, 0.45, got.Classifier.Day.MinValue)
}

func TestConfigHandler_MethodNotAllowed(t *testing.T) {
	configFile := createConfigFile(t, getBaseConfig())
	handler := ConfigHandler(configFile)

	req := httptest.NewRequest("DELETE", "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestConfigHandler_SetValidation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tldetect-webtest")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configFile := filepath.Join(tempDir, "config.yml")
	if err := os.WriteFile(configFile, []byte(getBaseConfig()), 0o644); err != nil {
		t.Fatalf("Failed to write initial config: %v", err)
	}

	tests := []struct {
		name         string
		payload      RuntimeConfig
		wantStatus   int
		wantErrorMsg string
		shouldModify bool
	}{
		{
			name: "Valid Update",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Detector.VisibilityRadius = 80
				c.Detector.StateCountThreshold = 5
				return c
			}(),
			wantStatus:   http.StatusOK,
			shouldModify: true,
		},
		{
			name: "Threshold Below One",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Detector.StateCountThreshold = 0
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "StateCountThreshold must be at least 1",
			shouldModify: false,
		},
		{
			name: "Negative Visibility Radius",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Detector.VisibilityRadius = -10
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "VisibilityRadius must be at least 1",
			shouldModify: false,
		},
		{
			name: "Profile Fraction Above One",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Classifier.Night.MinFraction = 2
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "must be between 0 and 1",
			shouldModify: false,
		},
	}

	handler := ConfigHandler(configFile)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.payload)
			req := httptest.NewRequest("POST", "/api/config", bytes.NewBuffer(body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantErrorMsg != "" {
				assert.Contains(t, w.Body.String(), tt.wantErrorMsg)
			}

			currentConfig, err := ReadConfig(configFile)
			assert.NoError(t, err)

			if tt.shouldModify {
				assert.Equal(t, tt.payload.Detector, currentConfig.Detector)
			} else {
				assert.NoError(t, currentConfig.Validate(),
					"File must still hold a valid configuration after a rejected update")
			}
		})
	}
}

func TestConfigHandler_SetPreservesCameraSection(t *testing.T) {
	configFile := createConfigFile(t, getBaseConfig())
	handler := ConfigHandler(configFile)

	payload := getValidRuntimeConfig()
	payload.Detector.ROIHalfWidth = 24
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/api/config", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	conf, err := ReadConfig(configFile)
	assert.NoError(t, err)
	assert.Equal(t, 24, conf.Detector.ROIHalfWidth, "Runtime subset should be updated")
	assert.Equal(t, 2574.0, conf.Camera.FocalLengthX, "Camera section must survive a runtime update")
	assert.Len(t, conf.StopLines, 2, "Stop lines must survive a runtime update")
}
