package api

import (
	"time"

	"github.com/google/uuid"
)

// PredictRequest carries the ten KOI measurements in fitted order. A nil field is an
// input the user has not entered.
type PredictRequest struct {
	KoiPeriod   *float64 `json:"koi_period" schema:"koi_period"`
	KoiDuration *float64 `json:"koi_duration" schema:"koi_duration"`
	KoiDepth    *float64 `json:"koi_depth" schema:"koi_depth"`
	KoiImpact   *float64 `json:"koi_impact" schema:"koi_impact"`
	KoiPrad     *float64 `json:"koi_prad" schema:"koi_prad"`
	KoiModelSnr *float64 `json:"koi_model_snr" schema:"koi_model_snr"`
	KoiSteff    *float64 `json:"koi_steff" schema:"koi_steff"`
	KoiSlogg    *float64 `json:"koi_slogg" schema:"koi_slogg"`
	KoiSrad     *float64 `json:"koi_srad" schema:"koi_srad"`
	KoiKepmag   *float64 `json:"koi_kepmag" schema:"koi_kepmag"`
}

// Fields returns the request values in fitted feature order.
func (r PredictRequest) Fields() [10]*float64 {
	return [10]*float64{
		r.KoiPeriod, r.KoiDuration, r.KoiDepth, r.KoiImpact, r.KoiPrad,
		r.KoiModelSnr, r.KoiSteff, r.KoiSlogg, r.KoiSrad, r.KoiKepmag,
	}
}

func PredictRequestFromFields(f [10]*float64) PredictRequest {
	return PredictRequest{
		KoiPeriod:   f[0],
		KoiDuration: f[1],
		KoiDepth:    f[2],
		KoiImpact:   f[3],
		KoiPrad:     f[4],
		KoiModelSnr: f[5],
		KoiSteff:    f[6],
		KoiSlogg:    f[7],
		KoiSrad:     f[8],
		KoiKepmag:   f[9],
	}
}

type PredictResponse struct {
	Label             int                `json:"label"`
	Prediction        string             `json:"prediction"`
	Confidence        float64            `json:"confidence"`
	ConfidencePercent string             `json:"confidence_percent"`
	Probabilities     map[string]float64 `json:"probabilities"`
}

type BatchPredictRequest struct {
	Items []PredictRequest `json:"items"`
}

type BatchPredictResult struct {
	Index      int              `json:"index"`
	Prediction *PredictResponse `json:"prediction,omitempty"`
	Error      string           `json:"error,omitempty"`
	Missing    []string         `json:"missing,omitempty"`
}

type BatchPredictResponse struct {
	Results []BatchPredictResult `json:"results"`
}

type FeatureInfo struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit"`
	Help    string  `json:"help"`
	Default float64 `json:"default"`
}

type FormResponse struct {
	Values PredictRequest `json:"values"`
}

type ArtifactInfo struct {
	Type     string `json:"type"`
	Key      string `json:"key"`
	Checksum string `json:"checksum"`
}

type ModelInfo struct {
	DeploymentId   uuid.UUID    `json:"deployment_id"`
	Status         string       `json:"status"`
	Error          string       `json:"error,omitempty"`
	Scaler         ArtifactInfo `json:"scaler"`
	Classifier     ArtifactInfo `json:"classifier"`
	LoadDurationMs int64        `json:"load_duration_ms"`
	LoadedAt       time.Time    `json:"loaded_at"`
	Features       []string     `json:"features"`
	Classes        []string     `json:"classes"`
	History        []ModelInfo  `json:"history,omitempty"`
}
