package api

import (
	"cosmic-classifier/internal/core/types"
	"cosmic-classifier/internal/database"
	"cosmic-classifier/pkg/api"
)

func convertPrediction(res types.PredictionResult) api.PredictResponse {
	probabilities := make(map[string]float64, types.NumClasses)
	for i, p := range res.Probabilities {
		probabilities[types.ClassNames[i]] = p
	}
	return api.PredictResponse{
		Label:             int(res.Label),
		Prediction:        res.Label.String(),
		Confidence:        res.Confidence,
		ConfidencePercent: res.ConfidencePercent(),
		Probabilities:     probabilities,
	}
}

func convertFeatureSpecs() []api.FeatureInfo {
	features := make([]api.FeatureInfo, 0, types.NumFeatures)
	for _, spec := range types.FeatureSpecs {
		features = append(features, api.FeatureInfo{
			Name:    spec.Name,
			Label:   spec.Label,
			Unit:    spec.Unit,
			Help:    spec.Help,
			Default: spec.Default,
		})
	}
	return features
}

func convertDeployment(d database.ArtifactDeployment) api.ModelInfo {
	return api.ModelInfo{
		DeploymentId: d.Id,
		Status:       d.Status,
		Error:        d.Error.String,
		Scaler: api.ArtifactInfo{
			Type:     d.ScalerType,
			Key:      d.ScalerKey,
			Checksum: d.ScalerChecksum,
		},
		Classifier: api.ArtifactInfo{
			Type:     d.ClassifierType,
			Key:      d.ClassifierKey,
			Checksum: d.ClassifierChecksum,
		},
		LoadDurationMs: d.LoadDurationMs,
		LoadedAt:       d.CreationTime,
		Features:       types.FeatureNames(),
		Classes:        types.ClassNames[:],
	}
}

func toPartialVector(req api.PredictRequest) types.PartialVector {
	return types.PartialVector(req.Fields())
}
