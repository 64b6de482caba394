//go:build !windows

package main

import (
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
)

// initOnnx starts the onnxruntime environment when an onnx classifier is configured. The
// returned func tears it down.
func initOnnx(dylib string) (func(), error) {
	ort.SetSharedLibraryPath(dylib)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, err
	}
	slog.Info("onnx runtime initialized", "dylib", dylib)
	return func() {
		if err := ort.DestroyEnvironment(); err != nil {
			slog.Error("error destroying onnx env", "error", err)
		}
	}, nil
}
