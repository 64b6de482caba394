//go:build windows

package main

import "errors"

func initOnnx(dylib string) (func(), error) {
	return nil, errors.New("ONNX models are not supported on Windows")
}
