//go:build !windows && !darwin && !linux

package uia

import "runtime"

func newPlatformBackend(_ Config) (Backend, error) {
	return nil, PlatformNotSupportedf("不支持的平台: %s", runtime.GOOS)
}
