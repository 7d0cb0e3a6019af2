//go:build !windows && !darwin && !linux

package recorder

import "github.com/zoeyai/uiauto/pkg/uia"

type unsupportedHookSource struct{}

func newPlatformHookSource() HookSource {
	return unsupportedHookSource{}
}

func (unsupportedHookSource) Install(Sink, bool, bool) error {
	return uia.PlatformNotSupportedf("当前平台不支持输入钩子")
}

func (unsupportedHookSource) Uninstall() error { return nil }
