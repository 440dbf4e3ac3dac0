package util

import (
	"os/exec"
	"runtime"
)

// openArgs 各平台打开 URL 或文件的命令
func openArgs(goos, target string) (string, []string) {
	switch goos {
	case "windows":
		// rundll32 调用 url.dll 兼容 Windows 7+
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	case "darwin":
		return "open", []string{target}
	default:
		return "xdg-open", []string{target}
	}
}

// Open 用系统默认程序打开 URL 或文件（浏览器、图片查看器、PDF 阅读器）
func Open(target string) error {
	name, args := openArgs(runtime.GOOS, target)
	err := exec.Command(name, args...).Start()
	if err == nil {
		return nil
	}

	// 降级方案
	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", target).Start()
	case "linux":
		for _, fallback := range []string{"sensible-browser", "google-chrome", "firefox"} {
			if exec.Command(fallback, target).Start() == nil {
				return nil
			}
		}
	}
	return err
}
