package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// startSSE 设置 SSE 响应头并返回事件发送函数；不支持流式响应时返回 nil
func startSSE(c *gin.Context) func(event any) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	return func(event any) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}
}

func wantsStream(c *gin.Context) bool {
	v := c.Query("stream")
	return v == "1" || v == "true"
}
