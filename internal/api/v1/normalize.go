package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chartboard/internal/model"
	"chartboard/internal/normalize"
)

// Normalize 对原始分析结果做规范化，不修改任何仪表板
// POST /api/normalize
func (h *Handler) Normalize(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取请求体失败"})
		return
	}
	raw, err := model.DecodeRawPayload(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cleaned := normalize.Normalize(raw)
	c.JSON(http.StatusOK, gin.H{
		"payload":    cleaned,
		"chartType":  normalize.Classify(cleaned.ChartType),
		"projection": normalize.Project(&cleaned),
	})
}
