package v1

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"chartboard/internal/model"
	"chartboard/internal/normalize"
)

type addChartRequest struct {
	DashboardID string              `json:"dashboardId"`
	Payload     *model.CleanPayload `json:"payload"`
}

// AddChartWidget 向指定（默认当前）仪表板追加图表组件
// POST /api/widgets/chart
func (h *Handler) AddChartWidget(c *gin.Context) {
	var req addChartRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, ok := h.dashboards.AddChartWidget(req.DashboardID, req.Payload)
	h.respondMutation(c, ok, w)
}

// AddTextWidget 向当前仪表板追加文本组件
// POST /api/widgets/text
func (h *Handler) AddTextWidget(c *gin.Context) {
	w, ok := h.dashboards.AddTextWidget()
	h.respondMutation(c, ok, w)
}

// decodeWidgetPatch 根据请求体中的字段选择补丁类型；同时携带 text 与 payload 视为无效请求
func decodeWidgetPatch(body []byte) (model.WidgetPatch, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, false
	}
	_, hasText := keys["text"]
	_, hasPayload := keys["payload"]

	switch {
	case hasText && hasPayload:
		return nil, false
	case hasText:
		var p model.TextPatch
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, false
		}
		return p, true
	case hasPayload:
		var p model.ChartPatch
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, false
		}
		return p, true
	default:
		var p model.GeometryPatch
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, false
		}
		return p, true
	}
}

// UpdateWidget 部分更新当前仪表板中的组件
// PATCH /api/widgets/:wid
func (h *Handler) UpdateWidget(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取请求体失败"})
		return
	}
	patch, ok := decodeWidgetPatch(body)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的组件补丁"})
		return
	}
	w, applied := h.dashboards.UpdateWidget(c.Param("wid"), patch)
	h.respondMutation(c, applied, w)
}

// RemoveWidget 删除当前仪表板中的组件
// DELETE /api/widgets/:wid
func (h *Handler) RemoveWidget(c *gin.Context) {
	ok := h.dashboards.RemoveWidget(c.Param("wid"))
	h.respondMutation(c, ok, nil)
}

// chartResponse 渲染器输入
type chartResponse struct {
	Type model.ChartType `json:"type"`
	normalize.Projection
}

// GetChart 图表组件的渲染投影
// GET /api/dashboards/:id/widgets/:wid/chart
func (h *Handler) GetChart(c *gin.Context) {
	d, ok := h.dashboards.Dashboard(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "仪表板不存在"})
		return
	}
	w, _, ok := d.Widgets.Find(c.Param("wid"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "组件不存在"})
		return
	}
	chart, ok := w.(model.ChartWidget)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不是图表组件"})
		return
	}
	c.JSON(http.StatusOK, chartResponse{
		Type:       normalize.WidgetChartType(chart.Payload, d.ChartType),
		Projection: normalize.Project(&chart.Payload),
	})
}
