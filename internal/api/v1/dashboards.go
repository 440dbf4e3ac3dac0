package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// mutationResponse 变更类接口的统一响应。applied 为 false 表示请求被当作无操作忽略。
type mutationResponse struct {
	Applied bool `json:"applied"`
	Result  any  `json:"result,omitempty"`
	State   any  `json:"state"`
}

func (h *Handler) respondMutation(c *gin.Context, applied bool, result any) {
	resp := mutationResponse{Applied: applied, State: h.dashboards.Snapshot()}
	if applied {
		resp.Result = result
	}
	c.JSON(http.StatusOK, resp)
}

type dashboardNameRequest struct {
	Name string `json:"name"`
}

// GetState 获取应用状态
// GET /api/state
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboards.Snapshot())
}

// CreateDashboard 新建仪表板并设为当前
// POST /api/dashboards
func (h *Handler) CreateDashboard(c *gin.Context) {
	var req dashboardNameRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := h.dashboards.CreateDashboard(req.Name)
	h.respondMutation(c, true, d)
}

// RenameDashboard 重命名仪表板
// PATCH /api/dashboards/:id
func (h *Handler) RenameDashboard(c *gin.Context) {
	var req dashboardNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	id := c.Param("id")
	ok := h.dashboards.RenameDashboard(id, req.Name)
	d, _ := h.dashboards.Dashboard(id)
	h.respondMutation(c, ok, d)
}

// RemoveDashboard 删除仪表板
// DELETE /api/dashboards/:id
func (h *Handler) RemoveDashboard(c *gin.Context) {
	ok := h.dashboards.RemoveDashboard(c.Param("id"))
	h.respondMutation(c, ok, nil)
}

// SelectDashboard 切换当前仪表板
// POST /api/dashboards/:id/select
func (h *Handler) SelectDashboard(c *gin.Context) {
	id := c.Param("id")
	ok := h.dashboards.SelectDashboard(id)
	d, _ := h.dashboards.Dashboard(id)
	h.respondMutation(c, ok, d)
}
