package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该检查 Origin
		return true
	},
}

// Handler WebSocket 处理器
// 审核面板订阅提交生命周期事件,路径参数 id 指定订阅的表单,
// 传 "all" 订阅全部表单
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		formID := c.Param("id")
		if formID == "all" {
			formID = ""
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to upgrade connection"})
			return
		}

		client := NewClient(uuid.NewString(), formID, hub, conn)
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
