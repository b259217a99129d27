package leave

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the intake API. submitGuards run only in front of the
// two endpoints that can create a ledger entry.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	submitGuards ...gin.HandlerFunc,
) {
	leaves := r.Group("/leaves")
	{
		leaves.POST("/init", handler.Init)
		leaves.POST("/update", handler.Update)
		leaves.POST("/submit", guarded(submitGuards, handler.Submit)...)
		leaves.POST("", guarded(submitGuards, handler.Apply)...)
		leaves.GET("/draft", handler.GetDraft)
		leaves.DELETE("/draft", handler.DeleteDraft)
		leaves.GET("/balance", handler.GetBalance)
		leaves.GET("/applications", handler.GetApplications)
	}
}

func guarded(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, h)
}
