package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter registers every HTTP route of the service.
func NewRouter(logger *zap.Logger, upload *UploadHandler, tables *TableHandler, documents *DocumentHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "SHG Record Digitizer",
		})
	})

	router.POST("/upload", upload.Upload)
	registerTableRoutes(router.Group("/table"), tables)

	api := router.Group("/api/v1")
	{
		api.POST("/upload", upload.Upload)
		registerTableRoutes(api.Group("/table"), tables)

		docs := api.Group("/shgs/:shgId/documents/:docType")
		{
			docs.GET("", documents.GetDocument)
			docs.PUT("", documents.SaveDocument)
			docs.PATCH("", documents.EditDocument)
			docs.GET("/export/csv", documents.ExportCSV)
		}
	}

	return router
}

func registerTableRoutes(g *gin.RouterGroup, tables *TableHandler) {
	g.GET("/:id", tables.GetTable)
	g.PUT("/:id", tables.UpdateTable)
	g.GET("/:id/export/csv", tables.ExportCSV)
}
