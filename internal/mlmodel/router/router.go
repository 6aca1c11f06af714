package router

import (
	"github.com/Meesho/BharatMLStack/model-serving/internal/mlmodel/controller"
	"github.com/Meesho/BharatMLStack/model-serving/pkg/httpframework"
)

// Init expects http framework to be initialized before calling this function
func Init(ctrl controller.MlModel) {
	api := httpframework.Instance().Group("/api/v1/model")
	{
		api.POST("/predict", ctrl.Predict)
		api.POST("/batch-predict", ctrl.BatchPredict)
		api.GET("/status", ctrl.Status)
		api.POST("/update", ctrl.Update)
	}
}
