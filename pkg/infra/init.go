package infra

import (
	"sync"

	"github.com/Meesho/BharatMLStack/model-serving/internal/configs"
)

var (
	mut sync.Mutex
)

func InitDBConnectors(config configs.Configs) {
	mut.Lock()
	defer mut.Unlock()
	if SQL == nil {
		initSQLConns(config)
	}
}
