package infra

import (
	"github.com/Meesho/BharatMLStack/model-serving/internal/configs"
)

// SQLConfig represents the configuration for a SQL database connection
type SQLConfig struct {
	Host     string
	Port     int
	DBName   string
	Username string
	Password string
}

// BuildSQLConfig constructs master and slave SQL configurations from app config.
//
// Mandatory keys:
//   - MYSQL_MASTER_HOST, MYSQL_MASTER_PORT, MYSQL_DB_NAME,
//     MYSQL_MASTER_USERNAME, MYSQL_MASTER_PASSWORD
//
// Optional keys for slave:
//   - MYSQL_SLAVE_HOST, MYSQL_SLAVE_PORT, MYSQL_SLAVE_USERNAME, MYSQL_SLAVE_PASSWORD
func BuildSQLConfig(config configs.Configs) (master SQLConfig, slave SQLConfig) {
	master = SQLConfig{
		Host:     config.MysqlMasterHost,
		Port:     config.MysqlMasterPort,
		DBName:   config.MysqlDbName,
		Username: config.MysqlMasterUsername,
		Password: config.MysqlMasterPassword,
	}

	if config.MysqlSlaveHost != "" && config.MysqlSlaveUsername != "" {
		// If slave port is not set, use master port
		slavePort := config.MysqlSlavePort
		if slavePort == 0 {
			slavePort = config.MysqlMasterPort
		}

		slave = SQLConfig{
			Host:     config.MysqlSlaveHost,
			Port:     slavePort,
			DBName:   config.MysqlDbName,
			Username: config.MysqlSlaveUsername,
			Password: config.MysqlSlavePassword,
		}
	}

	return master, slave
}
