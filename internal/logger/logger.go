package logger

import (
	"go-taskhub/internal/config"
	"go-taskhub/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. Besides the console core, WARN and
// above are teed into an async Mongo writer so operators can query
// configuration faults (role cycles, malformed policies, dangling references)
// without scraping stdout.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)

	// Tee core: console plus the async DB writer
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}
